package service

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/supportdesk/backend/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBreakdown_SkillComponent(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ticket := ticketAt("VPN down for all users - critical outage", "", now)

	agent := agentWithSkills("Networking", 8)
	pool := []models.Agent{agent}

	b := Breakdown(agent, ticket, pool, 5)
	// One matched keyword at level 8: (8 + 1*1.0) * 0.6.
	if !almostEqual(b.Skill, 5.4) {
		t.Fatalf("skill component = %v, want 5.4", b.Skill)
	}
	if len(b.Matches) != 1 || b.Matches[0].Keyword != "vpn" || b.Matches[0].Level != 8 {
		t.Fatalf("unexpected matches %+v", b.Matches)
	}
}

func TestBreakdown_NoSkillMatchIsZero(t *testing.T) {
	agent := agentWithSkills("Printer_Troubleshooting", 9)
	ticket := models.Ticket{ID: "T1", Title: "Desk lamp flickers", Description: ""}
	b := Breakdown(agent, ticket, []models.Agent{agent}, 1)
	if b.Skill != 0 {
		t.Fatalf("skill component = %v, want 0", b.Skill)
	}
	if len(b.Matches) != 0 {
		t.Fatalf("expected no matches, got %+v", b.Matches)
	}
}

func TestBreakdown_WorkloadEndpoints(t *testing.T) {
	low := agentWithSkills()
	low.ID, low.CurrentLoad = "A1", 0
	high := agentWithSkills()
	high.ID, high.CurrentLoad = "A2", 4
	pool := []models.Agent{low, high}

	ticket := models.Ticket{ID: "T1", Title: "Desk lamp flickers"}
	if b := Breakdown(low, ticket, pool, 1); !almostEqual(b.Workload, 20) {
		t.Fatalf("min-load workload = %v, want 20", b.Workload)
	}
	if b := Breakdown(high, ticket, pool, 1); !almostEqual(b.Workload, 0) {
		t.Fatalf("max-load workload = %v, want 0", b.Workload)
	}
}

func TestBreakdown_WorkloadDecreasesWithLoad(t *testing.T) {
	a := agentWithSkills()
	a.ID, a.CurrentLoad = "A1", 0
	b2 := agentWithSkills()
	b2.ID, b2.CurrentLoad = "A2", 10
	pool := []models.Agent{a, b2}
	ticket := models.Ticket{ID: "T1", Title: "Desk lamp flickers"}

	prev := math.Inf(1)
	for load := 0; load <= 10; load += 2 {
		view := a
		view.CurrentLoad = load
		b := Breakdown(view, ticket, pool, 1)
		if b.Workload >= prev {
			t.Fatalf("workload score not strictly decreasing at load %d: %v >= %v", load, b.Workload, prev)
		}
		prev = b.Workload
	}
}

func TestBreakdown_AvailabilityAndPriorityTerms(t *testing.T) {
	agent := agentWithSkills()
	ticket := models.Ticket{ID: "T1", Title: "Desk lamp flickers"}

	b := Breakdown(agent, ticket, []models.Agent{agent}, 4)
	if b.Availability != 5 {
		t.Fatalf("available agent availability term = %v, want 5", b.Availability)
	}
	if !almostEqual(b.PriorityBonus, 2) {
		t.Fatalf("priority bonus = %v, want 2", b.PriorityBonus)
	}

	busy := agent
	busy.Availability = models.StatusBusy
	if b := Breakdown(busy, ticket, []models.Agent{agent}, 4); b.Availability != 0 {
		t.Fatalf("busy agent availability term = %v, want 0", b.Availability)
	}
}

func TestScoreAgent_StrongSkillRationale(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	agent := agentWithSkills("VPN_Troubleshooting", 10)
	agent.Name = "Ava Chen"
	ticket := ticketAt("VPN down for all users - critical outage", "", now)

	_, rationale := ScoreAgent(agent, ticket, []models.Agent{agent}, 5)
	want := "Assigned to Ava Chen (A1) based on strong skills in 'VPN_Troubleshooting' (10). considering good experience (5), high priority ticket."
	if rationale != want {
		t.Fatalf("rationale = %q, want %q", rationale, want)
	}
}

func TestScoreAgent_GeneralSupportRationale(t *testing.T) {
	agent := agentWithSkills()
	agent.Name = "Sam Ortiz"
	ticket := models.Ticket{ID: "T1", Title: "Desk lamp flickers"}

	_, rationale := ScoreAgent(agent, ticket, []models.Agent{agent}, 1)
	if !strings.HasPrefix(rationale, "Assigned to Sam Ortiz (A1) for general support") {
		t.Fatalf("rationale = %q, want general support prefix", rationale)
	}
}

func TestScoreAgent_Deterministic(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	agent := agentWithSkills("Networking", 8, "Database_SQL", 8)
	other := agentWithSkills("Linux_Administration", 2)
	other.ID, other.CurrentLoad = "A2", 3
	pool := []models.Agent{agent, other}
	ticket := ticketAt("Database backup failed on production server", "", now)

	s1, r1 := ScoreAgent(agent, ticket, pool, 4)
	s2, r2 := ScoreAgent(agent, ticket, pool, 4)
	if s1 != s2 || r1 != r2 {
		t.Fatalf("scoring not deterministic: (%v,%q) vs (%v,%q)", s1, r1, s2, r2)
	}
}
