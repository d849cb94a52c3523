package service

import (
	"testing"

	"github.com/supportdesk/backend/internal/models"
)

func agentWithSkills(pairs ...any) models.Agent {
	skills := models.NewSkillSet()
	for i := 0; i < len(pairs); i += 2 {
		skills.Set(pairs[i].(string), pairs[i+1].(int))
	}
	return models.Agent{
		ID:              "A1",
		Name:            "Test Agent",
		Skills:          skills,
		Availability:    models.StatusAvailable,
		ExperienceLevel: 5,
	}
}

func TestResolveSkillLevel_DirectMatch(t *testing.T) {
	agent := agentWithSkills("VPN_Troubleshooting", 8)
	if got := ResolveSkillLevel(agent, "vpn"); got != 8 {
		t.Fatalf("expected direct match level 8, got %d", got)
	}
}

func TestResolveSkillLevel_DirectMatchFirstTagWins(t *testing.T) {
	agent := agentWithSkills("Network_Security", 4, "Networking", 9)
	// "network" is a substring of both tags; dataset order decides.
	if got := ResolveSkillLevel(agent, "network"); got != 4 {
		t.Fatalf("expected first stored tag to win with level 4, got %d", got)
	}
}

func TestResolveSkillLevel_SynonymExactKey(t *testing.T) {
	agent := agentWithSkills("Microsoft_365", 6)
	if got := ResolveSkillLevel(agent, "outlook"); got != 6 {
		t.Fatalf("expected synonym match level 6, got %d", got)
	}
}

func TestResolveSkillLevel_SynonymTagOrder(t *testing.T) {
	agent := agentWithSkills("Linux_Administration", 4, "Database_SQL", 6)
	// "backup" maps to [Database_SQL, Linux_Administration]; the tag list
	// order wins regardless of dataset order.
	if got := ResolveSkillLevel(agent, "backup"); got != 6 {
		t.Fatalf("expected Database_SQL level 6, got %d", got)
	}
}

func TestResolveSkillLevel_Containment(t *testing.T) {
	agent := agentWithSkills("VPN_Troubleshooting", 5)
	// Pluralized keyword has no exact table key but contains "vpn".
	if got := ResolveSkillLevel(agent, "vpns"); got != 5 {
		t.Fatalf("expected containment match level 5, got %d", got)
	}
}

func TestResolveSkillLevel_Unknown(t *testing.T) {
	agent := agentWithSkills("Networking", 9)
	if got := ResolveSkillLevel(agent, "quantum"); got != 0 {
		t.Fatalf("expected 0 for unknown keyword, got %d", got)
	}
}

func TestResolveSkillLevel_NoSkills(t *testing.T) {
	agent := agentWithSkills()
	if got := ResolveSkillLevel(agent, "vpn"); got != 0 {
		t.Fatalf("expected 0 for agent without skills, got %d", got)
	}
}
