package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/supportdesk/backend/internal/models"
)

// ErrEmptyAgentPool is returned when a schedule is requested with no agents.
// Every other degenerate case has a defined outcome; this one does not.
var ErrEmptyAgentPool = errors.New("agent pool is empty")

const AlgorithmVersion = "1.0"

// AlgorithmFeatures is the feature list published in the output summary.
var AlgorithmFeatures = []string{
	"Intelligent skill matching with fuzzy logic",
	"Dynamic workload balancing",
	"Priority-based ticket ordering",
	"Experience level weighting",
	"Detailed assignment rationale",
}

// Schedule assigns every ticket to exactly one agent. Tickets are processed in
// descending priority order (original order kept among equals); each ticket is
// scored against all Available agents using a scheduler-local workload
// snapshot, and the winning agent's tracked load is committed before the next
// ticket is considered. With no Available agent in the pool the ticket falls
// back to the least-loaded agent regardless of availability.
//
// Priorities are computed once per ticket at now and reused for ordering,
// scoring, and reporting, so one run stays internally consistent even near
// the age-boost boundaries.
func Schedule(agents []models.Agent, tickets []models.Ticket, now time.Time) ([]models.AssignmentRecord, error) {
	if len(agents) == 0 {
		return nil, ErrEmptyAgentPool
	}

	type prioritized struct {
		ticket   models.Ticket
		priority float64
	}
	ordered := make([]prioritized, len(tickets))
	for i, t := range tickets {
		ordered[i] = prioritized{ticket: t, priority: PriorityAt(t, now)}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].priority > ordered[j].priority
	})

	// Scheduler-local workload snapshot. The input agents are never mutated;
	// scoring reads proposed loads through transient copies.
	loads := make(map[string]int, len(agents))
	for _, a := range agents {
		loads[a.ID] = a.CurrentLoad
	}

	assignments := make([]models.AssignmentRecord, 0, len(tickets))
	for _, entry := range ordered {
		bestIdx := -1
		bestScore := -1.0
		bestRationale := ""

		for i, agent := range agents {
			if agent.Availability != models.StatusAvailable {
				continue
			}
			view := agent
			view.CurrentLoad = loads[agent.ID]
			score, rationale := ScoreAgent(view, entry.ticket, agents, entry.priority)
			if score > bestScore {
				bestScore = score
				bestIdx = i
				bestRationale = rationale
			}
		}

		if bestIdx >= 0 {
			best := agents[bestIdx]
			assignments = append(assignments, models.AssignmentRecord{
				TicketID:  entry.ticket.ID,
				Title:     entry.ticket.Title,
				AgentID:   best.ID,
				Rationale: bestRationale,
				Score:     bestScore,
				Priority:  entry.priority,
			})
			loads[best.ID]++
			continue
		}

		fallback := agents[0]
		for _, a := range agents[1:] {
			if loads[a.ID] < loads[fallback.ID] {
				fallback = a
			}
		}
		assignments = append(assignments, models.AssignmentRecord{
			TicketID:  entry.ticket.ID,
			Title:     entry.ticket.Title,
			AgentID:   fallback.ID,
			Rationale: fmt.Sprintf("Assigned to %s (%s) as fallback with lowest current workload.", fallback.Name, fallback.ID),
			Priority:  entry.priority,
			Fallback:  true,
		})
		loads[fallback.ID]++
	}

	return assignments, nil
}

// BuildResult converts scheduled assignments into the external result
// structure, preserving processing order.
func BuildResult(agents []models.Agent, tickets []models.Ticket, scheduled []models.AssignmentRecord) models.Result {
	out := make([]models.Assignment, 0, len(scheduled))
	for _, s := range scheduled {
		out = append(out, models.Assignment{
			TicketID:        s.TicketID,
			Title:           s.Title,
			AssignedAgentID: s.AgentID,
			Rationale:       s.Rationale,
		})
	}
	return models.Result{
		Assignments: out,
		Summary: models.Summary{
			TotalTickets:     len(tickets),
			TotalAgents:      len(agents),
			AssignmentsMade:  len(scheduled),
			AlgorithmVersion: AlgorithmVersion,
			Features:         AlgorithmFeatures,
		},
	}
}

// Distribution counts assignments per agent, keyed by agent id. Agents with
// no assignments still appear with a zero count.
func Distribution(agents []models.Agent, scheduled []models.AssignmentRecord) map[string]int {
	counts := make(map[string]int, len(agents))
	for _, a := range agents {
		counts[a.ID] = 0
	}
	for _, s := range scheduled {
		counts[s.AgentID]++
	}
	return counts
}
