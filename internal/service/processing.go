package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/supportdesk/backend/internal/db"
)

type ProcessingService struct {
	Store  *db.Store
	Logger zerolog.Logger
}

type RunSummary struct {
	Events  []map[string]any `json:"events"`
	Counts  map[string]any   `json:"counts"`
	Samples []map[string]any `json:"samples,omitempty"`
}

// ProcessTickets runs one full scheduling pass over the stored dataset and
// persists every assignment. The whole ticket set is processed or the run
// fails outright; there are no partial results.
func (s *ProcessingService) ProcessTickets(ctx context.Context, debug bool) (RunSummary, error) {
	agents, err := s.Store.ListAgents(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load agents: %w", err)
	}
	tickets, err := s.Store.ListTickets(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load tickets: %w", err)
	}

	summary := RunSummary{Counts: map[string]any{}}
	start := time.Now()
	summary.Events = append(summary.Events, map[string]any{
		"type":    "dataset_loaded",
		"message": "Tickets ready for scheduling",
		"agents":  len(agents),
		"tickets": len(tickets),
		"time":    time.Now().UTC(),
	})

	scheduled, err := Schedule(agents, tickets, start)
	if err != nil {
		return RunSummary{}, err
	}

	fallbackCount := 0
	priorityBuckets := map[string]int{}
	for _, a := range scheduled {
		if a.Fallback {
			fallbackCount++
		}
		priorityBuckets[fmt.Sprintf("%.1f", a.Priority)]++
	}

	if err := s.Store.ReplaceAssignments(ctx, scheduled); err != nil {
		return RunSummary{}, fmt.Errorf("persist assignments: %w", err)
	}

	s.Logger.Info().
		Int("tickets", len(tickets)).
		Int("assignments", len(scheduled)).
		Int("fallbacks", fallbackCount).
		Msg("scheduling complete")

	summary.Events = append(summary.Events, map[string]any{
		"type":           "assignment",
		"assigned":       len(scheduled),
		"fallback_count": fallbackCount,
		"time":           time.Now().UTC(),
	})
	summary.Events = append(summary.Events, map[string]any{
		"type":       "db_save",
		"message":    "Assignments saved",
		"elapsed_ms": time.Since(start).Milliseconds(),
		"time":       time.Now().UTC(),
	})

	summary.Counts["tickets_processed"] = len(tickets)
	summary.Counts["assignments_made"] = len(scheduled)
	summary.Counts["fallback_count"] = fallbackCount
	summary.Counts["priority_distribution"] = priorityBuckets
	summary.Counts["agent_distribution"] = Distribution(agents, scheduled)

	if debug {
		for _, a := range scheduled {
			if len(summary.Samples) >= 5 {
				break
			}
			summary.Samples = append(summary.Samples, map[string]any{
				"ticket_id": a.TicketID,
				"agent_id":  a.AgentID,
				"score":     a.Score,
				"priority":  a.Priority,
				"rationale": a.Rationale,
			})
		}
	}

	return summary, nil
}
