package models

import (
	"fmt"
	"time"
)

const (
	StatusAvailable   = "Available"
	StatusUnavailable = "Unavailable"
	StatusBusy        = "Busy"
)

type Agent struct {
	ID              string   `json:"agent_id" validate:"required"`
	Name            string   `json:"name" validate:"required"`
	Skills          SkillSet `json:"skills"`
	CurrentLoad     int      `json:"current_load" validate:"gte=0"`
	Availability    string   `json:"availability_status" validate:"required,oneof=Available Unavailable Busy"`
	ExperienceLevel int      `json:"experience_level" validate:"gte=1"`
}

type Ticket struct {
	ID                string `json:"ticket_id" validate:"required"`
	Title             string `json:"title" validate:"required"`
	Description       string `json:"description"`
	CreationTimestamp int64  `json:"creation_timestamp" validate:"gt=0"`
}

// Dataset is the input structure consumed by import and the assign CLI.
type Dataset struct {
	Agents  []Agent  `json:"agents" validate:"required,min=1,dive"`
	Tickets []Ticket `json:"tickets" validate:"dive"`
}

// DuplicateIDs reports every agent or ticket id that appears more than once.
// Duplicate agent ids would collapse distinct agents into one workload
// counter, so every dataset entry point must reject them.
func (d Dataset) DuplicateIDs() []string {
	var dups []string
	seenAgents := map[string]bool{}
	for _, a := range d.Agents {
		if seenAgents[a.ID] {
			dups = append(dups, fmt.Sprintf("duplicate agent_id %q", a.ID))
		}
		seenAgents[a.ID] = true
	}
	seenTickets := map[string]bool{}
	for _, t := range d.Tickets {
		if seenTickets[t.ID] {
			dups = append(dups, fmt.Sprintf("duplicate ticket_id %q", t.ID))
		}
		seenTickets[t.ID] = true
	}
	return dups
}

// Assignment is the externally visible output record, exactly one per ticket.
type Assignment struct {
	TicketID        string `json:"ticket_id"`
	Title           string `json:"title"`
	AssignedAgentID string `json:"assigned_agent_id"`
	Rationale       string `json:"rationale"`
}

type Summary struct {
	TotalTickets     int      `json:"total_tickets"`
	TotalAgents      int      `json:"total_agents"`
	AssignmentsMade  int      `json:"assignments_made"`
	AlgorithmVersion string   `json:"algorithm_version"`
	Features         []string `json:"features"`
}

type Result struct {
	Assignments []Assignment `json:"assignments"`
	Summary     Summary      `json:"summary"`
}

// AssignmentRecord is the scheduler's full output for one ticket: the
// external Assignment fields plus the scoring metadata the store and debug
// surfaces keep.
type AssignmentRecord struct {
	TicketID  string  `json:"ticket_id"`
	Title     string  `json:"title"`
	AgentID   string  `json:"assigned_agent_id"`
	Rationale string  `json:"rationale"`
	Score     float64 `json:"score"`
	Priority  float64 `json:"priority"`
	Fallback  bool    `json:"fallback"`
}

type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     string     `json:"status"`
	Summary    []byte     `json:"summary"`
}
