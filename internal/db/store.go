package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportdesk/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ResetDataset clears all dataset-derived tables before a fresh import.
func (s *Store) ResetDataset(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `TRUNCATE agents, tickets, assignments RESTART IDENTITY`)
	return err
}

func (s *Store) InsertAgents(ctx context.Context, agents []models.Agent) (int64, error) {
	rows := make([][]any, 0, len(agents))
	for i, a := range agents {
		skills, err := json.Marshal(a.Skills)
		if err != nil {
			return 0, fmt.Errorf("agent %s skills: %w", a.ID, err)
		}
		rows = append(rows, []any{a.ID, i, a.Name, skills, a.CurrentLoad, a.Availability, a.ExperienceLevel, time.Now().UTC()})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"agents"},
		[]string{"id", "position", "name", "skills", "current_load", "availability_status", "experience_level", "updated_at"},
		pgx.CopyFromRows(rows))
}

func (s *Store) InsertTickets(ctx context.Context, tickets []models.Ticket) (int64, error) {
	rows := make([][]any, 0, len(tickets))
	for i, t := range tickets {
		rows = append(rows, []any{t.ID, i, t.Title, t.Description, t.CreationTimestamp, time.Now().UTC()})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"tickets"},
		[]string{"id", "position", "title", "description", "creation_timestamp", "imported_at"},
		pgx.CopyFromRows(rows))
}

// ListAgents returns the agent pool in dataset order. Scheduling tie-breaks
// follow pool iteration order, so the order here must stay stable.
func (s *Store) ListAgents(ctx context.Context) ([]models.Agent, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, skills, current_load, availability_status, experience_level
		FROM agents ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Agent
	for rows.Next() {
		var a models.Agent
		var skills []byte
		if err := rows.Scan(&a.ID, &a.Name, &skills, &a.CurrentLoad, &a.Availability, &a.ExperienceLevel); err != nil {
			return nil, err
		}
		if len(skills) > 0 {
			if err := json.Unmarshal(skills, &a.Skills); err != nil {
				return nil, fmt.Errorf("agent %s skills: %w", a.ID, err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, title, description, creation_timestamp
		FROM tickets ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreationTimestamp); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReplaceAssignments swaps in the full assignment set of a scheduling run.
// Assignment rows are terminal per run; a new run replaces them wholesale.
func (s *Store) ReplaceAssignments(ctx context.Context, records []models.AssignmentRecord) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM assignments`); err != nil {
			return err
		}
		rows := make([][]any, 0, len(records))
		for i, r := range records {
			rows = append(rows, []any{r.TicketID, i, r.Title, r.AgentID, r.Rationale, r.Score, r.Priority, r.Fallback, time.Now().UTC()})
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"assignments"},
			[]string{"ticket_id", "position", "title", "agent_id", "rationale", "score", "priority", "fallback", "assigned_at"},
			pgx.CopyFromRows(rows))
		return err
	})
}

// ListAssignments returns assignment records in processing order.
func (s *Store) ListAssignments(ctx context.Context) ([]models.AssignmentRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT ticket_id, title, agent_id, rationale, score, priority, fallback
		FROM assignments ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AssignmentRecord
	for rows.Next() {
		var r models.AssignmentRecord
		if err := rows.Scan(&r.TicketID, &r.Title, &r.AgentID, &r.Rationale, &r.Score, &r.Priority, &r.Fallback); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListTicketItems joins tickets with their assignment rows for the listing
// endpoint. assigned filters on presence of an assignment ("true"/"false");
// q matches id, title, or description.
func (s *Store) ListTicketItems(ctx context.Context, assigned string, q string, limit, offset int) ([]map[string]any, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT t.id, t.title, t.description, t.creation_timestamp,
		a.agent_id, a.rationale, a.score, a.priority, a.fallback
		FROM tickets t
		LEFT JOIN assignments a ON a.ticket_id = t.id`
	var args []any
	var wheres []string
	switch assigned {
	case "true":
		wheres = append(wheres, "a.ticket_id IS NOT NULL")
	case "false":
		wheres = append(wheres, "a.ticket_id IS NULL")
	}
	if q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		wheres = append(wheres, fmt.Sprintf("(t.id ILIKE $%d OR t.title ILIKE $%d OR t.description ILIKE $%d)", n, n, n))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY t.position ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var (
			t         models.Ticket
			agentID   *string
			rationale *string
			score     *float64
			priority  *float64
			fallback  *bool
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreationTimestamp, &agentID, &rationale, &score, &priority, &fallback); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"ticket_id":          t.ID,
			"title":              t.Title,
			"description":        t.Description,
			"creation_timestamp": t.CreationTimestamp,
			"assigned_agent_id":  agentID,
			"rationale":          rationale,
			"score":              score,
			"priority":           priority,
			"fallback":           fallback,
		})
	}
	return out, rows.Err()
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (models.Ticket, error) {
	var t models.Ticket
	err := s.Pool.QueryRow(ctx, `
		SELECT id, title, description, creation_timestamp FROM tickets WHERE id = $1
	`, ticketID).Scan(&t.ID, &t.Title, &t.Description, &t.CreationTimestamp)
	return t, err
}

func (s *Store) GetAssignment(ctx context.Context, ticketID string) (models.AssignmentRecord, error) {
	var r models.AssignmentRecord
	err := s.Pool.QueryRow(ctx, `
		SELECT ticket_id, title, agent_id, rationale, score, priority, fallback
		FROM assignments WHERE ticket_id = $1
	`, ticketID).Scan(&r.TicketID, &r.Title, &r.AgentID, &r.Rationale, &r.Score, &r.Priority, &r.Fallback)
	return r, err
}

// Reassign manually moves a ticket's assignment to another agent, keeping the
// stored agent loads in step with the override.
func (s *Store) Reassign(ctx context.Context, ticketID string, agentID string, rationale string) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		var prevAgent string
		if err := tx.QueryRow(ctx, `SELECT agent_id FROM assignments WHERE ticket_id = $1`, ticketID).Scan(&prevAgent); err != nil {
			return err
		}
		if prevAgent == agentID {
			return nil
		}
		if _, err := tx.Exec(ctx, `UPDATE agents SET current_load = GREATEST(current_load - 1, 0), updated_at = NOW() WHERE id = $1`, prevAgent); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE agents SET current_load = current_load + 1, updated_at = NOW() WHERE id = $1`, agentID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			UPDATE assignments
			SET agent_id = $1, rationale = $2, fallback = FALSE, assigned_at = NOW()
			WHERE ticket_id = $3
		`, agentID, rationale, ticketID)
		return err
	})
}

func (s *Store) CountDataset(ctx context.Context) (agents int, tickets int, err error) {
	if err = s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM agents`).Scan(&agents); err != nil {
		return 0, 0, err
	}
	if err = s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&tickets); err != nil {
		return 0, 0, err
	}
	return agents, tickets, nil
}

func (s *Store) CreateRun(ctx context.Context, status string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `INSERT INTO runs (status, started_at) VALUES ($1, NOW()) RETURNING id`, status).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (map[string]any, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1`)
	var (
		id       string
		started  time.Time
		finished *time.Time
		status   string
		summary  []byte
	)
	if err := row.Scan(&id, &started, &finished, &status, &summary); err != nil {
		return nil, err
	}
	var summaryValue any
	if len(summary) > 0 {
		_ = json.Unmarshal(summary, &summaryValue)
	}
	return map[string]any{
		"id":          id,
		"started_at":  started,
		"finished_at": finished,
		"status":      status,
		"summary":     summaryValue,
	}, nil
}
