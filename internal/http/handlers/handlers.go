package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/supportdesk/backend/internal/db"
	"github.com/supportdesk/backend/internal/models"
	"github.com/supportdesk/backend/internal/service"
)

type Handler struct {
	Store     *db.Store
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

type ImportSummary struct {
	Agents  int `json:"agents"`
	Tickets int `json:"tickets"`
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Import dataset
// @Description Upload a dataset JSON file with agents and tickets
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param dataset formData file true "dataset.json"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	file, err := c.FormFile("dataset")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "dataset file required", nil)
		return
	}
	if strings.ToLower(filepath.Ext(file.Filename)) != ".json" {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "dataset must be a .json file", nil)
		return
	}

	dataset, errs := parseDatasetFile(file)
	if len(errs) == 0 {
		errs = h.validateDataset(dataset)
	}
	if len(errs) > 0 {
		writeError(c, http.StatusBadRequest, "DATASET_PARSE_ERROR", "Dataset validation errors", errs)
		return
	}

	ctx := c.Request.Context()
	if err := h.Store.ResetDataset(ctx); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reset tables", err.Error())
		return
	}

	summary := ImportSummary{}
	inserted, err := h.Store.InsertAgents(ctx, dataset.Agents)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert agents", err.Error())
		return
	}
	summary.Agents = int(inserted)

	inserted, err = h.Store.InsertTickets(ctx, dataset.Tickets)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert tickets", err.Error())
		return
	}
	summary.Tickets = int(inserted)

	c.JSON(http.StatusOK, summary)
}

// @Summary Process tickets
// @Tags process
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/process [post]
func (h *Handler) Process(c *gin.Context) {
	runID, err := h.Store.CreateRun(c.Request.Context(), "RUNNING")
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to create run")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
		return
	}

	processor := service.ProcessingService{Store: h.Store, Logger: h.Logger}
	debug := c.Query("debug")
	summary, err := processor.ProcessTickets(c.Request.Context(), debug == "1" || strings.EqualFold(debug, "true"))
	status := "SUCCESS"
	if err != nil {
		status = "FAILED"
	}
	b, marshalErr := json.Marshal(summary)
	if marshalErr != nil {
		h.Logger.Error().Err(marshalErr).Msg("failed to encode run summary")
	}
	if finishErr := h.Store.FinishRun(c.Request.Context(), runID, status, b); finishErr != nil {
		h.Logger.Error().Err(finishErr).Msg("failed to finish run")
	}

	if err != nil {
		h.Logger.Error().Err(err).Msg("processing failed")
		code := "PROCESSING_ERROR"
		httpStatus := http.StatusInternalServerError
		if errors.Is(err, service.ErrEmptyAgentPool) {
			code = "DATASET_ERROR"
			httpStatus = http.StatusConflict
		}
		writeError(c, httpStatus, code, "Processing failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Latest run
// @Tags runs
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	result, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) TicketsList(c *gin.Context) {
	assigned := strings.ToLower(strings.TrimSpace(c.Query("assigned")))
	q := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListTicketItems(c.Request.Context(), assigned, q, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list tickets", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

// TicketDetails returns the stored ticket plus its assignment and an
// on-demand analysis. Priority here uses the wall clock, so the value can
// drift from the one a past run sorted by; the run's value is on the
// assignment row.
func (h *Handler) TicketDetails(c *gin.Context) {
	id := c.Param("id")
	ticket, err := h.Store.GetTicket(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get ticket", err.Error())
		return
	}

	resp := gin.H{
		"ticket": ticket,
		"analysis": gin.H{
			"priority": service.Priority(ticket),
			"keywords": service.ExtractKeywords(ticket),
		},
	}
	if assignment, err := h.Store.GetAssignment(c.Request.Context(), id); err == nil {
		resp["assignment"] = assignment
	} else if !errors.Is(err, pgx.ErrNoRows) {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get assignment", err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) AgentsList(c *gin.Context) {
	items, err := h.Store.ListAgents(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list agents", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Export assignment result
// @Description Result structure with assignments in processing order
// @Tags export
// @Produce json
// @Success 200 {object} models.Result
// @Router /api/export [get]
func (h *Handler) Export(c *gin.Context) {
	records, err := h.Store.ListAssignments(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list assignments", err.Error())
		return
	}
	agents, tickets, err := h.Store.CountDataset(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to count dataset", err.Error())
		return
	}

	assignments := make([]models.Assignment, 0, len(records))
	for _, r := range records {
		assignments = append(assignments, models.Assignment{
			TicketID:        r.TicketID,
			Title:           r.Title,
			AssignedAgentID: r.AgentID,
			Rationale:       r.Rationale,
		})
	}
	c.JSON(http.StatusOK, models.Result{
		Assignments: assignments,
		Summary: models.Summary{
			TotalTickets:     tickets,
			TotalAgents:      agents,
			AssignmentsMade:  len(assignments),
			AlgorithmVersion: service.AlgorithmVersion,
			Features:         service.AlgorithmFeatures,
		},
	})
}

type ReassignRequest struct {
	AgentID string `json:"agent_id" validate:"required"`
	Reason  string `json:"reason" validate:"required"`
}

func (h *Handler) Reassign(c *gin.Context) {
	id := c.Param("id")
	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	agents, err := h.Store.ListAgents(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load agents", err.Error())
		return
	}
	var agent *models.Agent
	for i := range agents {
		if agents[i].ID == req.AgentID {
			agent = &agents[i]
			break
		}
	}
	if agent == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Agent not found", nil)
		return
	}

	rationale := fmt.Sprintf("Manually reassigned to %s (%s): %s", agent.Name, agent.ID, req.Reason)
	if err := h.Store.Reassign(c.Request.Context(), id, agent.ID, rationale); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket has no assignment", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to reassign", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "assigned_agent_id": agent.ID})
}

// @Summary Debug agent scores for a ticket
// @Tags debug
// @Produce json
// @Param ticket_id query string true "Ticket ID"
// @Success 200 {object} map[string]any
// @Router /api/debug/score [get]
func (h *Handler) DebugScore(c *gin.Context) {
	ticketID := strings.TrimSpace(c.Query("ticket_id"))
	if ticketID == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "ticket_id is required", nil)
		return
	}

	ticket, err := h.Store.GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load ticket", err.Error())
		return
	}
	agents, err := h.Store.ListAgents(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load agents", err.Error())
		return
	}
	if len(agents) == 0 {
		writeError(c, http.StatusConflict, "DATASET_ERROR", "Agent pool is empty", nil)
		return
	}

	now := time.Now()
	priority := service.PriorityAt(ticket, now)

	type scored struct {
		AgentID      string                 `json:"agent_id"`
		Name         string                 `json:"name"`
		Availability string                 `json:"availability_status"`
		Breakdown    service.ScoreBreakdown `json:"breakdown"`
	}
	entries := make([]scored, 0, len(agents))
	for _, a := range agents {
		entries = append(entries, scored{
			AgentID:      a.ID,
			Name:         a.Name,
			Availability: a.Availability,
			Breakdown:    service.Breakdown(a, ticket, agents, priority),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Breakdown.Total > entries[j].Breakdown.Total
	})

	c.JSON(http.StatusOK, gin.H{
		"ticket_id": ticket.ID,
		"priority":  priority,
		"keywords":  service.ExtractKeywords(ticket),
		"agents":    entries,
	})
}

func (h *Handler) validateDataset(dataset models.Dataset) []string {
	var errs []string
	if err := h.Validator.Struct(dataset); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	return append(errs, dataset.DuplicateIDs()...)
}

func parseDatasetFile(file *multipart.FileHeader) (models.Dataset, []string) {
	f, err := file.Open()
	if err != nil {
		return models.Dataset{}, []string{err.Error()}
	}
	defer f.Close()

	var dataset models.Dataset
	dec := json.NewDecoder(f)
	if err := dec.Decode(&dataset); err != nil {
		return models.Dataset{}, []string{fmt.Sprintf("invalid dataset JSON: %v", err)}
	}
	return dataset, nil
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
