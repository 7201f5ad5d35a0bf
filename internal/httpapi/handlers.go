package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joescharf/issueboard/internal/models"
	"github.com/joescharf/issueboard/internal/repository"
	"github.com/joescharf/issueboard/internal/store"
	"github.com/joescharf/issueboard/internal/validator"
)

// Handler translates HTTP requests into repository operations. It
// borrows the repository and store by reference; it never retains a
// row or connection across requests.
type Handler struct {
	repo  *repository.Repository
	store *store.Store
	log   *slog.Logger
}

// NewHandler constructs a Handler over repo (for issue/user/label
// queries) and st (for the health probe's PingContext).
func NewHandler(repo *repository.Repository, st *store.Store, log *slog.Logger) *Handler {
	return &Handler{repo: repo, store: st, log: log}
}

// Health reports store connectivity. A static 200 was the original's
// behavior; this module actually pings per spec.md §6.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "error",
			"database": "unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "healthy",
	})
}

// ListIssues handles GET /issues, composing the repository filter from
// the query string. Invalid page/page_size integers fall back to
// defaults silently, per spec.md §4.4.1.
func (h *Handler) ListIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.IssueFilter{
		Status:     q["status"],
		Assignee:   q.Get("assignee"),
		Priority:   q["priority"],
		LabelNames: q["labels"],
		Page:       parseIntDefault(q.Get("page"), 1),
		PageSize:   parseIntDefault(q.Get("page_size"), 0),
	}

	issues, err := h.repo.GetIssues(r.Context(), filter)
	if err != nil {
		h.log.Error("list issues failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

type createIssueRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	AssigneeID  *string  `json:"assignee_id"`
	LabelIDs    []string `json:"label_ids"`
}

// CreateIssue handles POST /issues: validates, assigns id and
// timestamps, computes order_index at the top of the target column,
// persists the issue and (if provided) its label set, then returns the
// re-fetched hydrated issue.
func (h *Handler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	var req createIssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := validator.ValidateCreateIssue(validator.CreateIssueRequest{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	ctx := r.Context()
	id, err := store.NewID()
	if err != nil {
		h.log.Error("generate issue id failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	orderIndex, err := h.topOfColumn(ctx, req.Status)
	if err != nil {
		h.log.Error("compute order index failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	now := time.Now().UTC()
	issue := models.Issue{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.IssueStatus(req.Status),
		Priority:    models.IssuePriority(req.Priority),
		AssigneeID:  req.AssigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
		OrderIndex:  orderIndex,
	}

	if err := h.repo.CreateIssue(ctx, issue); err != nil {
		h.log.Error("create issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	if len(req.LabelIDs) > 0 {
		if err := h.repo.UpdateIssueLabels(ctx, id, req.LabelIDs); err != nil {
			h.log.Error("set issue labels failed", "error", err, "issue_id", id)
			writeError(w, http.StatusInternalServerError, "Internal server error", nil)
			return
		}
	}

	created, err := h.repo.GetIssue(ctx, id)
	if err != nil {
		h.log.Error("fetch created issue failed", "error", err, "issue_id", id)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// topOfColumn returns the order_index that places a new issue above
// every existing issue in status: one less than the column's current
// minimum, or 0 for an empty column.
func (h *Handler) topOfColumn(ctx context.Context, status string) (float64, error) {
	min, ok, err := h.repo.MinOrderIndex(ctx, status)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return min - 1, nil
}

// GetIssue handles GET /issues/{id}.
func (h *Handler) GetIssue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	issue, err := h.repo.GetIssue(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "issue not found", nil)
		return
	}
	if err != nil {
		h.log.Error("get issue failed", "error", err, "issue_id", id)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

type updateIssueRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
	Priority    *string  `json:"priority"`
	AssigneeID  *string  `json:"assignee_id"`
	LabelIDs    []string `json:"label_ids"`
}

// UpdateIssue handles PATCH /issues/{id}. Not-found surfaces as 500,
// not 404 — preserved from the original per spec.md §9 point 2.
func (h *Handler) UpdateIssue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateIssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := validator.ValidateUpdateIssue(validator.UpdateIssueRequest{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}); len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.AssigneeID != nil {
		updates["assignee_id"] = *req.AssigneeID
	}

	ctx := r.Context()
	if err := h.repo.UpdateIssue(ctx, id, updates); err != nil {
		h.log.Error("update issue failed", "error", err, "issue_id", id)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	if req.LabelIDs != nil {
		if err := h.repo.UpdateIssueLabels(ctx, id, req.LabelIDs); err != nil {
			h.log.Error("set issue labels failed", "error", err, "issue_id", id)
			writeError(w, http.StatusInternalServerError, "Internal server error", nil)
			return
		}
	}

	updated, err := h.repo.GetIssue(ctx, id)
	if err != nil {
		h.log.Error("fetch updated issue failed", "error", err, "issue_id", id)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type moveIssueRequest struct {
	Status     *string  `json:"status"`
	OrderIndex *float64 `json:"order_index"`
}

// MoveIssue handles PATCH /issues/{id}/move, the drag-and-drop hot
// path. It deliberately does not validate Status against the
// enumerated set — see spec.md §9 point 1 and §4.3; the store's CHECK
// constraint is the backstop.
func (h *Handler) MoveIssue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req moveIssueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.OrderIndex != nil {
		updates["order_index"] = *req.OrderIndex
	}

	if err := h.repo.UpdateIssue(r.Context(), id, updates); err != nil {
		h.log.Error("move issue failed", "error", err, "issue_id", id)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	writeNoContent(w, http.StatusOK)
}

// DeleteIssue handles DELETE /issues/{id}. Not-found surfaces as 500,
// preserved per spec.md §9 point 2.
func (h *Handler) DeleteIssue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.DeleteIssue(r.Context(), id); err != nil {
		h.log.Error("delete issue failed", "error", err, "issue_id", id)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	writeNoContent(w, http.StatusNoContent)
}

// GetUsers handles GET /users.
func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.GetUsers(r.Context())
	if err != nil {
		h.log.Error("list users failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetLabels handles GET /labels.
func (h *Handler) GetLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.repo.GetLabels(r.Context())
	if err != nil {
		h.log.Error("list labels failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	writeJSON(w, http.StatusOK, labels)
}

func writeValidationError(w http.ResponseWriter, errs validator.Errors) {
	writeError(w, http.StatusBadRequest, "validation failed", map[string]any{"errors": errs.Error()})
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
