// Package repository is the only writer of persistent state. It owns
// the store handle exclusively; handlers never see a *sql.DB, only a
// *Repository. Every operation accepts a cancellable request scope as
// its first argument so that client disconnect or server shutdown
// aborts in-flight store work.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/joescharf/issueboard/internal/models"
)

// ErrNotFound signals a missing row, distinguishable from a generic
// store error so callers (currently only GetIssue) can map it to a
// 404 instead of a 500.
var ErrNotFound = errors.New("not found")

// UpdatableIssueFields is the closed, whitelisted set of columns
// UpdateIssue will accept. Any other key is rejected at the boundary —
// see spec.md §9's "Dynamic field updates" re-architecture point.
var UpdatableIssueFields = map[string]bool{
	"title":       true,
	"description": true,
	"status":      true,
	"priority":    true,
	"assignee_id": true,
	"order_index": true,
	"updated_at":  true,
}

// Repository provides typed data access over a *sql.DB opened by
// internal/store. It is the sole writer of issues, users, labels, and
// the issue↔label edge.
type Repository struct {
	db *sql.DB
}

// New wraps db. Callers pass store.Store.DB — the repository never
// opens or closes the connection itself.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// IssueFilter collects the optional filters GetIssues composes with AND.
type IssueFilter struct {
	Status     []string
	Assignee   string
	Priority   []string
	LabelNames []string
	Page       int
	PageSize   int
}

// GetIssues returns issues matching the AND of every supplied filter,
// ordered by order_index ASC with id ASC as a tie-breaker, with
// assignee and labels hydrated. Label hydration is a single batch
// query keyed by the primary result set's ids (see hydrateLabels) —
// never N+1.
func (r *Repository) GetIssues(ctx context.Context, f IssueFilter) ([]models.Issue, error) {
	query := `
		SELECT i.id, i.title, i.description, i.status, i.priority, i.assignee_id,
		       i.created_at, i.updated_at, i.order_index,
		       u.id, u.name, u.avatar_url
		FROM issues i
		LEFT JOIN users u ON i.assignee_id = u.id
		WHERE 1=1`
	var args []any

	if len(f.Status) > 0 {
		query += " AND i.status IN (" + placeholders(len(f.Status)) + ")"
		args = append(args, toAny(f.Status)...)
	}
	if f.Assignee != "" {
		query += " AND i.assignee_id = ?"
		args = append(args, f.Assignee)
	}
	if len(f.Priority) > 0 {
		query += " AND i.priority IN (" + placeholders(len(f.Priority)) + ")"
		args = append(args, toAny(f.Priority)...)
	}
	if len(f.LabelNames) > 0 {
		query += ` AND EXISTS (
			SELECT 1 FROM issue_labels il
			JOIN labels l ON l.id = il.label_id
			WHERE il.issue_id = i.id AND l.name IN (` + placeholders(len(f.LabelNames)) + `)
		)`
		args = append(args, toAny(f.LabelNames)...)
	}

	query += " ORDER BY i.order_index ASC, i.id ASC"

	if f.PageSize > 0 {
		page := f.Page
		if page <= 0 {
			page = 1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.PageSize, (page-1)*f.PageSize)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	issues := make([]models.Issue, 0)
	for rows.Next() {
		issue, err := scanIssueWithAssignee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	if err := r.hydrateLabels(ctx, issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// GetIssue returns a single hydrated issue, or ErrNotFound.
func (r *Repository) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT i.id, i.title, i.description, i.status, i.priority, i.assignee_id,
		       i.created_at, i.updated_at, i.order_index,
		       u.id, u.name, u.avatar_url
		FROM issues i
		LEFT JOIN users u ON i.assignee_id = u.id
		WHERE i.id = ?`, id)

	issue, err := scanIssueWithAssignee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}

	labels, err := r.getLabelsForIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	issue.Labels = labels

	return &issue, nil
}

// CreateIssue inserts the row. Fails (via the assignee foreign key)
// if AssigneeID references a nonexistent user.
func (r *Repository) CreateIssue(ctx context.Context, issue models.Issue) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO issues (id, title, description, status, priority, assignee_id, created_at, updated_at, order_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.Title, issue.Description, string(issue.Status), string(issue.Priority),
		issue.AssigneeID, issue.CreatedAt, issue.UpdatedAt, issue.OrderIndex,
	)
	if err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

// UpdateIssue applies the named field updates as a single statement.
// Only keys in UpdatableIssueFields are honored; an unrecognized key
// is a programmer error and panics rather than silently widening the
// write surface, since callers assemble updates from a closed set of
// handler-level fields, never directly from request JSON keys.
func (r *Repository) UpdateIssue(ctx context.Context, id string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	var setClauses []string
	var args []any
	for field, value := range updates {
		if !UpdatableIssueFields[field] {
			panic(fmt.Sprintf("repository: UpdateIssue: field %q is not updatable", field))
		}
		setClauses = append(setClauses, field+" = ?")
		args = append(args, value)
	}
	args = append(args, id)

	query := "UPDATE issues SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIssue removes the issue; edges cascade via the schema's
// ON DELETE CASCADE. Fails with ErrNotFound if the row did not exist.
func (r *Repository) DeleteIssue(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM issues WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MinOrderIndex returns the smallest order_index among issues in the
// given status column. ok is false for an empty column. A dedicated
// aggregate query, not a full-column fetch — see spec.md §9 point 6.
func (r *Repository) MinOrderIndex(ctx context.Context, status string) (min float64, ok bool, err error) {
	var n sql.NullFloat64
	err = r.db.QueryRowContext(ctx,
		"SELECT MIN(order_index) FROM issues WHERE status = ?", status,
	).Scan(&n)
	if err != nil {
		return 0, false, fmt.Errorf("min order index: %w", err)
	}
	return n.Float64, n.Valid, nil
}

// GetUsers returns every user, unfiltered.
func (r *Repository) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, avatar_url FROM users ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetLabels returns every label, unfiltered.
func (r *Repository) GetLabels(ctx context.Context) ([]models.Label, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, color FROM labels ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	labels := make([]models.Label, 0)
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

func (r *Repository) getLabelsForIssue(ctx context.Context, issueID string) ([]models.Label, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.name, l.color
		FROM issue_labels il
		JOIN labels l ON l.id = il.label_id
		WHERE il.issue_id = ?
		ORDER BY l.name`, issueID)
	if err != nil {
		return nil, fmt.Errorf("get issue labels: %w", err)
	}
	defer rows.Close()

	labels := make([]models.Label, 0)
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// rowScanner abstracts over *sql.Row and *sql.Rows so the same scan
// logic serves both GetIssue and GetIssues.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssueWithAssignee(row rowScanner) (models.Issue, error) {
	var issue models.Issue
	var status, priority string
	var assigneeID, userID, userName, userAvatar sql.NullString

	err := row.Scan(
		&issue.ID, &issue.Title, &issue.Description, &status, &priority, &assigneeID,
		&issue.CreatedAt, &issue.UpdatedAt, &issue.OrderIndex,
		&userID, &userName, &userAvatar,
	)
	if err != nil {
		return models.Issue{}, err
	}

	issue.Status = models.IssueStatus(status)
	issue.Priority = models.IssuePriority(priority)
	issue.Labels = []models.Label{}

	if assigneeID.Valid {
		id := assigneeID.String
		issue.AssigneeID = &id
		if userID.Valid {
			issue.Assignee = &models.User{
				ID:        userID.String,
				Name:      userName.String,
				AvatarURL: userAvatar.String,
			}
		}
	}
	return issue, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
