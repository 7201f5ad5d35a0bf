package repository

import (
	"context"
	"fmt"

	"github.com/joescharf/issueboard/internal/models"
)

// hydrateLabels collects the ids of issues, then issues one query of
// shape "SELECT issue_id, l.* FROM issue_labels JOIN labels ... WHERE
// issue_id IN (...)" and buckets the results back onto issues by id —
// exactly one additional statement regardless of how many issues were
// returned by the primary query, never N+1. Issues with no labels keep
// the empty slice scanIssueWithAssignee already set; bucketing never
// removes it.
func (r *Repository) hydrateLabels(ctx context.Context, issues []models.Issue) error {
	if len(issues) == 0 {
		return nil
	}

	ids := make([]any, len(issues))
	index := make(map[string]int, len(issues))
	for i, issue := range issues {
		ids[i] = issue.ID
		index[issue.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT il.issue_id, l.id, l.name, l.color
		FROM issue_labels il
		JOIN labels l ON l.id = il.label_id
		WHERE il.issue_id IN (`+placeholders(len(ids))+`)
		ORDER BY il.issue_id, l.name`, ids...)
	if err != nil {
		return fmt.Errorf("hydrate labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var issueID string
		var label models.Label
		if err := rows.Scan(&issueID, &label.ID, &label.Name, &label.Color); err != nil {
			return fmt.Errorf("scan hydrated label: %w", err)
		}
		if i, ok := index[issueID]; ok {
			issues[i].Labels = append(issues[i].Labels, label)
		}
	}
	return rows.Err()
}

// UpdateIssueLabels replaces the issue's label edge set atomically: the
// existing edges are deleted, then the new set (deduplicated, order
// irrelevant) is inserted via a prepared statement, all inside one
// transaction. Any error rolls the whole sequence back.
func (r *Repository) UpdateIssueLabels(ctx context.Context, issueID string, labelIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update issue labels: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	if _, err := tx.ExecContext(ctx, "DELETE FROM issue_labels WHERE issue_id = ?", issueID); err != nil {
		return fmt.Errorf("update issue labels: clear: %w", err)
	}

	unique := dedupe(labelIDs)
	if len(unique) > 0 {
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO issue_labels (issue_id, label_id) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("update issue labels: prepare: %w", err)
		}
		defer stmt.Close()

		for _, labelID := range unique {
			if _, err := stmt.ExecContext(ctx, issueID, labelID); err != nil {
				return fmt.Errorf("update issue labels: insert: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update issue labels: commit: %w", err)
	}
	return nil
}

func dedupe(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
