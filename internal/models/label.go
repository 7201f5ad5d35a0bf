package models

// Label is a tag applicable to issues through the issue_labels edge.
// Uniqueness of Name is a convention, not an enforced constraint.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}
