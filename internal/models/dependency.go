package models

import "time"

// DependencyType describes the nature of a dependency edge
type DependencyType string

const (
	DependencyBlocks   DependencyType = "blocks"
	DependencyRequires DependencyType = "requires"
	DependencySuggests DependencyType = "suggests"
)

// Valid reports whether t is a known dependency type
func (t DependencyType) Valid() bool {
	switch t {
	case DependencyBlocks, DependencyRequires, DependencySuggests:
		return true
	}
	return false
}

// Gating reports whether the prerequisite must be completed first.
// suggests is advisory only.
func (t DependencyType) Gating() bool {
	return t == DependencyBlocks || t == DependencyRequires
}

// Dependency represents a relationship between two tasks.
type Dependency struct {
	ID string `json:"id"`

	// TaskID is the dependent task.
	TaskID string `json:"task_id"`

	// DependsOnTaskID is the prerequisite.
	DependsOnTaskID string `json:"depends_on_task_id"`

	Type      DependencyType `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
}
