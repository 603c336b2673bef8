package task

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kazi/core"
)

// Task is a homework assignment. ID is opaque and assigned sequentially on
// creation. AssignedIDs may reference users that no longer exist; lookups
// skip such stale references silently.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	DueAt       time.Time `json:"due_at"`
	AssignedIDs []string  `json:"assigned_ids"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	Title       string    `json:"title" validate:"required"`
	Subject     string    `json:"subject" validate:"required"`
	DueAt       time.Time `json:"due_at" validate:"required"`
	AssignedIDs []string  `json:"assigned_ids"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Subject = core.CleanString(nt.Subject)
	return validate.Struct(nt)
}

// UpdateTask defines what information may be provided to modify an existing
// Task; zero-valued fields keep their current value.
type UpdateTask struct {
	Title       string     `json:"title"`
	Subject     string     `json:"subject"`
	DueAt       *time.Time `json:"due_at"`
	AssignedIDs []string   `json:"assigned_ids"`
}

func (ut *UpdateTask) Validate(origTask Task, validate *validator.Validate) error {
	title := core.CleanString(ut.Title)
	if title != "" {
		ut.Title = title
	} else {
		ut.Title = origTask.Title
	}

	subject := core.CleanString(ut.Subject)
	if subject != "" {
		ut.Subject = subject
	} else {
		ut.Subject = origTask.Subject
	}

	return validate.Struct(ut)
}
