package task

import (
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = errors.New("task not found")

type (
	Repository interface {
		// CreateTask persists a new task and assigns its sequential ID.
		CreateTask(tsk Task) (Task, error)
		QueryAllTasks() ([]Task, error)
		// QueryTasksByAssignee returns tasks whose assigned list contains
		// userID, in store order.
		QueryTasksByAssignee(userID string) ([]Task, error)
		GetTaskByID(id string) (Task, error)
		// UpdateTask replaces the stored task matching tsk.ID.
		UpdateTask(tsk Task) (Task, error)
		DeleteTasksByID(ids ...string) error
	}

	Service interface {
		Create(nt NewTask) (Task, error)
		QueryAll() ([]Task, error)
		QueryByAssignee(userID string) ([]Task, error)
		GetByID(id string) (Task, error)
		Update(id string, ut UpdateTask) (Task, error)
		Delete(ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(nt NewTask) (Task, error) {
	now := time.Now().UTC()
	tsk := Task{
		Title:       nt.Title,
		Subject:     nt.Subject,
		DueAt:       nt.DueAt,
		AssignedIDs: nt.AssignedIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateTask(tsk)
}

func (svc *service) QueryAll() ([]Task, error) {
	return svc.repo.QueryAllTasks()
}

func (svc *service) QueryByAssignee(userID string) ([]Task, error) {
	return svc.repo.QueryTasksByAssignee(userID)
}

func (svc *service) GetByID(id string) (Task, error) {
	return svc.repo.GetTaskByID(id)
}

// Update applies a partial field replacement: ut's zero-valued fields keep
// the stored task's current values.
func (svc *service) Update(id string, ut UpdateTask) (Task, error) {
	tsk, err := svc.repo.GetTaskByID(id)
	if err != nil {
		return Task{}, err
	}

	if ut.Title != "" {
		tsk.Title = ut.Title
	}
	if ut.Subject != "" {
		tsk.Subject = ut.Subject
	}
	if ut.DueAt != nil {
		tsk.DueAt = *ut.DueAt
	}
	if ut.AssignedIDs != nil {
		tsk.AssignedIDs = ut.AssignedIDs
	}
	tsk.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateTask(tsk)
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeleteTasksByID(ids...)
}
