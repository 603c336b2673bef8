package jsonfile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/kazi/core/task"
)

type taskRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	DueAt       time.Time `json:"due_at"`
	AssignedIDs []string  `json:"assigned_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newTaskRecord(tsk task.Task) taskRecord {
	return taskRecord{
		ID:          tsk.ID,
		Title:       tsk.Title,
		Subject:     tsk.Subject,
		DueAt:       tsk.DueAt,
		AssignedIDs: tsk.AssignedIDs,
		CreatedAt:   tsk.CreatedAt,
		UpdatedAt:   tsk.UpdatedAt,
	}
}

func (rec taskRecord) toTask() task.Task {
	return task.Task{
		ID:          rec.ID,
		Title:       rec.Title,
		Subject:     rec.Subject,
		DueAt:       rec.DueAt,
		AssignedIDs: rec.AssignedIDs,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

type taskRepository struct {
	db *collection
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db.tasks}
}

func (repo *taskRepository) CreateTask(tsk task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return task.Task{}, err
	}
	tsk.ID = nextTaskID(recs)
	recs = append(recs, newTaskRecord(tsk))
	if err := repo.db.write(recs); err != nil {
		return task.Task{}, err
	}
	return tsk, nil
}

func (repo *taskRepository) QueryAllTasks() ([]task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return nil, err
	}
	tasks := make([]task.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, rec.toTask())
	}
	return tasks, nil
}

func (repo *taskRepository) QueryTasksByAssignee(userID string) ([]task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return nil, err
	}
	tasks := make([]task.Task, 0, len(recs))
	for _, rec := range recs {
		if contains(rec.AssignedIDs, userID) {
			tasks = append(tasks, rec.toTask())
		}
	}
	return tasks, nil
}

func (repo *taskRepository) GetTaskByID(id string) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return task.Task{}, err
	}
	for _, rec := range recs {
		if rec.ID == id {
			return rec.toTask(), nil
		}
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) UpdateTask(tsk task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return task.Task{}, err
	}
	for i := range recs {
		if recs[i].ID != tsk.ID {
			continue
		}
		tsk.CreatedAt = recs[i].CreatedAt
		recs[i] = newTaskRecord(tsk)
		if err := repo.db.write(recs); err != nil {
			return task.Task{}, err
		}
		return tsk, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) DeleteTasksByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return err
	}
	kept := recs[:0]
	for _, rec := range recs {
		if !contains(ids, rec.ID) {
			kept = append(kept, rec)
		}
	}
	return repo.db.write(kept)
}

// readAll expects repo.db to be locked by the caller.
func (repo *taskRepository) readAll() ([]taskRecord, error) {
	var recs []taskRecord
	if err := repo.db.read(&recs); err != nil {
		return nil, err
	}
	return recs, nil
}

const taskIDPrefix = "TASK"

// nextTaskID derives the next sequential ID (TASK001, TASK002, ...) from the
// highest numeric suffix present.
func nextTaskID(recs []taskRecord) string {
	max := 0
	for _, rec := range recs {
		n, err := strconv.Atoi(strings.TrimPrefix(rec.ID, taskIDPrefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", taskIDPrefix, max+1)
}
