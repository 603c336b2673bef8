package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trezcool/kazi/core/task"
)

type taskRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Subject     string         `db:"subject"`
	DueAt       time.Time      `db:"due_at"`
	AssignedIDs pq.StringArray `db:"assigned_ids"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (row taskRow) toTask() task.Task {
	return task.Task{
		ID:          row.ID,
		Title:       row.Title,
		Subject:     row.Subject,
		DueAt:       row.DueAt,
		AssignedIDs: row.AssignedIDs,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) task.Repository {
	return &taskRepository{db: db}
}

const taskIDPrefix = "TASK"

func (repo *taskRepository) CreateTask(tsk task.Task) (task.Task, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return task.Task{}, wrapErr(err, "creating task")
	}
	defer func() { _ = tx.Rollback() }()

	var ids []string
	if err = tx.Select(&ids, `SELECT id FROM task FOR UPDATE`); err != nil {
		return task.Task{}, wrapErr(err, "creating task")
	}
	tsk.ID = nextTaskID(ids)

	_, err = tx.Exec(
		`INSERT INTO task (id, title, subject, due_at, assigned_ids, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tsk.ID, tsk.Title, tsk.Subject, tsk.DueAt, pq.StringArray(tsk.AssignedIDs), tsk.CreatedAt, tsk.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, wrapErr(err, "creating task")
	}
	if err = tx.Commit(); err != nil {
		return task.Task{}, wrapErr(err, "creating task")
	}
	return tsk, nil
}

func (repo *taskRepository) QueryAllTasks() ([]task.Task, error) {
	return repo.queryTasks(`SELECT * FROM task ORDER BY id`)
}

func (repo *taskRepository) QueryTasksByAssignee(userID string) ([]task.Task, error) {
	return repo.queryTasks(`SELECT * FROM task WHERE $1 = ANY(assigned_ids) ORDER BY id`, userID)
}

func (repo *taskRepository) queryTasks(query string, args ...interface{}) ([]task.Task, error) {
	var rows []taskRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, wrapErr(err, "querying tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toTask())
	}
	return tasks, nil
}

func (repo *taskRepository) GetTaskByID(id string) (task.Task, error) {
	var row taskRow
	err := repo.db.Get(&row, `SELECT * FROM task WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return task.Task{}, task.ErrNotFound
	}
	if err != nil {
		return task.Task{}, wrapErr(err, "getting task")
	}
	return row.toTask(), nil
}

func (repo *taskRepository) UpdateTask(tsk task.Task) (task.Task, error) {
	var row taskRow
	err := repo.db.Get(&row,
		`UPDATE task SET title = $2, subject = $3, due_at = $4, assigned_ids = $5, updated_at = $6
		 WHERE id = $1 RETURNING *`,
		tsk.ID, tsk.Title, tsk.Subject, tsk.DueAt, pq.StringArray(tsk.AssignedIDs), tsk.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return task.Task{}, task.ErrNotFound
	}
	if err != nil {
		return task.Task{}, wrapErr(err, "updating task")
	}
	return row.toTask(), nil
}

func (repo *taskRepository) DeleteTasksByID(ids ...string) error {
	if _, err := repo.db.Exec(`DELETE FROM task WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return wrapErr(err, "deleting tasks")
	}
	return nil
}

// nextTaskID derives the next sequential ID (TASK001, TASK002, ...) from the
// highest numeric suffix present.
func nextTaskID(ids []string) string {
	max := 0
	for _, id := range ids {
		n, err := strconv.Atoi(strings.TrimPrefix(id, taskIDPrefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", taskIDPrefix, max+1)
}
