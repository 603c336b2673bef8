package jsonfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/task"
	"github.com/trezcool/kazi/core/user"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(t.TempDir())
	require.NoError(t, err)
	return db
}

func TestOpen_seedsCollections(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir)
	require.NoError(t, err)

	for _, name := range []string{"users.json", "tasks.json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.JSONEq(t, "[]", string(data))
	}
}

func TestOpen_keepsExistingData(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	require.NoError(t, err)
	repo := NewUserRepository(db)
	_, err = repo.CreateUser(user.User{ID: "stud01", Email: "stud01@kazi.cd"})
	require.NoError(t, err)

	// reopening must not reseed
	db, err = Open(dir)
	require.NoError(t, err)
	users, err := NewUserRepository(db).QueryAllUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "stud01", users[0].ID)
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	usr := user.User{
		ID:        "stud01",
		Name:      "Hello Girl",
		Email:     "stud01@kazi.cd",
		IsActive:  true,
		Roles:     []string{user.RoleStudent},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, usr.SetPassword("Sekrit123!"))

	_, err := repo.CreateUser(usr)
	require.NoError(t, err)

	t.Run("uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrIDExists, repo.CheckUniqueness("stud01", "other@kazi.cd"))
		assert.Equal(t, user.ErrEmailExists, repo.CheckUniqueness("other", "stud01@kazi.cd"))
		assert.NoError(t, repo.CheckUniqueness("other", "other@kazi.cd"))
		assert.NoError(t, repo.CheckUniqueness("stud01", "stud01@kazi.cd", usr)) // excluded
		assert.NoError(t, repo.CheckUniqueness("", "other@kazi.cd"))             // id skipped
	})

	t.Run("lookups", func(t *testing.T) {
		got, err := repo.GetUserByID("stud01")
		require.NoError(t, err)
		assert.Equal(t, usr.Email, got.Email)
		assert.NoError(t, got.CheckPassword("Sekrit123!")) // hash survives the round trip

		got, err = repo.GetUserByEmail("stud01@kazi.cd")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, got.ID)

		_, err = repo.GetUserByIDOrEmail("stud01")
		assert.NoError(t, err)
		_, err = repo.GetUserByIDOrEmail("stud01@kazi.cd")
		assert.NoError(t, err)

		_, err = repo.GetUserByID("nope")
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.GetUserByEmail("nope@kazi.cd")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("update merges set fields", func(t *testing.T) {
		isActive := false
		got, err := repo.UpdateUser(user.User{ID: "stud01", Name: "Hella Gurl"}, &isActive)
		require.NoError(t, err)
		assert.Equal(t, "Hella Gurl", got.Name)
		assert.Equal(t, usr.Email, got.Email) // untouched
		assert.False(t, got.IsActive)
		assert.NoError(t, got.CheckPassword("Sekrit123!"))

		_, err = repo.UpdateUser(user.User{ID: "nope"}, nil)
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteUsersByID("stud01", "nope"))
		_, err := repo.GetUserByID("stud01")
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestTaskRepository(t *testing.T) {
	repo := NewTaskRepository(openTestDB(t))

	due := time.Now().Add(24 * time.Hour).UTC()
	tsk1, err := repo.CreateTask(task.Task{Title: "Essay", Subject: "History", DueAt: due, AssignedIDs: []string{"stud01"}})
	require.NoError(t, err)
	tsk2, err := repo.CreateTask(task.Task{Title: "Lab report", Subject: "Chemistry", DueAt: due})
	require.NoError(t, err)

	t.Run("sequential IDs", func(t *testing.T) {
		assert.Equal(t, "TASK001", tsk1.ID)
		assert.Equal(t, "TASK002", tsk2.ID)

		require.NoError(t, repo.DeleteTasksByID(tsk2.ID))
		tsk3, err := repo.CreateTask(task.Task{Title: "Quiz prep", Subject: "Math", DueAt: due})
		require.NoError(t, err)
		assert.Equal(t, "TASK002", tsk3.ID) // highest remaining is TASK001
	})

	t.Run("queries", func(t *testing.T) {
		all, err := repo.QueryAllTasks()
		require.NoError(t, err)
		assert.Len(t, all, 2)

		mine, err := repo.QueryTasksByAssignee("stud01")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, tsk1.ID, mine[0].ID)

		got, err := repo.GetTaskByID(tsk1.ID)
		require.NoError(t, err)
		assert.Equal(t, "Essay", got.Title)

		_, err = repo.GetTaskByID("TASK999")
		assert.Equal(t, task.ErrNotFound, err)
	})

	t.Run("update replaces but keeps creation time", func(t *testing.T) {
		upd := tsk1
		upd.Title = "Essay v2"
		upd.AssignedIDs = []string{"stud02"}
		got, err := repo.UpdateTask(upd)
		require.NoError(t, err)
		assert.Equal(t, "Essay v2", got.Title)
		assert.Equal(t, []string{"stud02"}, got.AssignedIDs)
		assert.Equal(t, tsk1.CreatedAt, got.CreatedAt)

		_, err = repo.UpdateTask(task.Task{ID: "TASK999"})
		assert.Equal(t, task.ErrNotFound, err)
	})
}

func TestStoreUnavailable(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	repo := NewUserRepository(db)

	require.NoError(t, os.Remove(filepath.Join(dir, "users.json")))

	_, err = repo.QueryAllUsers()
	require.Error(t, err)
	assert.Equal(t, core.ErrStoreUnavailable, errors.Cause(err))
}
