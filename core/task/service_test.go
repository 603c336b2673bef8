package task

import (
	"testing"
	"time"
)

func createTask(t *testing.T, svc Service, title, subject string, due time.Time, assigned ...string) Task {
	t.Helper()
	tsk, err := svc.Create(NewTask{Title: title, Subject: subject, DueAt: due, AssignedIDs: assigned})
	if err != nil {
		t.Fatalf("createTask() failed: %v", err)
	}
	return tsk
}

func Test_service_Create(t *testing.T) {
	svc := NewService(new(fakeTaskRepo))

	due := time.Now().Add(48 * time.Hour)
	tsk1 := createTask(t, svc, "Essay", "History", due, "u1")
	tsk2 := createTask(t, svc, "Lab report", "Chemistry", due)

	// IDs are assigned sequentially
	if tsk1.ID != "TASK001" || tsk2.ID != "TASK002" {
		t.Errorf("IDs = %q, %q; want TASK001, TASK002", tsk1.ID, tsk2.ID)
	}
}

func Test_service_Update(t *testing.T) {
	svc := NewService(new(fakeTaskRepo))

	due := mustParse(t, "2025-03-15T09:00")
	tsk := createTask(t, svc, "Essay", "History", due, "u1")

	// partial update: only the title changes
	updated, err := svc.Update(tsk.ID, UpdateTask{Title: "Final essay"})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Title != "Final essay" {
		t.Errorf("Title = %q, want %q", updated.Title, "Final essay")
	}
	if updated.Subject != "History" || !updated.DueAt.Equal(due) || len(updated.AssignedIDs) != 1 {
		t.Errorf("unchanged fields were modified: %+v", updated)
	}

	// due date and assignees replacement
	newDue := mustParse(t, "2025-03-20T17:00")
	updated, err = svc.Update(tsk.ID, UpdateTask{DueAt: &newDue, AssignedIDs: []string{"u2", "u3"}})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if !updated.DueAt.Equal(newDue) || len(updated.AssignedIDs) != 2 {
		t.Errorf("Update() = %+v", updated)
	}

	if _, err := svc.Update("TASK999", UpdateTask{Title: "lol"}); err != ErrNotFound {
		t.Errorf("Update() error = %v, want %v", err, ErrNotFound)
	}
}

func Test_service_QueryByAssignee(t *testing.T) {
	svc := NewService(new(fakeTaskRepo))

	due := time.Now().Add(48 * time.Hour)
	tsk1 := createTask(t, svc, "Essay", "History", due, "u1", "u2")
	createTask(t, svc, "Lab report", "Chemistry", due, "u2")
	tsk3 := createTask(t, svc, "Problem set", "Maths", due, "u1")

	tasks, err := svc.QueryByAssignee("u1")
	if err != nil {
		t.Fatalf("QueryByAssignee() failed: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != tsk1.ID || tasks[1].ID != tsk3.ID {
		t.Errorf("QueryByAssignee() = %+v", tasks)
	}

	tasks, err = svc.QueryByAssignee("nobody")
	if err != nil {
		t.Fatalf("QueryByAssignee() failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("QueryByAssignee() = %+v, want none", tasks)
	}
}

func Test_service_Delete(t *testing.T) {
	svc := NewService(new(fakeTaskRepo))

	due := time.Now().Add(48 * time.Hour)
	tsk := createTask(t, svc, "Essay", "History", due)

	if err := svc.Delete(tsk.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := svc.GetByID(tsk.ID); err != ErrNotFound {
		t.Errorf("GetByID() error = %v, want %v", err, ErrNotFound)
	}
}
