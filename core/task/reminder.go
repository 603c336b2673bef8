package task

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/user"
)

const dueAtFormat = "Monday, 02 January 2006 at 15:04"

// SweepResult reports the outcome of one reminder sweep.
type SweepResult struct {
	TasksMatched int `json:"tasks_matched"`
	Sent         int `json:"sent"`
	Failed       int `json:"failed"`
}

// Reminder scans tasks due on the following calendar day and mails one
// notification per assigned user per matching task.
type Reminder struct {
	tasks   Repository
	users   user.Repository
	mailSvc core.EmailService
	logger  core.Logger
}

func NewReminder(tasks Repository, users user.Repository, mailSvc core.EmailService, logger core.Logger) *Reminder {
	return &Reminder{
		tasks:   tasks,
		users:   users,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// RunSweep selects tasks whose due timestamp falls within the calendar day
// following now (local time, half-open: [tomorrowStart, tomorrowStart+1d))
// and dispatches reminders in task order, then assigned-user order.
// A store failure aborts the sweep; individual delivery failures are logged,
// counted and skipped.
func (r *Reminder) RunSweep(now time.Time) (SweepResult, error) {
	var res SweepResult

	tomorrowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	dayAfterStart := tomorrowStart.AddDate(0, 0, 1)

	tasks, err := r.tasks.QueryAllTasks()
	if err != nil {
		return res, errors.Wrap(err, "loading tasks")
	}
	users, err := r.users.QueryAllUsers()
	if err != nil {
		return res, errors.Wrap(err, "loading users")
	}
	usersByID := make(map[string]user.User, len(users))
	for _, usr := range users {
		usersByID[usr.ID] = usr
	}

	for _, tsk := range tasks {
		if tsk.DueAt.Before(tomorrowStart) || !tsk.DueAt.Before(dayAfterStart) {
			continue
		}
		res.TasksMatched++

		for _, userID := range tsk.AssignedIDs {
			usr, ok := usersByID[userID]
			if !ok {
				continue // stale reference, skip silently
			}
			if err := r.mailSvc.SendMessage(r.reminderMail(tsk, usr)); err != nil {
				r.logger.Error(fmt.Sprintf("sending reminder for task %s to %s: %v", tsk.ID, usr.Email, err), err)
				res.Failed++
				continue
			}
			res.Sent++
		}
	}
	return res, nil
}

func (r *Reminder) reminderMail(tsk Task, usr user.User) *core.EmailMessage {
	data := struct {
		Task  Task
		User  user.User
		DueAt string
	}{tsk, usr, tsk.DueAt.Format(dueAtFormat)}

	return &core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: fmt.Sprintf("Reminder: %q is due tomorrow", tsk.Title),
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYour task %q (%s) is due tomorrow, on %s.\n\nDo not forget to hand it in on time.",
			usr.Name, tsk.Title, tsk.Subject, data.DueAt,
		),
		TemplateName: "task-reminder",
		TemplateData: data,
	}
}
