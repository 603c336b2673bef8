package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/task"
	"github.com/trezcool/kazi/core/user"
	emailsvc "github.com/trezcool/kazi/services/email"
	"github.com/trezcool/kazi/storage/jsonfile"
)

var (
	usrRepo user.Repository
	tskRepo task.Repository
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	if core.Conf == nil {
		core.NewConfig()
	}
	core.Conf.TestMode = true

	// set up store & repos
	db, err := jsonfile.Open(t.TempDir())
	if err != nil {
		t.Fatalf("jsonfile.Open(): %v", err)
	}
	usrRepo = jsonfile.NewUserRepository(db)
	tskRepo = jsonfile.NewTaskRepository(db)

	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock()

	// start CLI
	return &commandLine{
		usrRepo:  usrRepo,
		reminder: task.NewReminder(tskRepo, usrRepo, mailSvc, noopLogger{}),
	}
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...interface{}) {}
func (noopLogger) Info(msg string, args ...interface{})  {}
func (noopLogger) Warn(msg string, args ...interface{})  {}
func (noopLogger) Error(msg string, args ...interface{}) {}
func (noopLogger) Fatal(msg string, args ...interface{}) {}

func createUser(t *testing.T, id, name, email, pwd string, roles []string) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		ID:        id,
		Name:      name,
		Email:     email,
		Roles:     roles,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser(): %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(usr)
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	return usr
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	extra   interface{}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := createUser(t, "awe", "User", "awe@test.cd", "mdr", nil)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with id", args: []string{"resetpassword", "-username", usr.ID}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("LolC@t123"), nil }

	t.Run("creates admin", func(t *testing.T) {
		if err := cli.run([]string{"admin", "adduser", "-id", "boss", "-email", "boss@test.cd", "-name", "Boss", "-admin"}); err != nil {
			t.Fatalf("cli.run(): %v", err)
		}
		usr, err := usrRepo.GetUserByID("boss")
		if err != nil {
			t.Fatalf("GetUserByID(): %v", err)
		}
		if !usr.IsAdmin() {
			t.Errorf("failed! roles = %v; want admin", usr.Roles)
		}
		if !usr.IsActive {
			t.Error("failed! user not active")
		}
		if usr.CheckPassword("LolC@t123") != nil {
			t.Error("failed! password not set")
		}
	})

	t.Run("updates existing user", func(t *testing.T) {
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte("NewC@t123"), nil }
		if err := cli.run([]string{"admin", "adduser", "-id", "boss", "-email", "boss@test.cd", "-name", "Big Boss"}); err != nil {
			t.Fatalf("cli.run(): %v", err)
		}
		usr, err := usrRepo.GetUserByID("boss")
		if err != nil {
			t.Fatalf("GetUserByID(): %v", err)
		}
		if usr.Name != "Big Boss" {
			t.Errorf("failed! name = %q; want %q", usr.Name, "Big Boss")
		}
		if usr.CheckPassword("NewC@t123") != nil {
			t.Error("failed! password not updated")
		}

		users, err := usrRepo.QueryAllUsers()
		if err != nil {
			t.Fatalf("QueryAllUsers(): %v", err)
		}
		if len(users) != 1 {
			t.Errorf("failed! len(users) = %d; want 1", len(users))
		}
	})

	t.Run("missing id or email", func(t *testing.T) {
		if err := cli.run([]string{"admin", "adduser", "-name", "Nameless"}); err != errHelp {
			t.Errorf("cli.run() error = %v, wantErr %v", err, errHelp)
		}
	})
}

func Test_commandLine_remind(t *testing.T) {
	cli := setup(t)

	student := createUser(t, "stud01", "Hero", "hero@test.cd", "", []string{user.RoleStudent})

	now := time.Now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	if _, err := tskRepo.CreateTask(task.Task{Title: "Essay", Subject: "History", DueAt: tomorrow, AssignedIDs: []string{student.ID}}); err != nil {
		t.Fatalf("CreateTask(): %v", err)
	}
	if _, err := tskRepo.CreateTask(task.Task{Title: "Later", Subject: "Math", DueAt: tomorrow.AddDate(0, 0, 3)}); err != nil {
		t.Fatalf("CreateTask(): %v", err)
	}

	if err := cli.run([]string{"admin", "remind"}); err != nil {
		t.Fatalf("cli.run(): %v", err)
	}

	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
	if got := emailsvc.SentMessages[0].To[0].Address; got != student.Email {
		t.Errorf("failed! To = %v; want %v", got, student.Email)
	}
}
