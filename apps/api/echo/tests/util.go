package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/kazi/apps/api/echo"
	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/task"
	"github.com/trezcool/kazi/core/user"
	emailsvc "github.com/trezcool/kazi/services/email"
	"github.com/trezcool/kazi/storage/jsonfile"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testDeps struct {
	app      Server
	usrRepo  user.Repository
	tskRepo  task.Repository
	usrSvc   user.Service
	tskSvc   task.Service
	codes    *user.RecoveryCodeStore
	reminder *task.Reminder
}

func setup(t *testing.T) testDeps {
	t.Helper()

	if core.Conf == nil {
		core.NewConfig()
	}
	core.Conf.Debug = false
	core.Conf.TestMode = true

	// set up store & repos
	db, err := jsonfile.Open(t.TempDir())
	if err != nil {
		t.Fatalf("jsonfile.Open(): %v", err)
	}
	usrRepo := jsonfile.NewUserRepository(db)
	tskRepo := jsonfile.NewTaskRepository(db)

	// set up services
	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock()
	codes := user.NewRecoveryCodeStore(core.Conf.PasswordResetTimeout)
	usrSvc := user.NewService(usrRepo, mailSvc, codes)
	tskSvc := task.NewService(tskRepo)
	logger := testLogger{}
	reminder := task.NewReminder(tskRepo, usrRepo, mailSvc, logger)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up server
	app := NewServer(
		ServerDeps{
			Logger:     logger,
			UserSvc:    usrSvc,
			TaskSvc:    tskSvc,
			Reminder:   reminder,
			Validate:   validate,
			Translator: translator,
		},
	)

	return testDeps{
		app:      app,
		usrRepo:  usrRepo,
		tskRepo:  tskRepo,
		usrSvc:   usrSvc,
		tskSvc:   tskSvc,
		codes:    codes,
		reminder: reminder,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

func createUser(
	t *testing.T,
	repo user.Repository,
	id, name, email, pwd string,
	roles []string,
	isActive bool,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	usr := user.User{
		ID:        id,
		Name:      name,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser(): %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	return usr
}

func createTask(
	t *testing.T,
	repo task.Repository,
	title, subject string,
	dueAt time.Time,
	assignedIDs ...string,
) task.Task {
	t.Helper()

	tstamp := time.Now().UTC()
	tsk, err := repo.CreateTask(task.Task{
		Title:       title,
		Subject:     subject,
		DueAt:       dueAt,
		AssignedIDs: assignedIDs,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("createTask(): %v", err)
	}
	return tsk
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
