package user

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
)

type fakeRepo struct {
	mu    sync.Mutex
	table map[string]*User
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{table: make(map[string]*User)}
}

func (repo *fakeRepo) CheckUniqueness(id, email string, excludedUsers ...User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, usr := range repo.table {
		if isExcluded(*usr, excludedUsers) {
			continue
		}
		if id != "" && usr.ID == id {
			return ErrIDExists
		}
		if usr.Email == email {
			return ErrEmailExists
		}
	}
	return nil
}

func (repo *fakeRepo) CreateUser(usr User) (User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.table[usr.ID] = &usr
	return usr, nil
}

func (repo *fakeRepo) QueryAllUsers() ([]User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	users := make([]User, 0, len(repo.table))
	for _, usr := range repo.table {
		users = append(users, *usr)
	}
	return users, nil
}

func (repo *fakeRepo) GetUserByID(id string) (User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if usr, ok := repo.table[id]; ok {
		return *usr, nil
	}
	return User{}, ErrNotFound
}

func (repo *fakeRepo) GetUserByEmail(email string) (User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, usr := range repo.table {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (repo *fakeRepo) GetUserByIDOrEmail(handle string) (User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, usr := range repo.table {
		if usr.ID == handle || usr.Email == handle {
			return *usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (repo *fakeRepo) UpdateUser(usr User, isActive *bool) (User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	origUsr, ok := repo.table[usr.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	if usr.Roles != nil {
		origUsr.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		origUsr.IsActive = *isActive
	}
	if usr.Name != "" {
		origUsr.Name = usr.Name
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	if !usr.LastLogin.IsZero() {
		origUsr.LastLogin = usr.LastLogin
	}
	origUsr.UpdatedAt = usr.UpdatedAt
	return *origUsr, nil
}

func (repo *fakeRepo) DeleteUsersByID(ids ...string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, id := range ids {
		delete(repo.table, id)
	}
	return nil
}

func isExcluded(usr User, excludedUsers []User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}

// mailRecorder is a synchronous core.EmailService capturing outgoing messages.
type mailRecorder struct {
	sent []*core.EmailMessage
}

var _ core.EmailService = (*mailRecorder)(nil)

func (m *mailRecorder) SendMessage(msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		_ = m.SendMessage(msg)
	}
}

var codeRegex = regexp.MustCompile(`\d{6}`)

func setupSvc(t *testing.T) (Service, *fakeRepo, *mailRecorder, *RecoveryCodeStore) {
	t.Helper()
	if core.Conf == nil {
		core.NewConfig()
	}
	repo := newFakeRepo()
	mailSvc := new(mailRecorder)
	codes := NewRecoveryCodeStore(15 * time.Minute)
	return NewService(repo, mailSvc, codes), repo, mailSvc, codes
}

func createUser(t *testing.T, svc Service, id, name, email, pwd string, roles []string) User {
	t.Helper()
	usr, err := svc.Create(NewUser{
		ID:              id,
		Name:            name,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Roles:           roles,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func Test_service_Create(t *testing.T) {
	svc, _, _, _ := setupSvc(t)

	usr := createUser(t, svc, "201912345", "Awe Test", "awe@test.cd", "s3cret!pwd", []string{RoleStudent})
	if usr.ID != "201912345" {
		t.Errorf("Create() ID = %q, want %q", usr.ID, "201912345")
	}
	if !usr.IsActive {
		t.Error("Create() user should be active")
	}
	if err := usr.CheckPassword("s3cret!pwd"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
	if err := usr.CheckPassword("nope"); err == nil {
		t.Error("CheckPassword() accepted a wrong password")
	}

	if err := svc.CheckUniqueness("201912345", "other@test.cd"); err == nil {
		t.Error("CheckUniqueness() accepted a duplicate ID")
	} else if vErr, ok := errors.Cause(err).(*core.ValidationError); !ok {
		t.Errorf("CheckUniqueness() error = %T, want *core.ValidationError", err)
	} else if vErr.Fields[0].Field != "id" {
		t.Errorf("CheckUniqueness() field = %q, want %q", vErr.Fields[0].Field, "id")
	}
}

func Test_service_RequestPasswordReset(t *testing.T) {
	svc, _, mailSvc, codes := setupSvc(t)
	usr := createUser(t, svc, "201912345", "Awe Test", "awe@test.cd", "s3cret!pwd", nil)

	if err := svc.RequestPasswordReset("lost@test.cd"); err != ErrNotFound {
		t.Errorf("RequestPasswordReset() error = %v, want %v", err, ErrNotFound)
	}
	if len(mailSvc.sent) != 0 {
		t.Fatalf("unexpected mail sent: %d", len(mailSvc.sent))
	}

	if err := svc.RequestPasswordReset(usr.Email); err != nil {
		t.Fatalf("RequestPasswordReset() failed: %v", err)
	}
	if len(mailSvc.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(mailSvc.sent))
	}
	msg := mailSvc.sent[0]
	if msg.To[0].Address != usr.Email {
		t.Errorf("To = %q, want %q", msg.To[0].Address, usr.Email)
	}
	code := codeRegex.FindString(msg.TextContent)
	if code == "" {
		t.Fatalf("no recovery code in message: %q", msg.TextContent)
	}
	if err := codes.Verify(usr.Email, code); err != nil {
		t.Errorf("Verify(mailed code) error = %v, want nil", err)
	}
}

func Test_service_ResetPassword(t *testing.T) {
	svc, _, mailSvc, _ := setupSvc(t)
	usr := createUser(t, svc, "201912345", "Awe Test", "awe@test.cd", "s3cret!pwd", nil)

	if err := svc.RequestPasswordReset(usr.Email); err != nil {
		t.Fatalf("RequestPasswordReset() failed: %v", err)
	}
	code := codeRegex.FindString(mailSvc.sent[0].TextContent)

	if err := svc.ResetPassword(ResetUserPassword{Email: usr.Email, Code: "000000", Password: "newPass1!", PasswordConfirm: "newPass1!"}); err != ErrCodeMismatch {
		t.Errorf("ResetPassword() error = %v, want %v", err, ErrCodeMismatch)
	}

	// verify first does not burn the code
	if err := svc.VerifyPasswordReset(VerifyPasswordReset{Email: usr.Email, Code: code}); err != nil {
		t.Fatalf("VerifyPasswordReset() failed: %v", err)
	}

	if err := svc.ResetPassword(ResetUserPassword{Email: usr.Email, Code: code, Password: "newPass1!", PasswordConfirm: "newPass1!"}); err != nil {
		t.Fatalf("ResetPassword() failed: %v", err)
	}

	refreshed, err := svc.GetByID(usr.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if err := refreshed.CheckPassword("newPass1!"); err != nil {
		t.Errorf("new password not saved: %v", err)
	}
	if err := refreshed.CheckPassword("s3cret!pwd"); err == nil {
		t.Error("old password still accepted")
	}

	// the code is consumed; a replay finds no entry
	if err := svc.ResetPassword(ResetUserPassword{Email: usr.Email, Code: code, Password: "other1Pass!", PasswordConfirm: "other1Pass!"}); err != ErrNoActiveCode {
		t.Errorf("ResetPassword() replay error = %v, want %v", err, ErrNoActiveCode)
	}
}
