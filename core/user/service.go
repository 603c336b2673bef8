package user

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrIDExists    = errors.New("a user with this registration number already exists")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		// CheckUniqueness reports ErrIDExists or ErrEmailExists when a user
		// other than excludedUsers already holds id or email. An empty id
		// skips the id check.
		CheckUniqueness(id, email string, excludedUsers ...User) error
		CreateUser(usr User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		GetUserByIDOrEmail(handle string) (User, error)
		UpdateUser(usr User, isActive *bool) (User, error)
		DeleteUsersByID(ids ...string) error
	}

	Service interface {
		CheckUniqueness(id, email string, exclUsers ...User) error
		Create(nu NewUser) (User, error)
		QueryAll() ([]User, error)
		GetByID(id string) (User, error)
		GetByEmail(email string) (User, error)
		GetByIDOrEmail(handle string) (User, error)
		Update(id string, uu UpdateUser) (User, error)
		Delete(ids ...string) error
		SetLastLogin(usr User) (User, error)
		RequestPasswordReset(email string) error
		VerifyPasswordReset(vp VerifyPasswordReset) error
		ResetPassword(rp ResetUserPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		codes   *RecoveryCodeStore
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, codes *RecoveryCodeStore) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		codes:   codes,
	}
}

func (svc *service) CheckUniqueness(id, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUniqueness(id, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrIDExists:
			field = "id"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:        nu.ID,
		Name:      nu.Name,
		Email:     nu.Email,
		Phone:     nu.Phone,
		Sex:       nu.Sex,
		Major:     nu.Major,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

func (svc *service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(core.CleanString(id, true /* lower */))
}

func (svc *service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *service) GetByIDOrEmail(handle string) (User, error) {
	return svc.repo.GetUserByIDOrEmail(core.CleanString(handle, true /* lower */))
}

func (svc *service) Update(id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Name:      uu.Name,
		Email:     uu.Email,
		Phone:     uu.Phone,
		Sex:       uu.Sex,
		Major:     uu.Major,
		Roles:     uu.Roles,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(usr, uu.IsActive)
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeleteUsersByID(ids...)
}

func (svc *service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}

// RequestPasswordReset issues a fresh recovery code for the account matching
// email and mails it out. The raw code lives only in the in-memory store and
// the outgoing message.
func (svc *service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	code, err := svc.codes.Issue(usr.Email, usr.ID)
	if err != nil {
		return errors.Wrap(err, "issuing recovery code")
	}
	svc.mailSvc.SendMessages(svc.passwordResetMail(usr, code))
	return nil
}

func (svc *service) VerifyPasswordReset(vp VerifyPasswordReset) error {
	return svc.codes.Verify(vp.Email, vp.Code)
}

// ResetPassword re-checks the recovery code, replaces the user's credential
// and consumes the code so it cannot be replayed.
func (svc *service) ResetPassword(rp ResetUserPassword) error {
	if err := svc.codes.Verify(rp.Email, rp.Code); err != nil {
		return err
	}
	usr, err := svc.GetByEmail(rp.Email)
	if err != nil {
		return err
	}
	if err := usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(usr, nil); err != nil {
		return err
	}
	if _, err := svc.codes.Consume(rp.Email, rp.Code); err != nil {
		return err
	}
	return nil
}

func (svc *service) passwordResetMail(usr User, code string) *core.EmailMessage {
	data := struct {
		User    User
		Code    string
		Timeout time.Duration
	}{usr, code, svc.codes.timeout}

	return &core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Password recovery code",
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYour password recovery code is: %s\n\n"+
				"It expires in %d minutes. If you did not request a reset, ignore this message.",
			usr.Name, code, int(svc.codes.timeout.Minutes()),
		),
		TemplateName: "password-recovery-code",
		TemplateData: data,
	}
}
