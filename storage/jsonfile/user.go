package jsonfile

import (
	"time"

	"github.com/trezcool/kazi/core/user"
)

// userRecord is the on-disk shape of a user; unlike the API model it carries
// the password hash.
type userRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Sex          string    `json:"sex"`
	Major        string    `json:"major"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLogin    time.Time `json:"last_login"`
}

func newUserRecord(usr user.User) userRecord {
	return userRecord{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		Phone:        usr.Phone,
		Sex:          usr.Sex,
		Major:        usr.Major,
		IsActive:     usr.IsActive,
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    usr.LastLogin,
	}
}

func (rec userRecord) toUser() user.User {
	return user.User{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		Phone:        rec.Phone,
		Sex:          rec.Sex,
		Major:        rec.Major,
		IsActive:     rec.IsActive,
		Roles:        rec.Roles,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
		LastLogin:    rec.LastLogin,
	}
}

type userRepository struct {
	db *collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.users}
}

func (repo *userRepository) CheckUniqueness(id, email string, excludedUsers ...user.User) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if isExcluded(rec.ID, excludedUsers) {
			continue
		}
		if id != "" && rec.ID == id {
			return user.ErrIDExists
		}
		if rec.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return user.User{}, err
	}
	recs = append(recs, newUserRecord(usr))
	if err := repo.db.write(recs); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return user.User{}, err
	}
	for _, rec := range recs {
		if rec.ID == id {
			return rec.toUser(), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return user.User{}, err
	}
	for _, rec := range recs {
		if rec.Email == email {
			return rec.toUser(), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByIDOrEmail(handle string) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return user.User{}, err
	}
	for _, rec := range recs {
		if (rec.ID == handle) || (rec.Email == handle) {
			return rec.toUser(), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	recs, err := repo.readAll()
	if err != nil {
		return user.User{}, err
	}
	for i := range recs {
		if recs[i].ID != usr.ID {
			continue
		}

		// only save set fields
		if usr.Name != "" {
			recs[i].Name = usr.Name
		}
		if usr.Email != "" {
			recs[i].Email = usr.Email
		}
		if usr.Phone != "" {
			recs[i].Phone = usr.Phone
		}
		if usr.Sex != "" {
			recs[i].Sex = usr.Sex
		}
		if usr.Major != "" {
			recs[i].Major = usr.Major
		}
		if usr.Roles != nil {
			recs[i].Roles = usr.Roles
		}
		if usr.PasswordHash != nil {
			recs[i].PasswordHash = usr.PasswordHash
		}
		if isActive != nil {
			recs[i].IsActive = *isActive
		}
		if !usr.LastLogin.IsZero() {
			recs[i].LastLogin = usr.LastLogin
		}
		if !usr.UpdatedAt.IsZero() {
			recs[i].UpdatedAt = usr.UpdatedAt
		}

		if err := repo.db.write(recs); err != nil {
			return user.User{}, err
		}
		return recs[i].toUser(), nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
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
func (repo *userRepository) readAll() ([]userRecord, error) {
	var recs []userRecord
	if err := repo.db.read(&recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func isExcluded(id string, excludedUsers []user.User) bool {
	for _, usr := range excludedUsers {
		if usr.ID == id {
			return true
		}
	}
	return false
}

func contains(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
