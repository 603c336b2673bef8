package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trezcool/kazi/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	Phone        string         `db:"phone"`
	Sex          string         `db:"sex"`
	Major        string         `db:"major"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (row userRow) toUser() user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Phone:        row.Phone,
		Sex:          row.Sex,
		Major:        row.Major,
		IsActive:     row.IsActive,
		Roles:        row.Roles,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUniqueness(id, email string, excludedUsers ...user.User) error {
	excludedIDs := pq.StringArray{}
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	var clashID, clashEmail string
	err := repo.db.QueryRow(
		`SELECT id, email FROM app_user WHERE (id = $1 OR email = $2) AND NOT (id = ANY($3)) LIMIT 1`,
		id, email, excludedIDs,
	).Scan(&clashID, &clashEmail)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return wrapErr(err, "checking uniqueness")
	}
	if id != "" && clashID == id {
		return user.ErrIDExists
	}
	return user.ErrEmailExists
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	_, err := repo.db.Exec(
		`INSERT INTO app_user (id, name, email, phone, sex, major, is_active, roles, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		usr.ID, usr.Name, usr.Email, usr.Phone, usr.Sex, usr.Major, usr.IsActive,
		pq.StringArray(usr.Roles), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, wrapErr(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, `SELECT * FROM app_user ORDER BY created_at`); err != nil {
		return nil, wrapErr(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getUser(`SELECT * FROM app_user WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(`SELECT * FROM app_user WHERE email = $1`, email)
}

func (repo *userRepository) GetUserByIDOrEmail(handle string) (user.User, error) {
	return repo.getUser(`SELECT * FROM app_user WHERE id = $1 OR email = $1`, handle)
}

func (repo *userRepository) getUser(query string, arg interface{}) (user.User, error) {
	var row userRow
	err := repo.db.Get(&row, query, arg)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, wrapErr(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	// only save set fields
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 9)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.Phone != "" {
		set("phone", usr.Phone)
	}
	if usr.Sex != "" {
		set("sex", usr.Sex)
	}
	if usr.Major != "" {
		set("major", usr.Major)
	}
	if usr.Roles != nil {
		set("roles", pq.StringArray(usr.Roles))
	}
	if usr.PasswordHash != nil {
		set("password_hash", usr.PasswordHash)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin)
	}
	if !usr.UpdatedAt.IsZero() {
		set("updated_at", usr.UpdatedAt)
	}
	if len(sets) == 0 {
		return repo.GetUserByID(usr.ID)
	}

	args = append(args, usr.ID)
	query := fmt.Sprintf(
		`UPDATE app_user SET %s WHERE id = $%d RETURNING *`,
		strings.Join(sets, ", "), len(args),
	)

	var row userRow
	err := repo.db.Get(&row, query, args...)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, wrapErr(err, "updating user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	if _, err := repo.db.Exec(`DELETE FROM app_user WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return wrapErr(err, "deleting users")
	}
	return nil
}
