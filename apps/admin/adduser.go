package main

import (
	"time"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(id, name, email, pwd string, isAdmin bool) error {
	id = core.CleanString(id, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUserByIDOrEmail(id)
	if err == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUserByEmail(email)
	}
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			ID:        id,
			Email:     email,
			CreatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		usr.Name = name
		usr.IsActive = true
		usr.UpdatedAt = now
		if isAdmin {
			usr.Roles = user.AllRoles
		} else if usr.Roles == nil {
			usr.Roles = []string{user.RoleStudent}
		}
		_, err = cli.usrRepo.CreateUser(usr)
		return err
	}

	if name != "" {
		usr.Name = name
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = now
	isActive := true
	_, err = cli.usrRepo.UpdateUser(usr, &isActive)
	return err
}
