package controllers

import (
	"notable/notable/session"
	"notable/notable/sources"
	"notable/notable/utils/apperrors"
)

type UserController struct{}

func NewUserController() *UserController {
	return &UserController{}
}

// Me returns the signed-in user of sc.
func (c *UserController) Me(sc *session.Context) (*sources.User, error) {
	if !sc.SignedIn() {
		return nil, apperrors.Auth("controllers.Me", "User not authenticated")
	}
	u := sc.Session.User
	return &u, nil
}
