package forms

import (
	"context"
	"net/url"
)

type UsernameChecker interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type SignupForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`

	Errors Errors `form:"-" validate:"-"`
}

func ParseSignupForm(v url.Values) *SignupForm {
	return &SignupForm{
		Username:  field(v, "username"),
		Password1: v.Get("password1"),
		Password2: v.Get("password2"),
		Errors:    Errors{},
	}
}

func (f *SignupForm) Validate(ctx context.Context, users UsernameChecker) (bool, error) {
	f.Errors = Errors{}
	runValidator(f, f.Errors)

	if !f.Errors.Has("username") {
		exists, err := users.UsernameExists(ctx, f.Username)
		if err != nil {
			return false, err
		}
		if exists {
			f.UsernameTaken()
		}
	}
	return f.Errors.Valid(), nil
}

func (f *SignupForm) UsernameTaken() {
	f.Errors.Add("username", "A user with that username already exists.")
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next" validate:"-"`

	Errors Errors `form:"-" validate:"-"`
}

func ParseLoginForm(v url.Values) *LoginForm {
	return &LoginForm{
		Username: field(v, "username"),
		Password: v.Get("password"),
		Next:     v.Get("next"),
		Errors:   Errors{},
	}
}

func (f *LoginForm) Validate() bool {
	f.Errors = Errors{}
	runValidator(f, f.Errors)
	return f.Errors.Valid()
}

// InvalidCredentials records a failed login without saying which part was wrong.
func (f *LoginForm) InvalidCredentials() {
	f.Errors.Add(NonFieldErrors, "Please enter a correct username and password. Note that both fields may be case-sensitive.")
}
