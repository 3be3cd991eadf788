package httpapi

import (
	"net/mail"
	"strings"
)

// Shape validation for request bodies. Rules follow the registration and
// login contracts: email required and well-formed, username required,
// lowercase, at least three characters, password required, fullName optional.

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func validateRegister(req *registerRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)
	req.FullName = strings.TrimSpace(req.FullName)

	switch {
	case req.Email == "":
		return validationError("email is required")
	case !validEmail(req.Email):
		return validationError("email is invalid")
	case req.Username == "":
		return validationError("username is required")
	case req.Username != strings.ToLower(req.Username):
		return validationError("username must be in lower case")
	case len(req.Username) < 3:
		return validationError("username must be at least 3 characters")
	case req.Password == "":
		return validationError("password is required")
	}

	if req.Role != "" && req.Role != "user" && req.Role != "admin" {
		return validationError("role is invalid")
	}
	return nil
}

func validateLogin(req *loginRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Password = strings.TrimSpace(req.Password)

	switch {
	case req.Email == "":
		return validationError("email is required")
	case !validEmail(req.Email):
		return validationError("email is invalid")
	case req.Password == "":
		return validationError("password is required")
	}
	return nil
}
