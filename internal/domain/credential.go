package domain

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type Credential struct {
	AccessToken  string
	RefreshToken string
}

func (c Credential) Empty() bool {
	return strings.TrimSpace(c.AccessToken) == ""
}

// Claims is the access token payload issued by the gateway.
type Claims struct {
	// StudentID stays nil until the account completes its student profile.
	StudentID *int   `json:"student_id,omitempty"`
	Email     string `json:"email,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	Role      string `json:"role,omitempty"`
	IsStaff   bool   `json:"is_staff,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) Identity() Identity {
	role := RoleStudent
	if c.IsStaff || strings.EqualFold(strings.TrimSpace(c.Role), string(RoleAdmin)) {
		role = RoleAdmin
	}

	return Identity{
		Role:      role,
		StudentID: c.StudentID,
		Email:     c.Email,
		Name:      c.FullName,
	}
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegistrationInput struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
