package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles carried by portal tokens.
type UserRole string

const (
	RoleFaculty UserRole = "FACULTY"
	RoleStudent UserRole = "STUDENT"
	RoleAdmin   UserRole = "ADMIN"
)

// JWTClaims represents the payload of portal access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Session is the caller credential forwarded to every store call. The review
// engine passes it through untouched.
//
// The Postgres stores scope every query by Email through faculty_courses.
// Token is the raw bearer token, kept for collaborators that authenticate
// with it; none of the current stores do.
type Session struct {
	Subject string
	Email   string
	Name    string
	Token   string
}

// SessionFromClaims builds a Session from validated token claims.
func SessionFromClaims(claims *JWTClaims, token string) Session {
	if claims == nil {
		return Session{Token: token}
	}
	return Session{
		Subject: claims.UserID,
		Email:   claims.Email,
		Name:    claims.FullName,
		Token:   token,
	}
}
