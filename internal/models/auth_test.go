package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionFromClaims(t *testing.T) {
	claims := &JWTClaims{UserID: "fac-1", Role: RoleFaculty, Email: "ic@example.edu", FullName: "Dr. Rao"}

	session := SessionFromClaims(claims, "raw-token")
	assert.Equal(t, Session{Subject: "fac-1", Email: "ic@example.edu", Name: "Dr. Rao", Token: "raw-token"}, session)

	assert.Equal(t, Session{Token: "raw-token"}, SessionFromClaims(nil, "raw-token"))
}
