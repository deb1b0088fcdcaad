// Package session carries the signed-in user's identity through the service.
// A Session is created at sign-in and passed explicitly to every operation
// that needs the caller's identity; there is no ambient global user state.
package session

import "messenger-service/internal/identity"

// Session identifies the signed-in user for the duration of a request.
type Session struct {
	Email             string
	SafeEmail         string
	DisplayName       string
	ProfilePictureURL string
}

// New builds a session from the signed-in user's email and display name.
func New(email, displayName string) Session {
	return Session{
		Email:       email,
		SafeEmail:   identity.Normalize(email),
		DisplayName: displayName,
	}
}
