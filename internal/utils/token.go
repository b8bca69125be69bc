package utils

import "github.com/google/uuid"

// NewPublicViewToken returns the unguessable token embedded in public
// invoice links. UUIDv4 keeps tokens URL-safe without extra encoding.
func NewPublicViewToken() string {
	return uuid.NewString()
}
