package sdk

import (
	"net/http"
)

// Header names the world API expects credentials in
const (
	HeaderAPIKey = "API-Key"
	HeaderAPIPin = "API-Pin"
)

// Authenticator supplies credentials for every request. The client treats
// IsAuthenticated() == false as a failed precondition for all operations.
type Authenticator interface {
	IsAuthenticated() bool
	// World returns the identifier of the world the credentials belong to.
	World() string
	// Headers returns the credential headers to attach to a request.
	Headers() http.Header
}

// KeyAuth authenticates with an API key and PIN. The key also identifies
// the world.
type KeyAuth struct {
	Key string
	Pin string
}

func (a KeyAuth) IsAuthenticated() bool {
	return a.Key != "" && a.Pin != ""
}

func (a KeyAuth) World() string {
	return a.Key
}

func (a KeyAuth) Headers() http.Header {
	h := make(http.Header)
	h.Set(HeaderAPIKey, a.Key)
	h.Set(HeaderAPIPin, a.Pin)
	return h
}
