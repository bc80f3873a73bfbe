package client

import (
	"context"

	"github.com/viant/authclient/client/auth/store"
)

// Interface defines the client interface for all exported methods
type Interface interface {
	// Send sends request as the authenticated user
	Send(ctx context.Context, request *Request) (*Response, error)

	// Login opens a session and stores its credentials
	Login(ctx context.Context, username, password string) (*store.Credentials, error)

	// Register creates an account, opens a session and stores its credentials
	Register(ctx context.Context, username, password string) (*store.Credentials, error)

	// Logout ends the session and clears stored credentials
	Logout(ctx context.Context) error
}
