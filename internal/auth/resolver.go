package auth

import "context"

var _ Resolver = (*Service)(nil)

// Resolver resolves a session cookie token to the session it denotes.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Session, error)
}
