// Package secrets abstracts the secret store holding the registry CA
// signing key.
package secrets

import "context"

// Source fetches secret payloads by identifier (an ARN for the AWS
// implementation).
type Source interface {
	// Fetch returns the secret string payload for id.
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Static is an in-memory Source for tests.
type Static map[string]string

// Fetch implements Source.
func (s Static) Fetch(_ context.Context, id string) ([]byte, error) {
	v, ok := s[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return []byte(v), nil
}

// NotFoundError is returned when a secret id is unknown.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "secret not found: " + e.ID
}
