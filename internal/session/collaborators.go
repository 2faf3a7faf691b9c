package session

import (
	"context"

	"github.com/yndnr/tokgate/internal/core/domain"
)

// Navigator receives the "go to this path" signal raised on logout.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

// Persister stores the session between process runs.
//
// Load returns (nil, nil) when nothing has been stored.
type Persister interface {
	Load(ctx context.Context) (*domain.PersistedSession, error)
	Save(ctx context.Context, s *domain.PersistedSession) error
	Clear(ctx context.Context) error
}
