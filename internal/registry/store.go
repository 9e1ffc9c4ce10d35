package registry

import (
	"context"
	"errors"
	"time"

	"github.com/petra-dev/upwatch/internal/checker"
)

// ErrNotFound is returned when a service ID does not exist in the store.
var ErrNotFound = errors.New("service not found")

// ErrDuplicateURL is returned when registering a URL that is already
// registered.
var ErrDuplicateURL = errors.New("service URL already registered")

// Store persists the service list. Status updates go through SetStatus so
// the scheduler and handlers never rewrite a whole record.
type Store interface {
	Add(ctx context.Context, s *Service) error
	List(ctx context.Context) ([]Service, error)
	Get(ctx context.Context, id string) (*Service, error)
	GetByURL(ctx context.Context, url string) (*Service, error)
	Remove(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status checker.Status, checkedAt time.Time) error
}
