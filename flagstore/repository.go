package flagstore

import (
	"context"
	"fmt"
)

var (
	ErrRepositoryNotReady = fmt.Errorf("flag repository is not ready")
	ErrNilStore           = fmt.Errorf("flag store cannot be nil")
)

// Repository persists the flag store between runs. Load returns an empty
// store when nothing has been persisted yet; Save replaces whatever was
// persisted before.
type Repository interface {
	Load(ctx context.Context) (*Store, error)
	Save(ctx context.Context, store *Store) error

	IsReady() bool
	Close() error
}
