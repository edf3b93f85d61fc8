package ports

import (
	"context"

	"github.com/ewilliams-labs/songswap/internal/core/domain"
)

// SnapshotRepository persists one economy snapshot per identity under a
// single canonical key. Load returns domain.ErrNotFound for an identity that
// has never been saved; Save failures wrap domain.ErrStorage.
type SnapshotRepository interface {
	Load(ctx context.Context, identityID string) (domain.Snapshot, error)
	Save(ctx context.Context, identityID string, snap domain.Snapshot) error
}
