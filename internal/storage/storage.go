package storage

import (
	"context"

	"araswap/internal/model"
)

// Journal is a sink for operation records.
type Journal interface {
	Append(ctx context.Context, records []model.OperationRecord) error
}

// SnapshotStore persists the latest pool state.
type SnapshotStore interface {
	Load(ctx context.Context) (model.StateRecord, bool, error)
	Save(ctx context.Context, record model.StateRecord) error
}
