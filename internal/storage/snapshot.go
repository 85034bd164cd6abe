package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"araswap/internal/model"
)

// SnapshotFile stores the pool state in a local JSON file.
type SnapshotFile struct {
	Path string
}

func (s *SnapshotFile) Load(_ context.Context) (model.StateRecord, bool, error) {
	if s == nil || s.Path == "" {
		return model.StateRecord{}, false, nil
	}

	stat, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.StateRecord{}, false, nil
		}
		return model.StateRecord{}, false, fmt.Errorf("stat snapshot: %w", err)
	}
	if stat.IsDir() {
		return model.StateRecord{}, false, fmt.Errorf("snapshot path is a directory")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return model.StateRecord{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var rec model.StateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.StateRecord{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return rec, true, nil
}

func (s *SnapshotFile) Save(_ context.Context, record model.StateRecord) error {
	if s == nil || s.Path == "" {
		return nil
	}

	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	if record.UpdatedAt == "" {
		record.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}
