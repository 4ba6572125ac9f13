package notify

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"

	"github.com/dtroode/userdir-server/internal/model"
)

// ArchiveSink writes each event as its own JSON object, grouped by UTC day:
// <prefix>/2006-01-02/<uuid>.json.
type ArchiveSink struct {
	storage model.Storage
	prefix  string
}

func NewArchiveSink(storage model.Storage, prefix string) *ArchiveSink {
	return &ArchiveSink{storage: storage, prefix: prefix}
}

func (s *ArchiveSink) Send(ctx context.Context, event model.Event) error {
	body, err := encode(event)
	if err != nil {
		return err
	}

	if err := s.storage.Upload(ctx, s.key(event), bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return fmt.Errorf("failed to archive event: %w", err)
	}
	return nil
}

func (s *ArchiveSink) key(event model.Event) string {
	day := event.Timestamp.UTC().Format("2006-01-02")
	return path.Join(s.prefix, day, uuid.NewString()+".json")
}
