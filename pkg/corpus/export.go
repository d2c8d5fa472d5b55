package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/natefinch/atomic"
)

// Export is the serializable form of a set of messages, used for backups and
// for moving a corpus between instances.
type Export struct {
	Query    Query     `json:"query"`
	Messages []Message `json:"messages"`
}

// Export writes every message matching q to w as indented JSON.
func (s *Store) Export(ctx context.Context, q Query, w io.Writer) error {
	messages, err := s.Messages(ctx, q)
	if err != nil {
		return err
	}
	if messages == nil {
		messages = []Message{}
	}

	s.logger.InfoContext(ctx, "Messages exported",
		slog.String("guild_id", q.GuildID),
		slog.String("user_id", q.UserID),
		slog.Int("messages_exported", len(messages)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Export{Query: q, Messages: messages})
}

// ExportFile writes an export to filename. The file is replaced atomically so
// a crash never leaves a truncated backup behind.
func (s *Store) ExportFile(ctx context.Context, q Query, filename string) error {
	var buf bytes.Buffer
	if err := s.Export(ctx, q, &buf); err != nil {
		return err
	}
	if err := atomic.WriteFile(filename, &buf); err != nil {
		return fmt.Errorf("could not write export: %w", err)
	}
	return nil
}

// Import reads an export from r and merges it into the store. Messages that
// are already stored are left untouched. It returns the number of new messages.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	var imported Export
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return 0, fmt.Errorf("failed to decode json export: %w", err)
	}

	n, err := s.Insert(ctx, imported.Messages)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Messages imported",
		slog.Int("messages_received", len(imported.Messages)),
		slog.Int("messages_merged", n),
	)
	return n, nil
}
