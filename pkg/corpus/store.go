// Package corpus stores chat messages in SQLite and turns them into the
// sample lists the markov package builds indexes from.
package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"
)

// ErrNotFound is returned when a lookup matches no message.
var ErrNotFound = errors.New("message not found")

// Message is a single stored chat message. IDs are kept as text because
// platform snowflakes overflow some clients' number types.
type Message struct {
	ID        string    `json:"message_id"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"time"`
}

// Query selects messages. GuildID is required; empty UserID or ChannelID match
// every user or channel. Limit caps Samples after shuffling; 0 means no cap.
type Query struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// SetupSchema creates the message table and its indexes. It is idempotent and
// safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const (
		schemaMessages = `
CREATE TABLE IF NOT EXISTS corpus_messages (
    message_id TEXT PRIMARY KEY,
    guild_id TEXT NOT NULL,
    channel_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
`
		indexGuildUser   = `CREATE INDEX IF NOT EXISTS idx_corpus_guild_user ON corpus_messages (guild_id, user_id);`
		indexChannelTime = `CREATE INDEX IF NOT EXISTS idx_corpus_channel_time ON corpus_messages (channel_id, created_at);`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaMessages); err != nil {
		return fmt.Errorf("could not create schema: %w", err)
	}
	if _, err = tx.Exec(indexGuildUser); err != nil {
		return fmt.Errorf("could not create index: %w", err)
	}
	if _, err = tx.Exec(indexChannelTime); err != nil {
		return fmt.Errorf("could not create index: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store holds the database connection and prepared statements for the
// message table.
type Store struct {
	db            *sql.DB
	stmtInsert    *sql.Stmt
	stmtLatest    *sql.Stmt
	stmtCount     *sql.Stmt
	stmtContent   *sql.Stmt
	stmtMessages  *sql.Stmt
	stmtDeleteAll *sql.Stmt
	logger        *slog.Logger
}

// The (? = '' OR col = ?) form lets one prepared statement serve both a single
// user and the whole guild.
const (
	queryInsert  = `INSERT OR IGNORE INTO corpus_messages (message_id, guild_id, channel_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?, ?);`
	queryLatest  = `SELECT message_id, guild_id, channel_id, user_id, content, created_at FROM corpus_messages WHERE channel_id = ? AND (? = '' OR user_id = ?) ORDER BY created_at DESC, message_id DESC LIMIT 1;`
	queryCount   = `SELECT COUNT(*) FROM corpus_messages WHERE guild_id = ? AND (? = '' OR channel_id = ?) AND (? = '' OR user_id = ?);`
	queryContent = `SELECT content FROM corpus_messages WHERE guild_id = ? AND (? = '' OR channel_id = ?) AND (? = '' OR user_id = ?) AND content != '' ORDER BY created_at, message_id;`
	queryAll     = `SELECT message_id, guild_id, channel_id, user_id, content, created_at FROM corpus_messages WHERE guild_id = ? AND (? = '' OR channel_id = ?) AND (? = '' OR user_id = ?) ORDER BY created_at, message_id;`
	queryDelete  = `DELETE FROM corpus_messages WHERE guild_id = ? AND (? = '' OR channel_id = ?) AND (? = '' OR user_id = ?);`
)

// NewStore pre-compiles every statement the Store uses. SetupSchema must have
// been called on db first.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.stmtInsert, queryInsert},
		{&s.stmtLatest, queryLatest},
		{&s.stmtCount, queryCount},
		{&s.stmtContent, queryContent},
		{&s.stmtMessages, queryAll},
		{&s.stmtDeleteAll, queryDelete},
	}
	for _, st := range stmts {
		stmt, err := db.Prepare(st.query)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("could not prepare statement: %w", err)
		}
		*st.dst = stmt
	}
	return s, nil
}

// Close releases all prepared statements. The database itself is left open.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{s.stmtInsert, s.stmtLatest, s.stmtCount, s.stmtContent, s.stmtMessages, s.stmtDeleteAll} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Insert stores messages in a single transaction. Messages whose ID is already
// stored are skipped. It returns the number of messages actually inserted.
func (s *Store) Insert(ctx context.Context, messages []Message) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmt := tx.StmtContext(ctx, s.stmtInsert)
	var inserted int
	for _, m := range messages {
		if m.ID == "" || m.GuildID == "" {
			return 0, fmt.Errorf("message %q: id and guild_id are required", m.ID)
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		res, err := stmt.ExecContext(ctx, m.ID, m.GuildID, m.ChannelID, m.UserID, m.Content, m.CreatedAt.UnixMilli())
		if err != nil {
			return 0, fmt.Errorf("could not insert message %q: %w", m.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("could not commit messages: %w", err)
	}

	s.logger.DebugContext(ctx, "Messages stored",
		slog.Int("received", len(messages)),
		slog.Int("inserted", inserted),
	)
	return inserted, nil
}

// Latest returns the newest message in a channel, optionally for one user.
// Importers use it to continue after the last stored message.
func (s *Store) Latest(ctx context.Context, channelID, userID string) (Message, error) {
	m, err := scanMessage(s.stmtLatest.QueryRowContext(ctx, channelID, userID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	return m, err
}

// Count returns the number of stored messages matching q. Limit is ignored.
func (s *Store) Count(ctx context.Context, q Query) (int, error) {
	var n int
	err := s.stmtCount.QueryRowContext(ctx, q.args()...).Scan(&n)
	return n, err
}

// Delete removes every message matching q and returns how many were removed.
func (s *Store) Delete(ctx context.Context, q Query) (int, error) {
	res, err := s.stmtDeleteAll.ExecContext(ctx, q.args()...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Samples loads the content matching q, keeps only Eligible messages in their
// normalized form, shuffles them with rng and applies q.Limit. The result is
// ready for markov.Model.Build. A nil rng keeps the stored chronological order,
// so the same selection always yields the same samples.
func (s *Store) Samples(ctx context.Context, q Query, rng *rand.Rand) ([]string, error) {
	rows, err := s.stmtContent.QueryContext(ctx, q.args()...)
	if err != nil {
		return nil, fmt.Errorf("could not query samples: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var samples []string
	var total int
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		total++
		if text, ok := Eligible(content); ok {
			samples = append(samples, text)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if rng != nil {
		rng.Shuffle(len(samples), func(i, j int) {
			samples[i], samples[j] = samples[j], samples[i]
		})
	}
	if q.Limit > 0 && len(samples) > q.Limit {
		samples = samples[:q.Limit]
	}

	s.logger.DebugContext(ctx, "Samples loaded",
		slog.String("guild_id", q.GuildID),
		slog.String("user_id", q.UserID),
		slog.Int("messages", total),
		slog.Int("samples", len(samples)),
	)
	return samples, nil
}

// Messages returns every message matching q in chronological order.
func (s *Store) Messages(ctx context.Context, q Query) ([]Message, error) {
	rows, err := s.stmtMessages.QueryContext(ctx, q.args()...)
	if err != nil {
		return nil, fmt.Errorf("could not query messages: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, rows.Err()
}

func (q Query) args() []any {
	return []any{q.GuildID, q.ChannelID, q.ChannelID, q.UserID, q.UserID}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (Message, error) {
	var m Message
	var createdAt int64
	if err := row.Scan(&m.ID, &m.GuildID, &m.ChannelID, &m.UserID, &m.Content, &createdAt); err != nil {
		return Message{}, err
	}
	m.CreatedAt = time.UnixMilli(createdAt).UTC()
	return m, nil
}
