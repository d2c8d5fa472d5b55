package corpus

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupTestStore creates a new SQLite database in a temp dir and a Store on it.
func setupTestStore(t *testing.T) (*sql.DB, *Store) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}
	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(store.Close)
	return db, store
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func msg(id int, guild, channel, user, content string) Message {
	return Message{
		ID:        fmt.Sprintf("%d", id),
		GuildID:   guild,
		ChannelID: channel,
		UserID:    user,
		Content:   content,
		CreatedAt: base.Add(time.Duration(id) * time.Minute),
	}
}

func seedStore(t *testing.T, s *Store) {
	t.Helper()
	_, err := s.Insert(context.Background(), []Message{
		msg(1, "g1", "c1", "alice", "the cat sat on the mat"),
		msg(2, "g1", "c1", "bob", "check https://example.com now please"),
		msg(3, "g1", "c2", "alice", "!play some music now"),
		msg(4, "g1", "c2", "alice", "too short"),
		msg(5, "g1", "c1", "bob", "the dog ran after the cat"),
		msg(6, "g1", "c1", "alice", "here is `code` for you"),
		msg(7, "g2", "c9", "alice", "another guild entirely here"),
		msg(8, "g1", "c2", "alice", "  \"quoted\"   text with   spaces  "),
	})
	require.NoError(t, err)
}

func TestSetupSchemaIdempotent(t *testing.T) {
	db, _ := setupTestStore(t)
	assert.NoError(t, SetupSchema(db))
}

func TestInsert(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()

	n, err := s.Insert(ctx, []Message{msg(1, "g", "c", "u", "a b c"), msg(2, "g", "c", "u", "d e f")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Duplicates are ignored.
	n, err = s.Insert(ctx, []Message{msg(2, "g", "c", "u", "changed"), msg(3, "g", "c", "u", "g h i")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, err := s.Count(ctx, Query{GuildID: "g"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, err = s.Insert(ctx, []Message{{ID: "x"}})
	assert.Error(t, err)

	n, err = s.Insert(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCount(t *testing.T) {
	_, s := setupTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	testCases := []struct {
		name string
		q    Query
		want int
	}{
		{"Guild", Query{GuildID: "g1"}, 7},
		{"User", Query{GuildID: "g1", UserID: "alice"}, 5},
		{"Channel", Query{GuildID: "g1", ChannelID: "c1"}, 4},
		{"Channel and user", Query{GuildID: "g1", ChannelID: "c1", UserID: "bob"}, 2},
		{"Other guild", Query{GuildID: "g2"}, 1},
		{"Unknown", Query{GuildID: "nope"}, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := s.Count(ctx, tc.q)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}
}

func TestLatest(t *testing.T) {
	_, s := setupTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	m, err := s.Latest(ctx, "c1", "")
	require.NoError(t, err)
	assert.Equal(t, "6", m.ID)
	assert.True(t, m.CreatedAt.Equal(base.Add(6*time.Minute)))

	m, err = s.Latest(ctx, "c1", "bob")
	require.NoError(t, err)
	assert.Equal(t, "5", m.ID)

	_, err = s.Latest(ctx, "c404", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest() error = %v, want ErrNotFound", err)
	}
}

func TestSamples(t *testing.T) {
	_, s := setupTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	samples, err := s.Samples(ctx, Query{GuildID: "g1"}, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"the cat sat on the mat",
		"the dog ran after the cat",
		"quoted text with spaces",
	}, samples)

	alice, err := s.Samples(ctx, Query{GuildID: "g1", UserID: "alice"}, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"the cat sat on the mat", "quoted text with spaces"}, alice)

	limited, err := s.Samples(ctx, Query{GuildID: "g1", Limit: 2}, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	// The same source always yields the same order.
	again, err := s.Samples(ctx, Query{GuildID: "g1"}, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, samples, again)

	// Without a source the stored order is kept.
	for i := 0; i < 3; i++ {
		ordered, err := s.Samples(ctx, Query{GuildID: "g1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"the cat sat on the mat",
			"the dog ran after the cat",
			"quoted text with spaces",
		}, ordered)
	}

	none, err := s.Samples(ctx, Query{GuildID: "nope"}, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	_, s := setupTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	n, err := s.Delete(ctx, Query{GuildID: "g1", UserID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	total, err := s.Count(ctx, Query{GuildID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestExportImport(t *testing.T) {
	_, src := setupTestStore(t)
	seedStore(t, src)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, Query{GuildID: "g1", UserID: "alice"}, &buf))

	_, dst := setupTestStore(t)
	n, err := dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// Importing twice merges nothing new.
	n, err = dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	want, err := src.Messages(ctx, Query{GuildID: "g1", UserID: "alice"})
	require.NoError(t, err)
	got, err := dst.Messages(ctx, Query{GuildID: "g1"})
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Content, got[i].Content)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
	}

	_, err = dst.Import(ctx, bytes.NewReader([]byte("{not json")))
	assert.Error(t, err)
}

func TestExportFile(t *testing.T) {
	_, s := setupTestStore(t)
	seedStore(t, s)
	ctx := context.Background()

	filename := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, s.ExportFile(ctx, Query{GuildID: "g2"}, filename))

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "another guild entirely here")
}
