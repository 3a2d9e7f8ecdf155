package history

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "history.db"), log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, Take{
		Performer: "Kanda", Path: "/takes/Kanda/a.wav", Voice: "ballad", Speed: 1.0,
		Bytes: 48044, Duration: time.Second, CreatedAt: base,
	}))
	require.NoError(t, s.Record(ctx, Take{
		Performer: "Sato", Path: "/takes/Sato/b.wav", Voice: "sage", Speed: 1.2,
		CreatedAt: base.Add(time.Minute),
	}))
	require.NoError(t, s.Record(ctx, Take{
		Performer: "Kanda", Path: "/takes/Kanda/c.wav", CreatedAt: base.Add(2 * time.Minute),
	}))

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/takes/Kanda/c.wav", all[0].Path)
	assert.Equal(t, "/takes/Kanda/a.wav", all[2].Path)

	kanda, err := s.List(ctx, "Kanda", 10)
	require.NoError(t, err)
	require.Len(t, kanda, 2)
	assert.Equal(t, "ballad", kanda[1].Voice)
	assert.Equal(t, int64(48044), kanda[1].Bytes)
	assert.Equal(t, time.Second, kanda[1].Duration)
	assert.True(t, base.Equal(kanda[1].CreatedAt))

	limited, err := s.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecordStampsCreatedAt(t *testing.T) {
	s := openStore(t)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s.clock = func() time.Time { return now }

	require.NoError(t, s.Record(context.Background(), Take{Performer: "Kanda", Path: "x.wav"}))

	takes, err := s.List(context.Background(), "Kanda", 1)
	require.NoError(t, err)
	require.Len(t, takes, 1)
	assert.True(t, now.Equal(takes[0].CreatedAt))
}

func TestReopenKeepsTakes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(ctx, path, log.New(io.Discard))
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Take{Performer: "Kanda", Path: "x.wav"}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, log.New(io.Discard))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	takes, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, takes, 1)
}
