package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plate-reader/pkg/geometry"
)

func openTemp(t *testing.T) *ResultStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAssignsIDAndTime(t *testing.T) {
	s := openTemp(t)
	rec := &Record{Source: "cam.mp4", Frame: 3, Plate: "AB123", Characters: 5}
	require.NoError(t, s.Insert(context.Background(), rec))

	_, err := uuid.Parse(rec.ID)
	assert.NoError(t, err)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestRecentNewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, plate := range []string{"AAA", "BBB", "CCC"} {
		require.NoError(t, s.Insert(ctx, &Record{
			Source:    "img.png",
			Frame:     i,
			Plate:     plate,
			Region:    geometry.RectInt{X: i, Y: 2, Width: 157, Height: 50},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "CCC", recent[0].Plate)
	assert.Equal(t, "BBB", recent[1].Plate)
	assert.Equal(t, geometry.RectInt{X: 2, Y: 2, Width: 157, Height: 50}, recent[0].Region)
	assert.True(t, base.Add(2*time.Minute).Equal(recent[0].CreatedAt))
}

func TestRecentEmpty(t *testing.T) {
	s := openTemp(t)
	recent, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
