package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestSaveAndFind(t *testing.T) {
	l := openTemp(t)
	ctx := context.Background()

	older := Record{
		Payload:      "UID_aaaa1111_20261018_090000_CONFIDENTIAL",
		Source:       "sample.mp4",
		Output:       "copy_a.mp4",
		TotalFrames:  200,
		FramesMarked: 4,
		Frequency:    50,
		CreatedAt:    time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}
	newer := older
	newer.Payload = "UID_bbbb2222_20261019_090000_CONFIDENTIAL"
	newer.Output = "copy_b.mp4"
	newer.CreatedAt = older.CreatedAt.Add(24 * time.Hour)

	require.NoError(t, l.Save(ctx, older))
	require.NoError(t, l.Save(ctx, newer))

	all, err := l.Find(ctx, "CONFIDENTIAL")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "copy_b.mp4", all[0].Output)
	assert.NotEmpty(t, all[0].ID)

	one, err := l.Find(ctx, "aaaa1111")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, older.Payload, one[0].Payload)
	assert.Equal(t, 4, one[0].FramesMarked)
	assert.True(t, older.CreatedAt.Equal(one[0].CreatedAt))

	none, err := l.Find(ctx, "zzzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveDuplicatePayload(t *testing.T) {
	l := openTemp(t)
	ctx := context.Background()
	r := Record{Payload: "UID_dup", Source: "a.mp4", Output: "b.mp4"}

	require.NoError(t, l.Save(ctx, r))
	err := l.Save(ctx, r)
	assert.True(t, errors.Is(err, ErrDuplicatePayload))
}

func TestFindLikeWildcardsAreLiteral(t *testing.T) {
	l := openTemp(t)
	ctx := context.Background()
	require.NoError(t, l.Save(ctx, Record{Payload: "UID_1", Source: "a", Output: "b"}))

	res, err := l.Find(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, res)
}
