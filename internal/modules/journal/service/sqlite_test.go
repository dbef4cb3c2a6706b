package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"
	"webhook_bot/pkg/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)

	j, err := NewSQLite(ctx, conn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	at := time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx, Entry{At: at, Type: "open", Ticker: "RIZ4", Side: "LONG",
		Result: "ok", OrderID: "o1", Lots: 2, Price: decimal.RequireFromString("101.5"), Message: "done"}))
	require.NoError(t, j.Record(ctx, Entry{At: at.Add(time.Minute), Type: "close", Ticker: "RIZ4", Side: "LONG",
		Result: "NothingToClose"}))

	got, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "close", got[0].Type)
	assert.Equal(t, "NothingToClose", got[0].Result)
	assert.True(t, got[1].Price.Equal(decimal.RequireFromString("101.5")))
	assert.True(t, got[1].At.Equal(at))
}

func TestNewSQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = NewSQLite(ctx, conn)
	require.NoError(t, err)
	_, err = NewSQLite(ctx, conn)
	require.NoError(t, err)
}
