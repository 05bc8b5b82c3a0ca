package postgres

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bazaar/config"
	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/errors"
)

func TestQueryLogger_UsesRequestLogger(t *testing.T) {
	var requestOut bytes.Buffer
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	requestLogger := slog.New(slog.NewTextHandler(&requestOut, nil)).With(slog.String("request_id", "req-42"))

	ql := newQueryLogger(fallback, &config.Config{})
	ctx := deliverycontext.WithLogger(context.Background(), requestLogger)
	sqlAndRows := func() (string, int64) { return `SELECT * FROM "provider_links"`, 0 }

	ql.Trace(ctx, time.Now(), sqlAndRows, errors.New("connection reset"))

	assert.Contains(t, requestOut.String(), "Database query failed")
	assert.Contains(t, requestOut.String(), "request_id=req-42")
}

func TestQueryLogger_Levels(t *testing.T) {
	var out bytes.Buffer
	ql := newQueryLogger(slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug})), &config.Config{})
	sqlAndRows := func() (string, int64) { return "SELECT 1", 1 }

	ql.Trace(context.Background(), time.Now(), sqlAndRows, gorm.ErrRecordNotFound)
	ql.Trace(context.Background(), time.Now(), sqlAndRows, nil)
	assert.Empty(t, out.String())

	ql.Trace(context.Background(), time.Now().Add(-time.Second), sqlAndRows, nil)
	assert.Contains(t, out.String(), "Slow database query")

	out.Reset()
	ql.Trace(context.Background(), time.Now(), sqlAndRows, errors.New("boom"))
	assert.Contains(t, out.String(), "Database query failed")

	out.Reset()
	ql.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), sqlAndRows, errors.New("boom"))
	assert.Empty(t, out.String())
}
