package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger(t *testing.T) (*ZapLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return NewZapLogger(zap.New(core)), logs
}

func TestZapLogger_Levels(t *testing.T) {
	log, logs := observedLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "d")
	log.Info(ctx, "i", "k", "v")
	log.Warn(ctx, "w")
	log.Error(ctx, "e")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "i", entries[1].Message)
	assert.Equal(t, "v", entries[1].ContextMap()["k"])
}

func TestZapLogger_With(t *testing.T) {
	log, logs := observedLogger(t)

	child := log.With("entity_id", "abc")
	child.Info(context.Background(), "saved")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].ContextMap()["entity_id"])
}

func TestNewNop_DoesNotPanic(t *testing.T) {
	log := NewNop()
	log.Info(context.Background(), "ignored", "k", "v")
}
