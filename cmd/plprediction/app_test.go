package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtourv/PLprediction/internal/apperr"
	"github.com/gtourv/PLprediction/internal/config"
	"github.com/gtourv/PLprediction/internal/league"
	"github.com/gtourv/PLprediction/internal/store"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantDebug bool
		wantJSON  bool
	}{
		{"json info", config.LogConfig{Level: "info", Format: "json"}, false, true},
		{"text debug", config.LogConfig{Level: "debug", Format: "text"}, true, false},
		{"bad level falls back to info", config.LogConfig{Level: "loud"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(tt.cfg, &buf)
			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), slog.LevelDebug))

			logger.Info("hello", "k", "v")
			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"hello"`)
			} else {
				assert.Contains(t, buf.String(), "msg=hello")
			}
		})
	}
}

func TestNewApp_InMemory(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Log.Level = "error"

	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &store.Memory{}, a.store)
	assert.Nil(t, a.cache)
	assert.NotNil(t, a.registry)

	require.NoError(t, a.store.Migrate(ctx))
	st, err := a.service.Standings(ctx)
	require.NoError(t, err)
	assert.Equal(t, league.DefaultTeams, st.Teams)

	_, err = a.service.Refresh(ctx)
	assert.ErrorIs(t, err, apperr.ErrConfig)
}

func TestNewApp_MetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Metrics.Enabled = false

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.registry)
	assert.Nil(t, a.metrics)
}
