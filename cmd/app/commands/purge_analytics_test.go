package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRunPurgeAnalytics(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("success-text", func(t *testing.T) {
		uc := &mockAnalyticsUseCase{}
		uc.On("PurgeExpired", ctx, mock.AnythingOfType("time.Time")).Return(int64(42), nil)

		var out bytes.Buffer
		require.NoError(t, RunPurgeAnalytics(ctx, uc, logger, &out, "text"))
		assert.Equal(t, "Deleted 42 expired analytics record(s)\n", out.String())
		uc.AssertExpectations(t)
	})

	t.Run("success-json", func(t *testing.T) {
		uc := &mockAnalyticsUseCase{}
		uc.On("PurgeExpired", ctx, mock.AnythingOfType("time.Time")).Return(int64(0), nil)

		var out bytes.Buffer
		require.NoError(t, RunPurgeAnalytics(ctx, uc, logger, &out, "json"))

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.Equal(t, float64(0), result["deleted_count"])
	})

	t.Run("store-error", func(t *testing.T) {
		uc := &mockAnalyticsUseCase{}
		uc.On("PurgeExpired", ctx, mock.AnythingOfType("time.Time")).Return(int64(0), errors.New("timeout"))

		err := RunPurgeAnalytics(ctx, uc, logger, &bytes.Buffer{}, "text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to purge analytics")
	})

	t.Run("invalid-format", func(t *testing.T) {
		err := RunPurgeAnalytics(ctx, nil, logger, &bytes.Buffer{}, "csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})
}
