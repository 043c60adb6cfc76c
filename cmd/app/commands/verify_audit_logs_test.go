package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditUseCase "github.com/allisson/viewvault/internal/audit/usecase"
)

func TestRunVerifyAuditLogs(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	startDate := "2025-01-01"
	endDate := "2025-01-02"

	report := &auditUseCase.VerificationReport{
		TotalChecked: 10,
		SignedCount:  10,
		ValidCount:   10,
	}

	t.Run("success-text", func(t *testing.T) {
		mockUseCase := &mockAuditUseCase{}
		mockUseCase.On("VerifyBatch", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(report, nil)

		var out bytes.Buffer
		err := RunVerifyAuditLogs(ctx, mockUseCase, logger, &out, startDate, endDate, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Audit Log Integrity Verification")
		require.Contains(t, out.String(), "Status: PASSED")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("success-json", func(t *testing.T) {
		mockUseCase := &mockAuditUseCase{}
		mockUseCase.On("VerifyBatch", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(report, nil)

		var out bytes.Buffer
		err := RunVerifyAuditLogs(ctx, mockUseCase, logger, &out, startDate, endDate, "json")
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(out.Bytes(), &result)
		require.NoError(t, err)
		require.Equal(t, float64(10), result["total_checked"])
		require.Equal(t, true, result["passed"])
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-dates", func(t *testing.T) {
		err := RunVerifyAuditLogs(ctx, nil, logger, nil, "invalid", endDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid start date")
	})

	t.Run("end-before-start", func(t *testing.T) {
		err := RunVerifyAuditLogs(ctx, nil, logger, nil, endDate, startDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "end date must be after start date")
	})

	t.Run("invalid-format", func(t *testing.T) {
		err := RunVerifyAuditLogs(ctx, nil, logger, nil, startDate, endDate, "yaml")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid format")
	})

	t.Run("store-error", func(t *testing.T) {
		mockUseCase := &mockAuditUseCase{}
		mockUseCase.On("VerifyBatch", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(nil, errors.New("connection refused"))

		err := RunVerifyAuditLogs(ctx, mockUseCase, logger, &bytes.Buffer{}, startDate, endDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to verify audit logs")
	})

	t.Run("integrity-failure", func(t *testing.T) {
		mockUseCase := &mockAuditUseCase{}
		failureReport := &auditUseCase.VerificationReport{
			TotalChecked: 10,
			InvalidCount: 2,
			InvalidLogs:  []uuid.UUID{uuid.New(), uuid.New()},
		}
		mockUseCase.On("VerifyBatch", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(failureReport, nil)

		var out bytes.Buffer
		err := RunVerifyAuditLogs(ctx, mockUseCase, logger, &out, startDate, endDate, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "integrity check failed")
		require.Contains(t, out.String(), "WARNING: 2 log(s) failed integrity check!")
		require.Contains(t, out.String(), failureReport.InvalidLogs[0].String())
		require.Contains(t, out.String(), "Status: FAILED")
	})

	t.Run("unsigned-records", func(t *testing.T) {
		mockUseCase := &mockAuditUseCase{}
		mockUseCase.On("VerifyBatch", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(&auditUseCase.VerificationReport{TotalChecked: 4, UnsignedCount: 4}, nil)

		var out bytes.Buffer
		err := RunVerifyAuditLogs(ctx, mockUseCase, logger, &out, startDate, endDate, "json")
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, "UNVERIFIED", result["status"])
		require.Equal(t, true, result["passed"])
		require.Equal(t, []any{}, result["invalid_logs"])
	})

	t.Run("empty-range", func(t *testing.T) {
		mockUseCase := &mockAuditUseCase{}
		mockUseCase.On("VerifyBatch", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(&auditUseCase.VerificationReport{}, nil)

		var out bytes.Buffer
		require.NoError(t, RunVerifyAuditLogs(ctx, mockUseCase, logger, &out, startDate, "2025-01-01 12:00:00", "text"))
		require.Contains(t, out.String(), "Status: EMPTY")
	})
}
