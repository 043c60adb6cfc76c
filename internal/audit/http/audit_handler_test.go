package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	"github.com/allisson/viewvault/internal/audit/http/dto"
	auditUseCase "github.com/allisson/viewvault/internal/audit/usecase"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

type mockAuditUseCase struct {
	mock.Mock
}

func (m *mockAuditUseCase) Append(ctx context.Context, entry auditDomain.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockAuditUseCase) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.AuditRecord), args.Error(1)
}

func (m *mockAuditUseCase) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*auditUseCase.VerificationReport, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditUseCase.VerificationReport), args.Error(1)
}

func setupTestAuditHandler(t *testing.T) (*AuditHandler, *mockAuditUseCase) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	uc := &mockAuditUseCase{}
	return NewAuditHandler(uc, slog.New(slog.NewTextHandler(io.Discard, nil))), uc
}

func createTestContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func TestAuditHandler_ListHandler(t *testing.T) {
	t.Run("Success_DefaultPagination", func(t *testing.T) {
		handler, uc := setupTestAuditHandler(t)
		id := uuid.Must(uuid.NewV7())

		uc.On("List", mock.Anything, auditDomain.ListFilter{Offset: 0, Limit: 50}).
			Return([]*auditDomain.AuditRecord{{
				ID:        id,
				Actor:     "reaper",
				Action:    auditDomain.ActionDeleteT2,
				TargetID:  "log-1",
				Outcome:   auditDomain.OutcomeSuccess,
				CreatedAt: time.Now().UTC(),
			}}, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/audit-logs")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.ListAuditRecordsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, id.String(), response.Data[0].ID)
		assert.Equal(t, "DELETE_T2", response.Data[0].Action)
		assert.False(t, response.Data[0].Signed)
	})

	t.Run("Success_Filters", func(t *testing.T) {
		handler, uc := setupTestAuditHandler(t)
		from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 2, 14, 23, 59, 59, 0, time.UTC)

		uc.On("List", mock.Anything, auditDomain.ListFilter{
			Action:   auditDomain.ActionExportT3,
			TargetID: "K1",
			From:     &from,
			To:       &to,
			Offset:   10,
			Limit:    25,
		}).Return([]*auditDomain.AuditRecord{}, nil).Once()

		c, w := createTestContext(http.MethodGet,
			"/v1/audit-logs?offset=10&limit=25&action=EXPORT_T3&target_id=K1"+
				"&created_at_from=2026-02-01T00:00:00Z&created_at_to=2026-02-14T23:59:59Z")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		uc.AssertExpectations(t)
	})

	t.Run("Error_InvalidTime", func(t *testing.T) {
		handler, uc := setupTestAuditHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/audit-logs?created_at_from=yesterday")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		uc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("Error_InvertedRange", func(t *testing.T) {
		handler, _ := setupTestAuditHandler(t)

		c, w := createTestContext(http.MethodGet,
			"/v1/audit-logs?created_at_from=2026-03-01T00:00:00Z&created_at_to=2026-02-01T00:00:00Z")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_StoreUnavailable", func(t *testing.T) {
		handler, uc := setupTestAuditHandler(t)
		uc.On("List", mock.Anything, mock.Anything).Return(nil, apperrors.ErrUnavailable)

		c, w := createTestContext(http.MethodGet, "/v1/audit-logs")
		handler.ListHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
