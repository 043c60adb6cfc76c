package http

import (
	"bytes"
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

	authHTTP "github.com/allisson/viewvault/internal/auth/http"
	apperrors "github.com/allisson/viewvault/internal/errors"
	"github.com/allisson/viewvault/internal/httputil"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
	"github.com/allisson/viewvault/internal/vault/http/dto"
)

type mockVaultUseCase struct {
	mock.Mock
}

func (m *mockVaultUseCase) StorePending(ctx context.Context, record *vaultDomain.VaultRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockVaultUseCase) Seal(ctx context.Context, in vaultDomain.SealInput) (*vaultDomain.SealResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.SealResult), args.Error(1)
}

func (m *mockVaultUseCase) Export(ctx context.Context, in vaultDomain.ExportInput) (*vaultDomain.Export, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.Export), args.Error(1)
}

func (m *mockVaultUseCase) CloseCase(ctx context.Context, in vaultDomain.CloseInput) (*vaultDomain.CloseResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.CloseResult), args.Error(1)
}

func setupTestHandler(t *testing.T) (*VaultHandler, *mockVaultUseCase) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	uc := &mockVaultUseCase{}
	return NewVaultHandler(uc, slog.New(slog.NewTextHandler(io.Discard, nil))), uc
}

func createTestContext(method, path, caseID string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request = c.Request.WithContext(authHTTP.WithActor(c.Request.Context(), "legal"))
	c.Params = gin.Params{{Key: "caseId", Value: caseID}}
	return c, w
}

func openCase() *vaultDomain.LegalCase {
	return &vaultDomain.LegalCase{
		ID:             "K1",
		OrderReference: "ORD-1",
		Status:         vaultDomain.CaseStatusOpen,
		OpenedBy:       "legal",
		CreatedAt:      time.UnixMilli(1700000000000).UTC(),
	}
}

func TestVaultHandler_SealHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, uc := setupTestHandler(t)
		viewID := uuid.New()

		uc.On("Seal", mock.Anything, vaultDomain.SealInput{
			CaseID:         "K1",
			OrderReference: "ORD-1",
			ViewIDs:        []uuid.UUID{viewID},
			Authorizers:    []string{"alice", "bob"},
			Actor:          "legal",
			Reason:         "court order",
		}).Return(&vaultDomain.SealResult{Case: openCase(), Sealed: 1}, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/vault/cases/K1/seal", "K1", dto.SealRequest{
			OrderReference: "ORD-1",
			ViewIDs:        []string{viewID.String()},
			Authorizers:    []string{"alice", "bob"},
			Reason:         "court order",
		})
		handler.SealHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.SealResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 1, response.Sealed)
		assert.Equal(t, "open", response.Case.Status)
		uc.AssertExpectations(t)
	})

	t.Run("Error_InvalidViewID", func(t *testing.T) {
		handler, uc := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/vault/cases/K1/seal", "K1", dto.SealRequest{
			OrderReference: "ORD-1",
			ViewIDs:        []string{"nope"},
			Reason:         "court order",
		})
		handler.SealHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		uc.AssertNotCalled(t, "Seal", mock.Anything, mock.Anything)
	})

	t.Run("Error_MissingAuth", func(t *testing.T) {
		handler, uc := setupTestHandler(t)
		uc.On("Seal", mock.Anything, mock.Anything).Return(nil, vaultDomain.ErrMissingAuth).Once()

		c, w := createTestContext(http.MethodPost, "/v1/vault/cases/K1/seal", "K1", dto.SealRequest{
			OrderReference: "ORD-1",
			ViewIDs:        []string{uuid.NewString()},
			Authorizers:    []string{"alice"},
			Reason:         "court order",
		})
		handler.SealHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		var response httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, string(apperrors.KindMissingAuth), response.Code)
	})
}

func TestVaultHandler_ExportHandler(t *testing.T) {
	t.Run("Success_WipesAfterWrite", func(t *testing.T) {
		handler, uc := setupTestHandler(t)
		record := &vaultDomain.ExportedRecord{
			RecordID:  uuid.Must(uuid.NewV7()),
			LogID:     uuid.Must(uuid.NewV7()),
			ViewID:    uuid.New(),
			IP:        []byte("203.0.113.5"),
			UserAgent: []byte("Mozilla/5.0"),
			Referrer:  []byte("https://g.example/"),
		}

		uc.On("Export", mock.Anything, vaultDomain.ExportInput{
			CaseID:      "K1",
			Authorizers: []string{"alice", "bob"},
			Actor:       "legal",
			Reason:      "production",
		}).Return(&vaultDomain.Export{CaseID: "K1", Records: []*vaultDomain.ExportedRecord{record}}, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/vault/cases/K1/export", "K1", dto.ExportRequest{
			Authorizers: []string{"alice", "bob"},
			Reason:      "production",
		})
		handler.ExportHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		var response dto.ExportResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, "203.0.113.5", response.Data[0].IP)

		assert.Equal(t, make([]byte, len("203.0.113.5")), record.IP)
		uc.AssertExpectations(t)
	})

	t.Run("Success_OneRecord", func(t *testing.T) {
		handler, uc := setupTestHandler(t)
		recordID := uuid.Must(uuid.NewV7())

		uc.On("Export", mock.Anything, mock.MatchedBy(func(in vaultDomain.ExportInput) bool {
			return in.RecordID != nil && *in.RecordID == recordID
		})).Return(&vaultDomain.Export{CaseID: "K1"}, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/vault/cases/K1/export", "K1", dto.ExportRequest{
			RecordID:    recordID.String(),
			Authorizers: []string{"alice", "bob"},
			Reason:      "production",
		})
		handler.ExportHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		uc.AssertExpectations(t)
	})

	t.Run("Error_CaseClosed", func(t *testing.T) {
		handler, uc := setupTestHandler(t)
		uc.On("Export", mock.Anything, mock.Anything).Return(nil, vaultDomain.ErrCaseClosed).Once()

		c, w := createTestContext(http.MethodPost, "/v1/vault/cases/K1/export", "K1", dto.ExportRequest{
			Authorizers: []string{"alice", "bob"},
			Reason:      "production",
		})
		handler.ExportHandler(c)

		assert.Equal(t, http.StatusGone, w.Code)
		var response httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, string(apperrors.KindCaseClosed), response.Code)
	})

	t.Run("Error_MalformedBody", func(t *testing.T) {
		handler, uc := setupTestHandler(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/v1/vault/cases/K1/export", bytes.NewBufferString("{"))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Request = c.Request.WithContext(authHTTP.WithActor(c.Request.Context(), "legal"))
		handler.ExportHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		uc.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
	})
}

func TestVaultHandler_CloseHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, uc := setupTestHandler(t)
		closed := openCase()
		closedAt := closed.CreatedAt.Add(time.Hour)
		closed.Status = vaultDomain.CaseStatusClosed
		closed.ClosedAt = &closedAt

		uc.On("CloseCase", mock.Anything, vaultDomain.CloseInput{CaseID: "K1", Actor: "legal", Reason: "discharged"}).
			Return(&vaultDomain.CloseResult{Case: closed, DestroyedCount: 3}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/vault/cases/K1/close", "K1", dto.CloseRequest{Reason: "discharged"})
		handler.CloseHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.CloseResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, int64(3), response.DestroyedCount)
		assert.Equal(t, "closed", response.Case.Status)
		uc.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, uc := setupTestHandler(t)
		uc.On("CloseCase", mock.Anything, mock.Anything).Return(nil, vaultDomain.ErrCaseNotFound).Once()

		c, w := createTestContext(http.MethodPost, "/v1/vault/cases/K9/close", "K9", dto.CloseRequest{Reason: "x"})
		handler.CloseHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_NoActor", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/v1/vault/cases/K1/close", nil)
		handler.CloseHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
