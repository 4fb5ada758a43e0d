package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/frontdesk-api/internal/delivery"
	authhandler "github.com/jwalitptl/frontdesk-api/internal/handler/auth"
	"github.com/jwalitptl/frontdesk-api/internal/handler/document"
	"github.com/jwalitptl/frontdesk-api/internal/handler/health"
	"github.com/jwalitptl/frontdesk-api/internal/handler/prometheus"
	recordhandler "github.com/jwalitptl/frontdesk-api/internal/handler/record"
	receipthandler "github.com/jwalitptl/frontdesk-api/internal/handler/receipt"
	"github.com/jwalitptl/frontdesk-api/internal/middleware"
	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/service/receipt"
	"github.com/jwalitptl/frontdesk-api/internal/session"
	"github.com/jwalitptl/frontdesk-api/pkg/errors"
	"github.com/jwalitptl/frontdesk-api/pkg/httputil"
)

const goodToken = "good-token"

type mockAuthService struct {
	loggedOut []session.User
}

func (m *mockAuthService) Login(_ context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	if req.Username != "reception" || req.Password != "secret1" {
		return nil, errors.Unauthorized(nil)
	}
	return &model.LoginResponse{Token: goodToken, Name: "Reception"}, nil
}

func (m *mockAuthService) Logout(_ context.Context, u session.User) error {
	m.loggedOut = append(m.loggedOut, u)
	return nil
}

func (m *mockAuthService) Authenticate(_ context.Context, token string) (session.User, error) {
	if token != goodToken {
		return session.User{}, errors.Unauthorized(nil)
	}
	return session.User{ID: uuid.New(), Name: "Reception", TokenID: "jti"}, nil
}

type mockRecordService struct {
	recordhandler.Service
	createFn func(ctx context.Context, actor session.User, req model.CreateRecordRequest) (*model.Record, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*model.Record, error)
}

func (m *mockRecordService) Create(ctx context.Context, actor session.User, req model.CreateRecordRequest) (*model.Record, error) {
	return m.createFn(ctx, actor, req)
}

func (m *mockRecordService) Get(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	return m.getFn(ctx, id)
}

type mockReceiptService struct {
	printFn func(ctx context.Context, ref model.RecordRef, types []model.ReceiptType) (*delivery.Preview, error)
	shareFn func(ctx context.Context, actor session.User, ref model.RecordRef, types []model.ReceiptType, opts receipt.ShareOptions) (*delivery.ShareResult, error)
}

func (m *mockReceiptService) PreviewHTML(context.Context, model.RecordRef, []model.ReceiptType) ([]byte, error) {
	return []byte("<html></html>"), nil
}

func (m *mockReceiptService) Print(ctx context.Context, ref model.RecordRef, types []model.ReceiptType) (*delivery.Preview, error) {
	return m.printFn(ctx, ref, types)
}

func (m *mockReceiptService) Share(ctx context.Context, actor session.User, ref model.RecordRef, types []model.ReceiptType, opts receipt.ShareOptions) (*delivery.ShareResult, error) {
	return m.shareFn(ctx, actor, ref, types, opts)
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

var (
	_ authhandler.Service      = (*mockAuthService)(nil)
	_ middleware.Authenticator = (*mockAuthService)(nil)
	_ recordhandler.Service    = (*mockRecordService)(nil)
	_ receipthandler.Service   = (*mockReceiptService)(nil)
)

type fixture struct {
	engine  *gin.Engine
	auth    *mockAuthService
	records *mockRecordService
	receipt *mockReceiptService
	store   *delivery.DocumentStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth:    &mockAuthService{},
		records: &mockRecordService{},
		receipt: &mockReceiptService{},
		store:   delivery.NewDocumentStore(time.Minute, ""),
	}
	metrics, err := prometheus.New("test")
	require.NoError(t, err)

	r := NewRouter(
		middleware.NewAuthMiddleware(f.auth),
		authhandler.NewHandler(f.auth),
		recordhandler.NewHandler(f.records),
		receipthandler.NewHandler(f.receipt),
		document.NewHandler(f.store),
		health.NewHandler(pinger{}),
		metrics,
		RouterConfig{
			Mode:       gin.TestMode,
			RateLimit:  1000,
			RateBurst:  1000,
			Timeout:    5 * time.Second,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()
	f.engine = r.Engine()
	return f
}

func (f *fixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))

	w = f.do(http.MethodGet, "/api/v1/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/api/v1/health/live", "", nil)

	w := f.do(http.MethodGet, "/api/v1/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}

func TestRouter_Login(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Username: "reception", Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)

	w = f.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Username: "reception", Password: "nope12"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "reception"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w).Error.Message, "password")
}

func TestRouter_ProtectedRoutesNeedSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/v1/auth/me", "stolen", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/v1/auth/me", goodToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Reception")

	w = f.do(http.MethodPost, "/api/v1/auth/logout", goodToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.auth.loggedOut, 1)
}

func TestRouter_CreateRecord(t *testing.T) {
	f := newFixture(t)
	var actor string
	f.records.createFn = func(_ context.Context, u session.User, req model.CreateRecordRequest) (*model.Record, error) {
		actor = u.Actor()
		return &model.Record{Kind: req.Kind, SeqID: 1, Fields: req.Fields}, nil
	}

	w := f.do(http.MethodPost, "/api/v1/records", goodToken, map[string]interface{}{
		"kind":   "patient",
		"fields": map[string]interface{}{"PATIENT NAME": "Asha Rao"},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Reception", actor)

	w = f.do(http.MethodPost, "/api/v1/records", goodToken, map[string]interface{}{
		"kind":   "invoice",
		"fields": map[string]interface{}{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w).Error.Message, "kind")
}

func TestRouter_GetRecordBadID(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/records/not-a-uuid", goodToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_PrintReceipts(t *testing.T) {
	f := newFixture(t)
	var got []model.ReceiptType
	f.receipt.printFn = func(_ context.Context, _ model.RecordRef, types []model.ReceiptType) (*delivery.Preview, error) {
		got = types
		if len(types) == 0 {
			return nil, errors.MissingSelection("select at least one receipt type")
		}
		return &delivery.Preview{URL: "/api/v1/documents/x"}, nil
	}
	path := "/api/v1/records/" + uuid.NewString() + "/receipts/print"

	w := f.do(http.MethodPost, path, goodToken, map[string]interface{}{"types": []string{"lab", "vlab"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []model.ReceiptType{model.ReceiptLab, model.ReceiptExternalLab}, got)

	w = f.do(http.MethodPost, path+"?types=cash", goodToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []model.ReceiptType{model.ReceiptCash}, got)

	w = f.do(http.MethodPost, path, goodToken, map[string]interface{}{"types": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, path, goodToken, map[string]interface{}{"types": []string{"invoice"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRouter_ShareInvalidPhone(t *testing.T) {
	f := newFixture(t)
	f.receipt.shareFn = func(context.Context, session.User, model.RecordRef, []model.ReceiptType, receipt.ShareOptions) (*delivery.ShareResult, error) {
		return nil, errors.Validation("invalid phone number", delivery.ErrInvalidPhone)
	}

	w := f.do(http.MethodPost, "/api/v1/records/"+uuid.NewString()+"/receipts/share", goodToken,
		map[string]interface{}{"types": []string{"cash"}, "phone": "12"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid phone number", decode(t, w).Error.Message)
}

func TestRouter_Documents(t *testing.T) {
	f := newFixture(t)
	doc := f.store.Put("Asha_Rao_cash_20240509-140530.pdf", []byte("%PDF-1.4"))

	w := f.do(http.MethodGet, "/api/v1/documents/"+doc.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "inline"))
	assert.Equal(t, "%PDF-1.4", w.Body.String())

	w = f.do(http.MethodGet, "/api/v1/documents/"+doc.ID+"?download=1", "", nil)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment"))

	w = f.do(http.MethodGet, "/api/v1/documents/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
