package http_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	qr "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	httpdelivery "github.com/Xausdorf/qris-hub/internal/delivery/http"
	"github.com/Xausdorf/qris-hub/internal/domain/entity"
	"github.com/Xausdorf/qris-hub/internal/domain/qris"
	"github.com/Xausdorf/qris-hub/internal/domain/repository"
	"github.com/Xausdorf/qris-hub/internal/domain/repository/mocks"
	"github.com/Xausdorf/qris-hub/internal/infrastructure/metrics"
	"github.com/Xausdorf/qris-hub/internal/infrastructure/qrgenerator"
	"github.com/Xausdorf/qris-hub/internal/usecase/checkout"
	"github.com/Xausdorf/qris-hub/internal/usecase/dashboard"
	"github.com/Xausdorf/qris-hub/internal/usecase/generateqr"
	"github.com/Xausdorf/qris-hub/internal/usecase/gettransaction"
	"github.com/Xausdorf/qris-hub/internal/usecase/listtransactions"
	"github.com/Xausdorf/qris-hub/internal/usecase/updatestatus"
)

const basePayload = "00020101021126610014COM.GO-JEK.WWW01189360091432840999140210G2840999140303UMI" +
	"51440014ID.CO.QRIS.WWW0215ID10253780771980303UMI5204549953033605802ID5916SIINMEDIA, PCNGN" +
	"6006JEPARA61055946262070703A01630456FE"

type env struct {
	router http.Handler
	uow    *mocks.MockUnitOfWork
	txUow  *mocks.MockUnitOfWork
	repo   *mocks.MockTransactionRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctrl := gomock.NewController(t)

	e := &env{
		uow:   mocks.NewMockUnitOfWork(ctrl),
		txUow: mocks.NewMockUnitOfWork(ctrl),
		repo:  mocks.NewMockTransactionRepository(ctrl),
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	generateQRUC := generateqr.NewUseCase(qrgenerator.NewGenerator(qr.Medium), generateqr.Config{
		BasePayload:   basePayload,
		RetryInterval: time.Millisecond,
	}, m, logger)

	h := httpdelivery.NewHandler(
		generateQRUC,
		checkout.NewUseCase(e.uow, generateQRUC, m, logger),
		gettransaction.NewUseCase(e.uow),
		listtransactions.NewUseCase(e.uow),
		updatestatus.NewUseCase(e.uow, m),
		dashboard.NewUseCase(e.uow),
		logger,
	)
	e.router = httpdelivery.NewRouter(h, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return e
}

func (e *env) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleQR(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/api/qris?amount=10000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpdelivery.QRResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	want, err := qris.Build(basePayload, 10000)
	require.NoError(t, err)
	assert.Equal(t, want, resp.Payload)

	require.True(t, strings.HasPrefix(resp.Image, "data:image/png;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(resp.Image, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}

func TestHandleQRImage(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/api/qris/image?amount=50000", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestHandleQR_InvalidAmount(t *testing.T) {
	e := newEnv(t)

	for _, target := range []string{"/api/qris", "/api/qris?amount=abc", "/api/qris?amount=-1", "/api/qris?amount=0"} {
		rec := e.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandleCheckout(t *testing.T) {
	e := newEnv(t)
	domainID := uuid.New()

	e.uow.EXPECT().Transactions().Return(e.repo)
	e.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	rec := e.do(http.MethodPost, "/api/checkout",
		`{"domain_id":"`+domainID.String()+`","amount":150000,"buyer":{"name":"Budi","email":"budi@example.com"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp httpdelivery.TransactionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, domainID.String(), resp.DomainID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "qris", resp.PaymentMethod)
	assert.Equal(t, "Budi", resp.BuyerInfo.Name)
	assert.NoError(t, qris.Verify(resp.QRISData))
	assert.True(t, strings.HasPrefix(resp.QRImage, "data:image/png;base64,"))
}

func TestHandleCheckout_IdempotentReplay(t *testing.T) {
	e := newEnv(t)
	ctrl := gomock.NewController(t)
	idem := mocks.NewMockIdempotencyRepository(ctrl)

	domainID := uuid.New()
	payload, err := qris.Build(basePayload, 20000)
	require.NoError(t, err)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := entity.ReconstructTransaction(uuid.New(), domainID, "TRX-20260301-ABCDEF12", 20000,
		entity.StatusPending, entity.PaymentMethodQRIS, entity.Buyer{Name: "Budi"}, payload, "", nil, created, created)

	e.uow.EXPECT().Idempotency().Return(idem)
	idem.EXPECT().Find(gomock.Any(), "retry-1").
		Return(entity.ReconstructIdempotencyRecord("retry-1", first.ID(), created), nil)
	e.uow.EXPECT().Transactions().Return(e.repo)
	e.repo.EXPECT().FindByID(gomock.Any(), first.ID()).Return(first, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout",
		strings.NewReader(`{"domain_id":"`+domainID.String()+`","amount":20000,"buyer":{"name":"Budi"}}`))
	req.Header.Set("X-Idempotency-Key", "retry-1")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpdelivery.TransactionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, first.ID().String(), resp.ID)
	assert.Equal(t, payload, resp.QRISData)
}

func TestHandleCheckout_BadRequests(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/api/checkout", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodPost, "/api/checkout", `{"domain_id":"nope","amount":1,"buyer":{"name":"a"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodPost, "/api/checkout", `{"domain_id":"`+uuid.NewString()+`","amount":0,"buyer":{"name":"a"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetTransaction(t *testing.T) {
	e := newEnv(t)
	id := uuid.New()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	txn := entity.ReconstructTransaction(id, uuid.New(), "TRX-20260301-ABCDEF12", 75000, entity.StatusPaid,
		entity.PaymentMethodQRIS, entity.Buyer{Name: "Sari"}, "payload", "", nil, created, created)

	e.uow.EXPECT().Transactions().Return(e.repo)
	e.repo.EXPECT().FindByID(gomock.Any(), id).Return(txn, nil)

	rec := e.do(http.MethodGet, "/api/transactions/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpdelivery.TransactionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "TRX-20260301-ABCDEF12", resp.TransactionID)
	assert.Equal(t, "paid", resp.Status)
}

func TestHandleGetTransaction_Errors(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/api/transactions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := uuid.New()
	e.uow.EXPECT().Transactions().Return(e.repo)
	e.repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, repository.ErrNotFound)

	rec = e.do(http.MethodGet, "/api/transactions/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUpdateStatus(t *testing.T) {
	e := newEnv(t)
	id := uuid.New()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	txn := entity.ReconstructTransaction(id, uuid.New(), "TRX-20260301-ABCDEF12", 75000, entity.StatusPending,
		entity.PaymentMethodQRIS, entity.Buyer{Name: "Sari"}, "payload", "", nil, created, created)

	e.uow.EXPECT().Begin(gomock.Any()).Return(e.txUow, nil)
	e.txUow.EXPECT().Rollback(gomock.Any()).Return(nil)
	e.txUow.EXPECT().Transactions().Return(e.repo).Times(2)
	e.txUow.EXPECT().Commit(gomock.Any()).Return(nil)
	e.repo.EXPECT().FindByIDForUpdate(gomock.Any(), id).Return(txn, nil)
	e.repo.EXPECT().UpdateStatus(gomock.Any(), txn).Return(nil)

	rec := e.do(http.MethodPatch, "/api/admin/transactions/"+id.String()+"/status", `{"status":"paid"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpdelivery.TransactionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "paid", resp.Status)
}

func TestHandleUpdateStatus_Errors(t *testing.T) {
	e := newEnv(t)
	id := uuid.New()

	rec := e.do(http.MethodPatch, "/api/admin/transactions/"+id.String()+"/status", `{"status":"refunded"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	txn := entity.ReconstructTransaction(id, uuid.New(), "TRX-20260301-ABCDEF12", 75000, entity.StatusCancelled,
		entity.PaymentMethodQRIS, entity.Buyer{Name: "Sari"}, "payload", "", nil, created, created)

	e.uow.EXPECT().Begin(gomock.Any()).Return(e.txUow, nil)
	e.txUow.EXPECT().Rollback(gomock.Any()).Return(nil)
	e.txUow.EXPECT().Transactions().Return(e.repo)
	e.repo.EXPECT().FindByIDForUpdate(gomock.Any(), id).Return(txn, nil)

	rec = e.do(http.MethodPatch, "/api/admin/transactions/"+id.String()+"/status", `{"status":"paid"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t)

	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/qris?amount=1000", "").Code)

	rec := e.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "qris_payloads_built_total 1")
}


func TestHandleListTransactions(t *testing.T) {
	e := newEnv(t)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := entity.ReconstructTransaction(uuid.New(), uuid.New(), "TRX-20260301-00000002", 30000,
		entity.StatusPaid, entity.PaymentMethodQRIS, entity.Buyer{Name: "Budi"}, "payload", "", nil, created.Add(time.Hour), created)
	older := entity.ReconstructTransaction(uuid.New(), uuid.New(), "TRX-20260301-00000001", 20000,
		entity.StatusPaid, entity.PaymentMethodQRIS, entity.Buyer{Name: "Sari"}, "payload", "", nil, created, created)

	e.uow.EXPECT().Transactions().Return(e.repo)
	e.repo.EXPECT().
		List(gomock.Any(), repository.TransactionFilter{Status: entity.StatusPaid, Limit: 2}).
		Return([]*entity.Transaction{newer, older}, nil)

	rec := e.do(http.MethodGet, "/api/admin/transactions?status=paid&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []httpdelivery.TransactionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, newer.Code(), resp[0].TransactionID)
	assert.Equal(t, older.Code(), resp[1].TransactionID)
}

func TestHandleListTransactions_Empty(t *testing.T) {
	e := newEnv(t)

	e.uow.EXPECT().Transactions().Return(e.repo)
	e.repo.EXPECT().
		List(gomock.Any(), repository.TransactionFilter{Limit: listtransactions.DefaultLimit}).
		Return(nil, nil)

	rec := e.do(http.MethodGet, "/api/admin/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandleListTransactions_BadRequests(t *testing.T) {
	e := newEnv(t)

	for _, target := range []string{
		"/api/admin/transactions?status=refunded",
		"/api/admin/transactions?limit=ten",
		"/api/admin/transactions?limit=-1",
	} {
		rec := e.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandleStats(t *testing.T) {
	e := newEnv(t)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	recent := entity.ReconstructTransaction(uuid.New(), uuid.New(), "TRX-20260301-ABCDEF12", 500000,
		entity.StatusCompleted, entity.PaymentMethodQRIS, entity.Buyer{Name: "Budi"}, "payload", "", nil, created, created)

	e.uow.EXPECT().Transactions().Return(e.repo)
	e.repo.EXPECT().Stats(gomock.Any()).Return(&repository.TransactionStats{Revenue: 500000, PendingCount: 2}, nil)
	e.repo.EXPECT().
		List(gomock.Any(), repository.TransactionFilter{Limit: dashboard.RecentLimit}).
		Return([]*entity.Transaction{recent}, nil)

	rec := e.do(http.MethodGet, "/api/admin/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpdelivery.StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(500000), resp.TotalRevenue)
	assert.Equal(t, int64(2), resp.PendingTransactions)
	require.Len(t, resp.RecentTransactions, 1)
	assert.Equal(t, recent.ID().String(), resp.RecentTransactions[0].ID)
}
