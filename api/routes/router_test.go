package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/reelpass-backend/internal/inventory"
	"github.com/angelmondragon/reelpass-backend/internal/payouts"
	pkgAuth "github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}}
}

func (m *memoryRedis) Ping(context.Context) error { return nil }

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryRedis) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return true, 1, nil
}

type stubSeats struct{}

func (stubSeats) Snapshot(_ context.Context, showtimeID uuid.UUID) (*inventory.Availability, error) {
	return &inventory.Availability{
		Showtime:       &models.Showtime{ID: showtimeID, TotalCapacity: 2, AvailableCount: 1},
		Seats:          []inventory.SeatState{{SeatID: "A1", Taken: true}, {SeatID: "A2"}},
		TotalSeats:     2,
		AvailableCount: 1,
	}, nil
}

type stubPayouts struct{}

func (stubPayouts) RequestWithdrawal(context.Context, payouts.RequestInput) (*models.VendorWithdrawal, error) {
	return nil, errors.New("not implemented")
}

func (stubPayouts) RetryWithdrawal(context.Context, uuid.UUID, pkgAuth.Actor) (*payouts.Result, error) {
	return nil, errors.New("not implemented")
}

func (stubPayouts) CancelWithdrawal(context.Context, uuid.UUID, pkgAuth.Actor) (*models.VendorWithdrawal, error) {
	return nil, errors.New("not implemented")
}

func (stubPayouts) GetTransferStatus(context.Context, string) (enums.PayoutStatus, error) {
	return enums.PayoutStatusSuccess, nil
}

func (stubPayouts) GetWithdrawal(context.Context, uuid.UUID, pkgAuth.Actor) (*models.VendorWithdrawal, error) {
	return nil, errors.New("not implemented")
}

func (stubPayouts) ListWithdrawals(context.Context, uuid.UUID, int, pkgAuth.Actor) ([]models.VendorWithdrawal, error) {
	return []models.VendorWithdrawal{}, nil
}

type failingWebhooks struct {
	calls int
}

func (f *failingWebhooks) HandleWebhook(context.Context, string, []byte, http.Header) error {
	f.calls++
	return errors.New("boom")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "reelpass-test", ExpirationMinutes: 60},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func newTestRouter(cfg *config.Config, svc Services) http.Handler {
	return NewRouter(cfg, testLogger(), stubPinger{}, newMemoryRedis(), prometheus.NewRegistry(), svc)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole, vendorID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		VendorID: vendorID,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-ReelPass-Env") != "test" {
		t.Fatalf("expected env header, got %q", resp.Header().Get("X-ReelPass-Env"))
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}

func TestSeatMapIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), Services{Seats: stubSeats{}})
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/showtimes/"+uuid.NewString()+"/seats", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Data struct {
			Seats          []inventory.SeatState `json:"seats"`
			TotalSeats     int                   `json:"totalSeats"`
			AvailableCount int                   `json:"availableCount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.TotalSeats != 2 || payload.Data.AvailableCount != 1 || len(payload.Data.Seats) != 2 {
		t.Fatalf("unexpected seat map %+v", payload.Data)
	}
}

func TestBookingsRequireJWT(t *testing.T) {
	router := newTestRouter(testConfig(), Services{})
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestBookingCreateRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Services{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser, nil))
	resp := serve(router, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Idempotency-Key") {
		t.Fatalf("expected idempotency error, got %s", resp.Body.String())
	}
}

func TestVendorGroupRequiresVendorRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Services{Payouts: stubPayouts{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/withdrawals", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleUser, nil))
	if resp := serve(router, req); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user got %d", resp.Code)
	}

	vendorID := uuid.New()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/vendor/withdrawals", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleVendor, &vendorID))
	if resp := serve(router, req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for vendor got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Services{Payouts: stubPayouts{}})
	vendorID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/payouts/transfers/wd_1", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleVendor, &vendorID))
	if resp := serve(router, req); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for vendor got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/payouts/transfers/wd_1", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin, nil))
	resp := serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"transferId":"wd_1"`) {
		t.Fatalf("expected transfer id echoed, got %s", resp.Body.String())
	}
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	hooks := &failingWebhooks{}
	router := newTestRouter(testConfig(), Services{Webhooks: hooks})
	for _, kind := range []string{"bookings", "video", "vendor"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/"+kind+"/payment/webhook/razorpay", strings.NewReader(`{"event":"payment.captured"}`))
		if resp := serve(router, req); resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", kind, resp.Code)
		}
	}
	if hooks.calls != 3 {
		t.Fatalf("expected 3 webhook calls got %d", hooks.calls)
	}
}
