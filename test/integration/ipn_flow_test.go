package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ouija/woocommerce-gateway-payza/internal/config"
	"github.com/ouija/woocommerce-gateway-payza/internal/domain"
	"github.com/ouija/woocommerce-gateway-payza/internal/gateway"
	"github.com/ouija/woocommerce-gateway-payza/internal/http/handler"
	"github.com/ouija/woocommerce-gateway-payza/internal/http/middleware"
	"github.com/ouija/woocommerce-gateway-payza/internal/repository"
	"github.com/ouija/woocommerce-gateway-payza/internal/service"
)

// fakeExchange plays the role of Payza's token verification endpoint. It
// records every token it receives and answers with a canned payload.
type fakeExchange struct {
	tokens   []string
	response string
}

func (f *fakeExchange) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.tokens = append(f.tokens, r.PostFormValue("token"))
		fmt.Fprint(w, f.response)
	}
}

type fixture struct {
	repo   repository.OrderRepository
	server *httptest.Server
	payza  *fakeExchange
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Order{}, &domain.OrderItem{}, &domain.OrderNote{}); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	payza := &fakeExchange{}
	exchange := httptest.NewServer(payza.handler())
	t.Cleanup(exchange.Close)

	cfg := &config.Config{
		PublicBaseURL:           "https://shop.example.com",
		Environment:             config.EnvironmentSandbox,
		SandboxEmail:            "sb@example.com",
		SandboxCheckoutURL:      "https://sandbox.payza.test/checkout",
		SandboxIPNURL:           exchange.URL,
		ExchangeTimeout:         5 * time.Second,
		CheckoutRateLimitPerMin: 1000,
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewOrderRepository(db)
	verifier := gateway.NewClient(cfg, log)
	reconciler := service.NewReconcileService(repo, verifier, nil, log)
	orderService := service.NewOrderService(repo, log)
	availability := service.NewAvailabilityService(cfg)

	router := handler.NewRouter(
		handler.NewIPNHandler(reconciler, log),
		handler.NewCheckoutHandler(cfg, repo, orderService, availability, log),
		handler.NewOrderHandler(repo, orderService, log),
		middleware.NewRateLimiter(middleware.NewLocalFixedWindowLimiter(), cfg.CheckoutRateLimitPerMin, time.Minute, middleware.FailOpen),
	)
	app := httptest.NewServer(router)
	t.Cleanup(app.Close)

	return &fixture{repo: repo, server: app, payza: payza}
}

func (f *fixture) seedOrder(t *testing.T, total string) *domain.Order {
	t.Helper()
	order := &domain.Order{
		OrderKey: "wc_order_integration",
		Currency: "USD",
		Total:    decimal.RequireFromString(total),
		Status:   domain.OrderStatusPending,
	}
	if err := f.repo.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func (f *fixture) postIPN(t *testing.T, token string) *http.Response {
	t.Helper()
	resp, err := http.PostForm(f.server.URL+"/ipn/payza", url.Values{"token": {token}})
	if err != nil {
		t.Fatalf("post IPN: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) reload(t *testing.T, id uint) *domain.Order {
	t.Helper()
	order, err := f.repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	return order
}

func TestIPNFlowCompletesOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "50.00")
	f.payza.response = fmt.Sprintf(
		"ap_status=Success&ap_totalamount=50.00&ap_netamount=47.55&ap_feeamount=2.45&ap_referencenumber=REF-1000&apc_1=%d&apc_2=%s",
		order.ID, order.OrderKey)

	resp := f.postIPN(t, "tok-e2e-success")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Fatalf("body = %q, want empty", body)
	}
	if len(f.payza.tokens) != 1 || f.payza.tokens[0] != "tok-e2e-success" {
		t.Fatalf("exchanged tokens = %v", f.payza.tokens)
	}

	got := f.reload(t, order.ID)
	if got.Status != domain.OrderStatusCompleted {
		t.Fatalf("order status = %q, want completed", got.Status)
	}
	if got.PaidAt == nil {
		t.Fatal("expected paid timestamp")
	}
	if ref := got.Metadata["referencenumber"]; ref != "REF-1000" {
		t.Fatalf("referencenumber = %v, want REF-1000", ref)
	}
	if len(got.Notes) != 1 || got.Notes[0].Note != "Payza payment completed" {
		t.Fatalf("notes = %+v", got.Notes)
	}
}

func TestIPNFlowFailedStatusFailsOrder(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "50.00")
	f.payza.response = fmt.Sprintf("ap_status=Failed&apc_1=%d", order.ID)

	resp := f.postIPN(t, "tok-e2e-failed")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := f.reload(t, order.ID)
	if got.Status != domain.OrderStatusFailed {
		t.Fatalf("order status = %q, want failed", got.Status)
	}
	if len(got.Notes) != 1 || !strings.Contains(got.Notes[0].Note, "IPN status: Failed") {
		t.Fatalf("notes = %+v", got.Notes)
	}
}

func TestIPNFlowReplayedNotificationLeavesOrderCompleted(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "19.99")
	f.payza.response = fmt.Sprintf(
		"ap_status=Success&ap_totalamount=19.99&ap_netamount=18.99&ap_feeamount=1.00&apc_1=%d", order.ID)

	f.postIPN(t, "tok-e2e-replay")
	f.postIPN(t, "tok-e2e-replay")

	got := f.reload(t, order.ID)
	if got.Status != domain.OrderStatusCompleted {
		t.Fatalf("order status = %q, want completed", got.Status)
	}
	if len(got.Notes) != 1 {
		t.Fatalf("expected a single completion note, got %d", len(got.Notes))
	}
	if len(f.payza.tokens) != 2 {
		t.Fatalf("exchanged tokens = %v, want both forwarded", f.payza.tokens)
	}
}

func TestIPNFlowInvalidTokenResponseLeavesOrderPending(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, "50.00")
	f.payza.response = "INVALID TOKEN"

	resp := f.postIPN(t, "tok-e2e-invalid")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := f.reload(t, order.ID)
	if got.Status != domain.OrderStatusPending {
		t.Fatalf("order status = %q, want pending", got.Status)
	}
}
