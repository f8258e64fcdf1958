package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ouija/woocommerce-gateway-payza/internal/domain"
	"github.com/ouija/woocommerce-gateway-payza/internal/gateway"
	"github.com/ouija/woocommerce-gateway-payza/internal/repository"
)

// Outcome classifies how a single IPN notification was resolved. Whatever
// the outcome, the webhook is acknowledged with HTTP 200 so Payza does not
// retry indefinitely; only status, amount and fee mismatches mutate the
// order (to failed), and Completed is the sole path to a paid order.
type Outcome string

const (
	OutcomeMalformedToken    Outcome = "malformed_token"
	OutcomeExchangeError     Outcome = "exchange_error"
	OutcomeEmptyResponse     Outcome = "empty_response"
	OutcomeInvalidToken      Outcome = "invalid_token"
	OutcomeDecodeError       Outcome = "decode_error"
	OutcomeOrderNotFound     Outcome = "order_not_found"
	OutcomeStatusMismatch    Outcome = "status_mismatch"
	OutcomeAmountMismatch    Outcome = "amount_mismatch"
	OutcomeFeeMismatch       Outcome = "fee_mismatch"
	OutcomeAlreadyReconciled Outcome = "already_reconciled"
	OutcomeCompleted         Outcome = "completed"
)

// tokenTTL bounds how long a processed token is remembered for replay
// short-circuiting.
const tokenTTL = 24 * time.Hour

// Reconciler resolves an inbound IPN token against exactly one order.
type Reconciler interface {
	Reconcile(ctx context.Context, token string) Outcome
}

type ReconcileService struct {
	orders   repository.OrderRepository
	verifier gateway.Verifier
	tokens   TokenStore
	logger   *slog.Logger
}

// NewReconcileService builds the reconciler. tokens may be nil when no
// redis is configured; the service degrades to order-level idempotence
// only.
func NewReconcileService(orders repository.OrderRepository, verifier gateway.Verifier, tokens TokenStore, logger *slog.Logger) *ReconcileService {
	return &ReconcileService{orders: orders, verifier: verifier, tokens: tokens, logger: logger}
}

// Reconcile runs the linear verification machine: exchange the token,
// decode the payload, locate the order, check status, total and fees, then
// complete the payment unless the order was already reconciled. Every
// aborting branch leaves the order untouched except the explicit failed
// transitions, which are the designed error-reporting mechanism.
func (s *ReconcileService) Reconcile(ctx context.Context, token string) Outcome {
	token = strings.TrimSpace(token)
	if token == "" {
		s.logger.Debug("dropping IPN with empty token")
		return OutcomeMalformedToken
	}

	if replayed, outcome := s.beginToken(ctx, token); replayed {
		return outcome
	}

	body, err := s.verifier.Exchange(ctx, token)
	if err != nil {
		if errors.Is(err, gateway.ErrEmptyResponse) {
			s.logger.Debug("empty IPN response from payza")
			return OutcomeEmptyResponse
		}
		s.logger.Debug("IPN exchange failed", "error", err)
		return OutcomeExchangeError
	}

	n, err := gateway.ParseNotification(body)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidToken) {
			s.logger.Debug("invalid token IPN response from payza")
			return s.completeToken(ctx, token, OutcomeInvalidToken)
		}
		s.logger.Debug("undecodable IPN response", "error", err, "body", body)
		return OutcomeDecodeError
	}

	order, err := s.orders.FindByID(ctx, n.OrderID)
	if err != nil {
		s.logger.Debug("IPN references unknown order", "order_id", n.OrderID, "error", err)
		return OutcomeOrderNotFound
	}

	// A payload carrying the wrong order key is a forged or misrouted
	// correlation, not a payment failure; treat it like an unknown order.
	if n.OrderKey != "" && n.OrderKey != order.OrderKey {
		s.logger.Debug("IPN order key mismatch", "order_id", n.OrderID)
		return OutcomeOrderNotFound
	}

	if n.Status != gateway.StatusSuccess {
		s.markFailed(ctx, order, fmt.Sprintf("Payza payment failed (IPN status: %s)", n.Status))
		return s.completeToken(ctx, token, OutcomeStatusMismatch)
	}

	if cents(n.TotalAmount) != cents(order.Total) {
		s.markFailed(ctx, order, fmt.Sprintf(
			"Payza payment failed (IPN total amount %s does not equal order total %s)",
			gateway.FormatAmount(n.TotalAmount), gateway.FormatAmount(order.Total)))
		return s.completeToken(ctx, token, OutcomeAmountMismatch)
	}

	// Fee reconciliation guards against a manipulated notification
	// under-reporting fees to fake a discount. Payza does not populate net
	// and fee amounts for test-mode transactions.
	if !n.Test && cents(n.TotalAmount) != cents(n.NetAmount)+cents(n.FeeAmount) {
		s.markFailed(ctx, order, fmt.Sprintf(
			"Payza payment failed. Possible fraudulent discount (IPN total amount %s not equal to net amount %s + fee amount %s)",
			gateway.FormatAmount(n.TotalAmount), gateway.FormatAmount(n.NetAmount), gateway.FormatAmount(n.FeeAmount)))
		return s.completeToken(ctx, token, OutcomeFeeMismatch)
	}

	if !order.NeedsPayment() {
		return s.completeToken(ctx, token, OutcomeAlreadyReconciled)
	}

	note := "Payza payment completed"
	if n.Test {
		note = "Test Mode Payza payment completed"
	}
	if err := s.orders.MarkCompleted(ctx, order, note); err != nil {
		s.logger.Error("failed to complete order payment", "order_id", order.ID, "error", err)
		return OutcomeExchangeError
	}
	if n.ReferenceNumber != "" {
		if err := s.orders.SetMetadata(ctx, order, "referencenumber", n.ReferenceNumber); err != nil {
			s.logger.Error("failed to store payment reference", "order_id", order.ID, "error", err)
		}
	}

	s.logger.Info("payza payment reconciled", "order_id", order.ID, "test_mode", n.Test)
	return s.completeToken(ctx, token, OutcomeCompleted)
}

func (s *ReconcileService) markFailed(ctx context.Context, order *domain.Order, reason string) {
	s.logger.Debug("IPN reconciliation rejected", "order_id", order.ID, "reason", reason)
	if err := s.orders.MarkFailed(ctx, order, reason); err != nil {
		s.logger.Error("failed to mark order failed", "order_id", order.ID, "error", err)
	}
}

// beginToken consults the processed-token store. Store failures never block
// reconciliation; the needs-payment gate remains authoritative.
func (s *ReconcileService) beginToken(ctx context.Context, token string) (bool, Outcome) {
	if s.tokens == nil {
		return false, ""
	}
	res, err := s.tokens.Begin(ctx, token, tokenTTL)
	if err != nil {
		s.logger.Warn("token store unavailable, continuing without replay cache", "error", err)
		return false, ""
	}
	if res.State == TokenStateReplay {
		s.logger.Debug("IPN token replay short-circuited", "outcome", res.Outcome)
		return true, Outcome(res.Outcome)
	}
	return false, ""
}

func (s *ReconcileService) completeToken(ctx context.Context, token string, outcome Outcome) Outcome {
	if s.tokens != nil {
		if err := s.tokens.Complete(ctx, token, string(outcome), tokenTTL); err != nil {
			s.logger.Warn("failed to record processed token", "error", err)
		}
	}
	return outcome
}

// cents converts an amount to integer cents by truncation toward zero,
// matching Payza's documented comparison semantics: 19.995 compares as
// 1999, not 2000.
func cents(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).IntPart()
}
