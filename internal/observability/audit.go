package observability

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// AuditInput describes a payment-relevant state change worth a durable
// structured log record, such as an order completing or an IPN being
// rejected.
type AuditInput struct {
	EventName string
	OrderID   uint
	Outcome   string
	Reason    string
}

// EmitAudit writes a structured audit event correlated with the inbound
// request id.
func EmitAudit(r *http.Request, logger *slog.Logger, in AuditInput, extra ...any) {
	if logger == nil {
		return
	}
	attrs := []any{
		"audit", true,
		"event", in.EventName,
		"outcome", in.Outcome,
	}
	if in.OrderID != 0 {
		attrs = append(attrs, "order_id", in.OrderID)
	}
	if in.Reason != "" {
		attrs = append(attrs, "reason", in.Reason)
	}
	if r != nil {
		if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
			attrs = append(attrs, "request_id", reqID)
		}
	}
	attrs = append(attrs, extra...)
	logger.Info("audit_event", attrs...)
}
