package handler

import (
	"log/slog"
	"net/http"

	"github.com/ouija/woocommerce-gateway-payza/internal/observability"
	"github.com/ouija/woocommerce-gateway-payza/internal/service"
)

// IPNHandler is the thin adapter between the HTTP surface and the pure
// reconciliation core.
type IPNHandler struct {
	reconciler service.Reconciler
	logger     *slog.Logger
}

func NewIPNHandler(reconciler service.Reconciler, logger *slog.Logger) *IPNHandler {
	return &IPNHandler{reconciler: reconciler, logger: logger}
}

// HandleNotification accepts Payza's server-to-server notification. The
// response is always 200 with an empty body, whatever reconciliation
// decides: any other answer would make Payza retry a notification we have
// already accepted for processing.
func (h *IPNHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	token := r.PostFormValue("token")
	h.logger.Debug("IPN token received", "token_present", token != "")

	outcome := h.reconciler.Reconcile(r.Context(), token)

	observability.EmitAudit(r, h.logger, observability.AuditInput{
		EventName: "payza.ipn.received",
		Outcome:   string(outcome),
	})

	w.WriteHeader(http.StatusOK)
}
