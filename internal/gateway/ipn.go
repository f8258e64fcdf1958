package gateway

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// StatusSuccess is the only ap_status value that confirms a payment.
const StatusSuccess = "Success"

// invalidTokenBody is the literal response Payza sends when the exchanged
// token is unknown or expired.
const invalidTokenBody = "INVALID TOKEN"

// ErrInvalidToken indicates Payza rejected the token during exchange.
var ErrInvalidToken = errors.New("invalid IPN token")

// DecodeError reports a required or malformed field in an IPN payload.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode IPN field %s: %s", e.Field, e.Reason)
}

// Notification is the verified transaction detail record obtained by
// exchanging an IPN token.
type Notification struct {
	Status          string
	TotalAmount     decimal.Decimal
	NetAmount       decimal.Decimal
	FeeAmount       decimal.Decimal
	ReferenceNumber string
	OrderID         uint
	OrderKey        string
	Test            bool

	// Raw keeps the full decoded payload for debug logging.
	Raw map[string]string
}

// ParseNotification decodes the ampersand-joined key=value exchange
// response body into a typed record. Values are deliberately not URL-decoded
// further; Payza sends them verbatim. ap_status and apc_1 must be present;
// amount fields are optional in failure payloads and default to zero, but a
// present amount that fails to parse is a decode error.
func ParseNotification(body string) (*Notification, error) {
	if body == invalidTokenBody {
		return nil, ErrInvalidToken
	}

	raw := make(map[string]string)
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		raw[key] = value
	}

	n := &Notification{Raw: raw}

	status, ok := raw["ap_status"]
	if !ok || status == "" {
		return nil, &DecodeError{Field: "ap_status", Reason: "missing"}
	}
	n.Status = status

	orderID, ok := raw[FieldOrderID]
	if !ok || orderID == "" {
		return nil, &DecodeError{Field: FieldOrderID, Reason: "missing"}
	}
	id, err := strconv.ParseUint(orderID, 10, 32)
	if err != nil {
		return nil, &DecodeError{Field: FieldOrderID, Reason: "not a valid order id"}
	}
	n.OrderID = uint(id)
	n.OrderKey = raw[FieldOrderKey]

	if n.TotalAmount, err = amountField(raw, "ap_totalamount"); err != nil {
		return nil, err
	}
	if n.NetAmount, err = amountField(raw, "ap_netamount"); err != nil {
		return nil, err
	}
	if n.FeeAmount, err = amountField(raw, "ap_feeamount"); err != nil {
		return nil, err
	}

	n.ReferenceNumber = raw["ap_referencenumber"]
	n.Test = truthy(raw["ap_test"])

	return n, nil
}

func amountField(raw map[string]string, field string) (decimal.Decimal, error) {
	v, ok := raw[field]
	if !ok || v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, &DecodeError{Field: field, Reason: "not a valid amount"}
	}
	return d, nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no":
		return false
	default:
		return true
	}
}
