package gateway

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseNotificationSuccessPayload(t *testing.T) {
	body := "ap_status=Success&ap_totalamount=50.00&ap_netamount=48.50&ap_feeamount=1.50&apc_1=42&apc_2=wc_order_abc&ap_referencenumber=XYZ"
	n, err := ParseNotification(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n.Status != StatusSuccess {
		t.Fatalf("status = %q", n.Status)
	}
	if n.OrderID != 42 || n.OrderKey != "wc_order_abc" {
		t.Fatalf("correlation = %d/%q", n.OrderID, n.OrderKey)
	}
	if !n.TotalAmount.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("total = %s", n.TotalAmount)
	}
	if !n.NetAmount.Equal(decimal.RequireFromString("48.50")) || !n.FeeAmount.Equal(decimal.RequireFromString("1.50")) {
		t.Fatalf("net/fee = %s/%s", n.NetAmount, n.FeeAmount)
	}
	if n.ReferenceNumber != "XYZ" {
		t.Fatalf("reference = %q", n.ReferenceNumber)
	}
	if n.Test {
		t.Fatal("expected live notification")
	}
}

func TestParseNotificationFailurePayloadWithoutAmounts(t *testing.T) {
	n, err := ParseNotification("ap_status=Failed&apc_1=42")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n.Status != "Failed" {
		t.Fatalf("status = %q", n.Status)
	}
	if !n.TotalAmount.IsZero() {
		t.Fatalf("total = %s, want zero default", n.TotalAmount)
	}
}

func TestParseNotificationInvalidToken(t *testing.T) {
	if _, err := ParseNotification("INVALID TOKEN"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseNotificationMissingRequiredFields(t *testing.T) {
	var decodeErr *DecodeError

	_, err := ParseNotification("ap_totalamount=50.00&apc_1=42")
	if !errors.As(err, &decodeErr) || decodeErr.Field != "ap_status" {
		t.Fatalf("expected ap_status decode error, got %v", err)
	}

	_, err = ParseNotification("ap_status=Success")
	if !errors.As(err, &decodeErr) || decodeErr.Field != "apc_1" {
		t.Fatalf("expected apc_1 decode error, got %v", err)
	}

	_, err = ParseNotification("ap_status=Success&apc_1=not-a-number")
	if !errors.As(err, &decodeErr) || decodeErr.Field != "apc_1" {
		t.Fatalf("expected apc_1 decode error, got %v", err)
	}
}

func TestParseNotificationGarbledAmount(t *testing.T) {
	var decodeErr *DecodeError
	_, err := ParseNotification("ap_status=Success&apc_1=42&ap_totalamount=fifty")
	if !errors.As(err, &decodeErr) || decodeErr.Field != "ap_totalamount" {
		t.Fatalf("expected ap_totalamount decode error, got %v", err)
	}
}

func TestParseNotificationTestFlag(t *testing.T) {
	cases := map[string]bool{
		"ap_status=Success&apc_1=1&ap_test=1":     true,
		"ap_status=Success&apc_1=1&ap_test=true":  true,
		"ap_status=Success&apc_1=1&ap_test=0":     false,
		"ap_status=Success&apc_1=1&ap_test=false": false,
		"ap_status=Success&apc_1=1&ap_test=":      false,
		"ap_status=Success&apc_1=1":               false,
	}
	for body, want := range cases {
		n, err := ParseNotification(body)
		if err != nil {
			t.Fatalf("parse %q: %v", body, err)
		}
		if n.Test != want {
			t.Fatalf("Test for %q = %v, want %v", body, n.Test, want)
		}
	}
}
