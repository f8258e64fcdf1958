// Package gateway implements the Payza wire protocol: the hosted-checkout
// button parameters and the IPN v2 token-exchange handshake.
//
// References:
//
//	https://dev.payza.com/resources/references/payza-button-parameters
//	https://dev.payza.com/integration-tools/html-integration/ipn-guide-v2
package gateway

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ouija/woocommerce-gateway-payza/internal/config"
	"github.com/ouija/woocommerce-gateway-payza/internal/domain"
)

// Correlation fields echoed back in the IPN payload. apc_1 carries the
// order id, apc_2 the anti-tampering order key.
const (
	FieldOrderID  = "apc_1"
	FieldOrderKey = "apc_2"
)

// BuildCheckoutParams assembles the field set for the auto-submitted form
// POST to the Payza hosted checkout page. Pure data transformation, no I/O.
func BuildCheckoutParams(cfg *config.Config, order *domain.Order) map[string]string {
	params := map[string]string{
		"ap_purchasetype": "item",
		"ap_merchant":     cfg.MerchantEmail(),
		"ap_currency":     order.Currency,

		"ap_returnurl": returnURL(cfg, order),
		"ap_cancelurl": cancelURL(cfg, order),

		"ap_fname":         order.BillingFirstName,
		"ap_lname":         order.BillingLastName,
		"ap_addressline1":  order.BillingAddress1,
		"ap_addressline2":  order.BillingAddress2,
		"ap_city":          order.BillingCity,
		"ap_stateprovince": order.BillingState,
		"ap_zippostalcode": order.BillingPostcode,
		"ap_country":       order.BillingCountry,
		"ap_contactemail":  order.BillingEmail,
		"ap_contactphone":  order.BillingPhone,

		FieldOrderID:  strconv.FormatUint(uint64(order.ID), 10),
		FieldOrderKey: order.OrderKey,
	}

	// The alert URL must not be sent over the request channel in live mode;
	// Payza requires it to be pre-registered in the merchant account. In
	// sandbox mode sending it spares the merchant that setup step.
	if cfg.IsSandbox() {
		params["ap_ipnversion"] = "2"
		params["ap_alerturl"] = cfg.IPNListenerURL()
	}

	params["ap_additionalcharges"] = FormatAmount(decimal.Zero)
	params["ap_shippingcharges"] = FormatAmount(order.ShippingTotal)
	params["ap_taxamount"] = FormatAmount(order.TaxTotal)
	params["ap_discountamount"] = FormatAmount(order.DiscountTotal)

	for name, value := range itemParams(order.Items) {
		params[name] = value
	}

	return params
}

// itemParams enumerates order items with Payza's positional suffix scheme:
// the first item is unsuffixed, then _1, _2, and so on. Items with a
// non-positive quantity are skipped and do not consume a suffix.
func itemParams(items []domain.OrderItem) map[string]string {
	params := make(map[string]string)
	loop := 0
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		suffix := ""
		if loop > 0 {
			suffix = "_" + strconv.Itoa(loop)
		}
		params["ap_itemname"+suffix] = item.Name
		params["ap_amount"+suffix] = FormatAmount(item.UnitPrice)
		params["ap_quantity"+suffix] = strconv.Itoa(item.Quantity)
		if item.Description != "" {
			params["ap_description"+suffix] = item.Description
		}
		if item.SKU != "" {
			params["ap_itemcode"+suffix] = item.SKU
		}
		loop++
	}
	return params
}

// FormatAmount renders a monetary amount with exactly two decimal digits
// and a literal period separator, independent of locale.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func returnURL(cfg *config.Config, order *domain.Order) string {
	return fmt.Sprintf("%s/checkout/order-received/%d?key=%s",
		cfg.PublicBaseURL, order.ID, url.QueryEscape(order.OrderKey))
}

func cancelURL(cfg *config.Config, order *domain.Order) string {
	return fmt.Sprintf("%s/checkout/%d/cancel?key=%s",
		cfg.PublicBaseURL, order.ID, url.QueryEscape(order.OrderKey))
}
