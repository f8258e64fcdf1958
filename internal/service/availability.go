package service

import (
	"errors"

	"github.com/ouija/woocommerce-gateway-payza/internal/config"
)

var (
	ErrMerchantNotConfigured = errors.New("payza merchant email is not configured")
	ErrIPNNotConfigured      = errors.New("payza IPN alert URL has not been certified for live mode")
	ErrCurrencyNotSupported  = errors.New("currency is not supported by payza")
)

// Currencies Payza accepts.
// Reference: https://dev.payza.com/resources/references/currency-codes
var supportedCurrencies = map[string]struct{}{
	"AUD": {}, "BGN": {}, "CAD": {}, "CHF": {}, "CZK": {}, "DKK": {},
	"EEK": {}, "EUR": {}, "GBP": {}, "HKD": {}, "HUF": {}, "INR": {},
	"LTL": {}, "MYR": {}, "MKD": {}, "NOK": {}, "NZD": {}, "PLN": {},
	"RON": {}, "SEK": {}, "SGD": {}, "USD": {}, "ZAR": {},
}

type AvailabilityService struct {
	cfg *config.Config
}

func NewAvailabilityService(cfg *config.Config) *AvailabilityService {
	return &AvailabilityService{cfg: cfg}
}

// Available reports whether the gateway can take a payment in the given
// currency. Live mode additionally requires the merchant to have
// registered the IPN alert URL with Payza, since it cannot be transmitted
// over the request channel.
func (s *AvailabilityService) Available(currency string) error {
	if s.cfg.MerchantEmail() == "" {
		return ErrMerchantNotConfigured
	}
	if !s.cfg.IsSandbox() && !s.cfg.IPNConfigured {
		return ErrIPNNotConfigured
	}
	if _, ok := supportedCurrencies[currency]; !ok {
		return ErrCurrencyNotSupported
	}
	return nil
}
