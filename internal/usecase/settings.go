package usecase

import (
	"fmt"
	"time"

	"github.com/Ojay1963/Delxta/config"
)

const (
	defaultSessionTTL      = 2 * time.Hour
	defaultReferencePrefix = "delxta"

	myOrdersLimit    = 50
	adminOrdersLimit = 250
)

// Settings is the checkout configuration handed to the usecases at construction time.
type Settings struct {
	DeliveryFee     int64
	SessionTTL      time.Duration
	ReferencePrefix string
	CallbackURL     string
	Now             func() time.Time
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		DeliveryFee:     cfg.DeliveryFee,
		SessionTTL:      cfg.CheckoutSessionTTL,
		ReferencePrefix: cfg.PaymentReferencePrefix,
		CallbackURL:     cfg.PaystackCallbackURL,
	}
}

func (s Settings) withDefaults() Settings {
	if s.SessionTTL <= 0 {
		s.SessionTTL = defaultSessionTTL
	}
	if s.ReferencePrefix == "" {
		s.ReferencePrefix = defaultReferencePrefix
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}

func (s Settings) now() time.Time {
	return s.Now().UTC()
}

// NewPaymentReference embeds the mint time and the session id suffix so support can trace it.
func NewPaymentReference(prefix string, now time.Time, sessionID string) string {
	suffix := sessionID
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), suffix)
}
