package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Ojay1963/Delxta/internal/domain"
)

var (
	nonDigitPattern   = regexp.MustCompile(`\D`)
	cardNumberPattern = regexp.MustCompile(`^\d{13,19}$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cardCVVPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// CardDetails is what the client submits for the simulated card path. No charge is ever made.
type CardDetails struct {
	CardNumber     string `json:"cardNumber"`
	CardHolderName string `json:"cardHolderName"`
	Expiry         string `json:"expiry"`
	CVV            string `json:"cvv"`
}

// ValidateCardDetails checks shape only and keeps the last four digits, never the full number.
func ValidateCardDetails(card CardDetails, now time.Time) (domain.PaymentDetails, error) {
	digits := nonDigitPattern.ReplaceAllString(card.CardNumber, "")
	holder := strings.TrimSpace(card.CardHolderName)
	expiry := strings.TrimSpace(card.Expiry)
	cvv := strings.TrimSpace(card.CVV)

	if !cardNumberPattern.MatchString(digits) ||
		holder == "" ||
		!cardExpiryPattern.MatchString(expiry) ||
		!cardCVVPattern.MatchString(cvv) {
		return domain.PaymentDetails{}, domain.NewValidationError(
			"Complete valid card details are required (card number must be 13-19 digits, expiry MM/YY, CVV 3-4 digits).")
	}

	return domain.PaymentDetails{
		CardReference:  fmt.Sprintf("card_%d", now.UnixMilli()),
		CardLast4:      digits[len(digits)-4:],
		CardHolderName: holder,
		Expiry:         expiry,
	}, nil
}
