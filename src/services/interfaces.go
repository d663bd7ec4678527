package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateService supplies the sell ("venta") rate used to convert USD card
// expenses into the ledger currency. Implementations block on an external
// call; failures must propagate so the enclosing operation fails instead of
// falling back to a default rate.
type RateService interface {
	SellRate(ctx context.Context) (decimal.Decimal, error)
}

// EmailService sends account-lifecycle mail.
type EmailService interface {
	SendVerificationEmail(toEmail, username, token string) error
	SendPasswordResetEmail(toEmail, username, token string) error
}
