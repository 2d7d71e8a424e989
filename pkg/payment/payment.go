// Package payment talks to the card payment provider. The server creates an
// intent, the client confirms it with the returned secret, and the server
// reads the intent back to check the charge before recording it.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrProvider wraps every failure talking to the provider. Intent creation
// writes nothing locally, so callers can retry.
var ErrProvider = errors.New("payment provider failure")

// ErrIntentNotFound means the provider has no intent with the given id.
var ErrIntentNotFound = errors.New("payment intent not found")

// StatusSucceeded is the intent status of a captured charge.
const StatusSucceeded = "succeeded"

// Intent is a provider-side payment intent.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`

	Metadata map[string]string `json:"metadata"`
}

// Succeeded reports whether the charge went through.
func (i *Intent) Succeeded() bool { return i.Status == StatusSucceeded }

// IntentRequest describes the charge. Amount is in minor units.
type IntentRequest struct {
	Amount         int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

// Provider creates payment intents and reads them back once the client has
// confirmed them.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	ConfirmIntent(ctx context.Context, id string) (*Intent, error)
	Name() string
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a price in major units to minor units, rounding half
// away from zero: 19.99 becomes 1999. Prices must be positive.
func ToMinorUnits(price float64) (int64, error) {
	d := decimal.NewFromFloat(price)
	if !d.IsPositive() {
		return 0, fmt.Errorf("payment: price must be positive, got %s", d.String())
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}
