package payment

import (
	"context"
	"fmt"
	gohttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/http"
)

const defaultStripeBase = "https://api.stripe.com"

// Stripe creates and reads intents through the Stripe REST API.
type Stripe struct {
	secretKey string
	baseURL   string
}

func NewStripe(secretKey, baseURL string) *Stripe {
	if baseURL == "" {
		baseURL = defaultStripeBase
	}
	return &Stripe{secretKey: secretKey, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Stripe) Name() string { return "stripe" }

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Stripe) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", req.Currency)
	form.Add("payment_method_types[]", "card")
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	call := http.Post(s.baseURL+"/v1/payment_intents").
		WithContext(ctx).
		Bearer(s.secretKey).
		Form(form).
		Timeout(10*time.Second).
		Retry(3, 200*time.Millisecond)
	if req.IdempotencyKey != "" {
		call = call.Header("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := call.Send()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if !resp.OK() {
		return nil, providerError(resp)
	}

	var intent Intent
	if err := resp.Decode(&intent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if intent.ClientSecret == "" {
		return nil, fmt.Errorf("%w: response has no client secret", ErrProvider)
	}
	return &intent, nil
}

// ConfirmIntent fetches the intent so the caller can check its status and
// amount. An unknown id yields ErrIntentNotFound.
func (s *Stripe) ConfirmIntent(ctx context.Context, id string) (*Intent, error) {
	if id == "" {
		return nil, ErrIntentNotFound
	}

	resp, err := http.Get(s.baseURL + "/v1/payment_intents/" + url.PathEscape(id)).
		WithContext(ctx).
		Bearer(s.secretKey).
		Timeout(10*time.Second).
		Retry(3, 200*time.Millisecond).
		Send()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if resp.StatusCode == gohttp.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIntentNotFound, id)
	}
	if !resp.OK() {
		return nil, providerError(resp)
	}

	var intent Intent
	if err := resp.Decode(&intent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if intent.ID != id {
		return nil, fmt.Errorf("%w: asked for intent %s, got %q", ErrProvider, id, intent.ID)
	}
	return &intent, nil
}

// providerError describes a non-2xx response, preferring Stripe's own message.
func providerError(resp *http.Response) error {
	var se stripeError
	msg := ""
	if resp.Decode(&se) == nil {
		msg = se.Error.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(resp.Raw))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}
	if msg == "" {
		msg = gohttp.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, msg)
}
