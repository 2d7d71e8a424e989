package payment

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Sandbox issues fake intents without leaving the process. It is used when no
// provider key is configured. Its intents count as paid as soon as they
// exist, since there is no client-side confirmation to wait for.
type Sandbox struct {
	mu      sync.Mutex
	intents map[string]Intent
}

func NewSandbox() *Sandbox {
	return &Sandbox{intents: make(map[string]Intent)}
}

func (*Sandbox) Name() string { return "sandbox" }

func (s *Sandbox) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := "pi_sandbox_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent := Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       StatusSucceeded,
		Metadata:     maps.Clone(req.Metadata),
	}

	s.mu.Lock()
	s.intents[id] = intent
	s.mu.Unlock()
	return &intent, nil
}

func (s *Sandbox) ConfirmIntent(ctx context.Context, id string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	intent, ok := s.intents[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIntentNotFound, id)
	}
	return &intent, nil
}

// New picks Stripe when a secret key is set and the sandbox otherwise.
func New(secretKey, baseURL string) Provider {
	if secretKey == "" {
		return NewSandbox()
	}
	return NewStripe(secretKey, baseURL)
}
