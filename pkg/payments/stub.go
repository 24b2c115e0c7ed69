package payments

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StubProvider is an in-memory provider for development and tests.
type StubProvider struct {
	mu      sync.Mutex
	intents map[string]*Intent
}

func NewStubProvider() *StubProvider {
	return &StubProvider{intents: make(map[string]*Intent)}
}

func (s *StubProvider) CreateIntent(ctx context.Context, params IntentParams) (*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("pi_stub_%d", time.Now().UnixNano())
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_confirmation",
		AmountCents:  params.AmountCents,
		Metadata:     params.Metadata,
	}
	s.intents[id] = intent
	return intent, nil
}

func (s *StubProvider) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if intent, ok := s.intents[id]; ok {
		return intent, nil
	}
	return nil, fmt.Errorf("no such payment intent: %s", id)
}

// SetIntentStatus drives intent state from tests.
func (s *StubProvider) SetIntentStatus(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if intent, ok := s.intents[id]; ok {
		intent.Status = status
		return
	}
	s.intents[id] = &Intent{ID: id, Status: status}
}

func (s *StubProvider) CreatePayout(ctx context.Context, params PayoutParams) (*Payout, error) {
	return &Payout{
		ID:     fmt.Sprintf("po_stub_%d", time.Now().UnixNano()),
		Status: "pending",
	}, nil
}
