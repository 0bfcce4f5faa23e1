package payment

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StubProvider is an in-process gateway for development and tests. Every
// initialized transaction verifies as successful for the initialized amount.
type StubProvider struct {
	Secret  string
	BaseURL string

	mu      sync.Mutex
	amounts map[string]int64
	seq     int
}

func NewStubProvider(secret string) *StubProvider {
	return &StubProvider{Secret: secret, BaseURL: "https://checkout.stub.local", amounts: make(map[string]int64)}
}

func (s *StubProvider) Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := req.Reference
	if ref == "" {
		s.seq++
		ref = fmt.Sprintf("stub_%d_%d", time.Now().UnixNano(), s.seq)
	}
	s.amounts[ref] = ToMinor(req.Amount)
	return &Initialization{
		AuthorizationURL: s.BaseURL + "/" + ref,
		AccessCode:       "stub_access_" + ref,
		Reference:        ref,
	}, nil
}

func (s *StubProvider) Verify(ctx context.Context, reference string) (*Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	minor, ok := s.amounts[reference]
	if !ok {
		return nil, &GatewayError{Op: "verify", StatusCode: 404, Message: "transaction reference not found"}
	}
	return &Verification{
		Status:      StatusSuccess,
		Reference:   reference,
		Amount:      FromMinor(minor),
		AmountMinor: minor,
	}, nil
}

func (s *StubProvider) VerifySignature(rawBody []byte, signature string) bool {
	return ValidSignature(rawBody, signature, s.Secret)
}

var _ Gateway = (*StubProvider)(nil)
