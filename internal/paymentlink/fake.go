package paymentlink

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FakeIssuer mints local links without an external call. It backs
// development environments with no provider configured and doubles as a
// test seam.
type FakeIssuer struct {
	mu     sync.Mutex
	issued []IssueRequest

	// Fail, when set, makes every Issue call return this error.
	Fail error
}

func NewFakeIssuer() *FakeIssuer { return &FakeIssuer{} }

func (f *FakeIssuer) Issue(_ context.Context, req IssueRequest) (PaymentLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail != nil {
		return PaymentLink{}, f.Fail
	}
	f.issued = append(f.issued, req)
	id := uuid.NewString()
	return PaymentLink{
		ID:  "plink_" + id,
		URL: fmt.Sprintf("https://pay.folio.local/l/%s", id),
	}, nil
}

// Issued returns a copy of every request seen so far.
func (f *FakeIssuer) Issued() []IssueRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]IssueRequest, len(f.issued))
	copy(out, f.issued)
	return out
}
