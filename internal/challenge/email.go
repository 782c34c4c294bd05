package challenge

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/nexshop/identity/internal/idgen"
	"github.com/nexshop/identity/internal/mailer"
)

const emailCodeDigits = 6

// Email issues challenges delivered as a 6-digit code over mail.
type Email struct {
	store  *Store
	sender mailer.Sender
}

// NewEmail creates the email challenger.
func NewEmail(store *Store, sender mailer.Sender) *Email {
	return &Email{store: store, sender: sender}
}

func (e *Email) Kind() Kind { return KindEmail }

// Initiate generates a code, stores the record, then dispatches delivery.
// The record is stored before the send so a verify racing the delivery
// always has something to check against. A failed send removes the record
// and surfaces as an initiate-level error; the caller never learned the
// code, so the orphan would only wait out its TTL.
func (e *Email) Initiate(ctx context.Context, p InitiateParams) (*Issued, error) {
	if p.Email == "" {
		return nil, ErrEmailRequired
	}

	code := idgen.Digits(emailCodeDigits)
	rec := e.store.Create(Record{Kind: KindEmail, Code: code, Email: p.Email}, p.TTL)

	subject := "Your verification code"
	body := fmt.Sprintf("Your verification code is: %s", code)
	if err := e.sender.Send(ctx, p.Email, subject, body); err != nil {
		e.store.Delete(rec.ID)
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return &Issued{ChallengeID: rec.ID, Sent: true}, nil
}

// Check compares codes in constant time for equal lengths, so response
// timing reveals nothing about how many digits matched.
func (e *Email) Check(rec Record, resp Response) (Outcome, error) {
	ok := len(resp.Code) == len(rec.Code) &&
		subtle.ConstantTimeCompare([]byte(resp.Code), []byte(rec.Code)) == 1
	return Outcome{Verified: ok}, nil
}
