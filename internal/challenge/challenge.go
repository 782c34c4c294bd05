// Package challenge implements the step-up challenge lifecycle: issuance,
// TTL-bounded storage, verification, and single-use consumption across the
// OTP, EMAIL, and BIOMETRIC kinds.
package challenge

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Kind identifies a challenge mechanism.
type Kind string

const (
	KindOTP       Kind = "OTP"
	KindEmail     Kind = "EMAIL"
	KindBiometric Kind = "BIOMETRIC"
)

// ParseKind normalizes a wire-format type string.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindOTP:
		return KindOTP, true
	case KindEmail:
		return KindEmail, true
	case KindBiometric:
		return KindBiometric, true
	default:
		return "", false
	}
}

// Conditions surfaced to callers. A verify against a missing, expired, or
// wrong-kind record always yields ErrInvalidOrExpired; the three cases are
// deliberately indistinguishable so probing IDs leaks nothing.
var (
	ErrInvalidOrExpired           = errors.New("invalid_or_expired")
	ErrUnsupportedType            = errors.New("unsupported_type")
	ErrEmailRequired              = errors.New("email_required")
	ErrEmbeddingRequired          = errors.New("embedding_required")
	ErrReferenceEmbeddingRequired = errors.New("reference_embedding_required")
	ErrRateLimited                = errors.New("rate_limited")
	ErrDeliveryFailed             = errors.New("delivery_failed")
)

// Record is one live challenge. Records are immutable once created; the
// store owns them exclusively and hands out copies.
type Record struct {
	ID        string
	Kind      Kind
	CreatedAt time.Time
	ExpiresAt time.Time

	// Kind-specific payload: exactly one group is populated.
	Secret    string    // OTP: shared TOTP secret (base32)
	Code      string    // EMAIL: 6-digit code
	Email     string    // EMAIL: destination address
	Reference []float64 // BIOMETRIC: enrolled embedding
}

// InitiateParams carries kind-specific issuance inputs.
type InitiateParams struct {
	Email              string
	UserLabel          string
	ReferenceEmbedding []float64
	// TTL overrides the store default when positive.
	TTL time.Duration
}

// Issued is the result of a successful initiate.
type Issued struct {
	ChallengeID string `json:"challengeId"`
	OTPAuthURL  string `json:"otpauthUrl,omitempty"`
	Sent        bool   `json:"sent,omitempty"`
}

// Response carries kind-specific verification inputs.
type Response struct {
	Code      string
	Embedding []float64
}

// Outcome is the result of a verification attempt.
type Outcome struct {
	Verified   bool     `json:"verified"`
	Similarity *float64 `json:"similarity,omitempty"`
}

// Challenger is one challenge mechanism. Initiate creates and stores a
// record; Check is a pure decision over a record and a response, run by the
// service inside the store's consume critical section.
type Challenger interface {
	Kind() Kind
	Initiate(ctx context.Context, p InitiateParams) (*Issued, error)
	Check(rec Record, resp Response) (Outcome, error)
}
