package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexshop/identity/internal/risk"
)

func TestPropose(t *testing.T) {
	both := []string{"OTP", "EMAIL"}

	tests := []struct {
		name      string
		status    risk.Status
		malicious bool
		available []string
		wantKind  Kind
		wantOK    bool
	}{
		{"allow clean needs nothing", risk.StatusAllow, false, both, "", false},
		{"review prefers otp", risk.StatusReview, false, both, KindOTP, true},
		{"deny prefers otp", risk.StatusDeny, false, both, KindOTP, true},
		{"malicious overrides allow", risk.StatusAllow, true, both, KindOTP, true},
		{"email when otp unavailable", risk.StatusReview, false, []string{"EMAIL"}, KindEmail, true},
		{"otp wins regardless of order", risk.StatusReview, false, []string{"EMAIL", "OTP"}, KindOTP, true},
		{"lowercase availability", risk.StatusReview, false, []string{"email"}, KindEmail, true},
		{"biometric never auto-proposed", risk.StatusDeny, true, []string{"BIOMETRIC"}, "", false},
		{"nothing available", risk.StatusDeny, false, nil, "", false},
		{"unknown kinds skipped", risk.StatusReview, false, []string{"SMS", "EMAIL"}, KindEmail, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := Propose(tt.status, tt.malicious, tt.available)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestEffectiveStatus(t *testing.T) {
	// A malicious flag with a proposed challenge bumps allow to review.
	assert.Equal(t, risk.StatusReview, EffectiveStatus(risk.StatusAllow, true, true))

	// It never improves review or deny.
	assert.Equal(t, risk.StatusReview, EffectiveStatus(risk.StatusReview, true, true))
	assert.Equal(t, risk.StatusDeny, EffectiveStatus(risk.StatusDeny, true, true))

	// Without the flag, or without a proposed challenge, nothing changes.
	assert.Equal(t, risk.StatusAllow, EffectiveStatus(risk.StatusAllow, false, true))
	assert.Equal(t, risk.StatusAllow, EffectiveStatus(risk.StatusAllow, true, false))
}
