package risk

import (
	"testing"

	"github.com/nexshop/identity/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// fullSignals reports everything present and plausible, scoring no rules.
func fullSignals() Signals {
	tz := -180
	return Signals{
		IP:             "203.0.113.10",
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
		TimezoneOffset: &tz,
		Language:       "pt-BR",
		Screen:         &Screen{Width: 1920, Height: 1080},
	}
}

func TestCleanSignalsStayAtBaseline(t *testing.T) {
	result := Evaluate(fullSignals(), policy.Default())

	assert.Equal(t, 50, result.Score)
	assert.Empty(t, result.Reasons)
	assert.Equal(t, StatusReview, result.Status, "baseline 50 sits at the review threshold")
}

func TestAllSignalsMissing(t *testing.T) {
	result := Evaluate(Signals{}, policy.Default())

	// 50 - min(5,20) + min(10,25) + min(5,15) + min(5,15) + min(5,10) = 70
	assert.Equal(t, 70, result.Score)
	assert.Equal(t, StatusAllow, result.Status, "70 meets the allow threshold")
	assert.Equal(t, []string{
		ReasonIPMissing, ReasonUAMissing, ReasonTZMissing, ReasonLangMissing, ReasonResMissing,
	}, result.Reasons)
}

func TestHeadlessUserAgentAddsFullWeight(t *testing.T) {
	sig := fullSignals()
	sig.UserAgent = "Mozilla/5.0 HeadlessChrome/120.0"

	result := Evaluate(sig, policy.Default())

	assert.Equal(t, 75, result.Score, "baseline + full userAgent weight 25")
	assert.Contains(t, result.Reasons, ReasonUAHeadless)
}

func TestUnusualTimezone(t *testing.T) {
	sig := fullSignals()
	sig.TimezoneOffset = intPtr(840) // 14 hours

	result := Evaluate(sig, policy.Default())

	assert.Equal(t, 60, result.Score)
	assert.Equal(t, []string{ReasonTZUnusual}, result.Reasons)
}

func TestSuspiciousResolution(t *testing.T) {
	sig := fullSignals()
	sig.Screen = &Screen{Width: 120, Height: 90}

	result := Evaluate(sig, policy.Default())

	assert.Contains(t, result.Reasons, ReasonResSuspicious)
	assert.Equal(t, 60, result.Score)
}

func TestZeroSizedScreenCountsAsMissing(t *testing.T) {
	sig := fullSignals()
	sig.Screen = &Screen{}

	result := Evaluate(sig, policy.Default())
	assert.Contains(t, result.Reasons, ReasonResMissing)
}

func TestReputationContribution(t *testing.T) {
	sig := fullSignals()
	sig.Reputation = &Reputation{Confidence: 90, Malicious: true}

	result := Evaluate(sig, policy.Default())

	// round(30 * 0.9) = 27
	assert.Equal(t, 77, result.Score)
	assert.Equal(t, []string{ReasonRepMalicious}, result.Reasons)
}

func TestReputationWarningBelowThreshold(t *testing.T) {
	sig := fullSignals()
	sig.Reputation = &Reputation{Confidence: 20}

	result := Evaluate(sig, policy.Default())

	assert.Equal(t, 56, result.Score)
	assert.Equal(t, []string{ReasonRepWarning}, result.Reasons)
}

func TestReputationZeroConfidenceAddsNothing(t *testing.T) {
	sig := fullSignals()
	sig.Reputation = &Reputation{Confidence: 0}

	result := Evaluate(sig, policy.Default())

	assert.Equal(t, 50, result.Score)
	assert.Empty(t, result.Reasons)
}

func TestExtraFieldRules(t *testing.T) {
	cfg := policy.Default()
	cfg.ExtraFieldRules = []policy.Rule{
		{Field: "vpn", Kind: policy.RuleBoolean, Weight: 10},
		{Field: "failedLogins", Kind: policy.RuleNumericRange, Weight: 15, Min: floatPtr(3)},
		{Field: "channel", Kind: policy.RuleStringIn, Weight: 5, In: []string{"tor"}},
		{Field: "deviceId", Kind: policy.RulePresence, Weight: 0}, // zero weight: no tag
	}

	sig := fullSignals()
	sig.Extra = map[string]any{
		"vpn":          true,
		"failedLogins": float64(7),
		"channel":      "web",
		"deviceId":     "d-1",
	}

	result := Evaluate(sig, cfg)

	assert.Equal(t, 75, result.Score)
	assert.Equal(t, []string{"extra_vpn", "extra_failedLogins"}, result.Reasons,
		"tags follow rule-list evaluation order")
}

func TestScoreClampedToHundred(t *testing.T) {
	cfg := policy.Default()
	cfg.ExtraFieldRules = []policy.Rule{
		{Field: "bad", Kind: policy.RuleBoolean, Weight: 500},
	}
	sig := fullSignals()
	sig.Extra = map[string]any{"bad": true}

	result := Evaluate(sig, cfg)
	assert.Equal(t, 100, result.Score)
}

func TestScoreClampedToZero(t *testing.T) {
	cfg := policy.Default()
	cfg.ExtraFieldRules = []policy.Rule{
		{Field: "trusted", Kind: policy.RuleBoolean, Weight: -500},
	}
	sig := fullSignals()
	sig.Extra = map[string]any{"trusted": true}

	result := Evaluate(sig, cfg)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, StatusDeny, result.Status)
}

func TestStatusDerivation(t *testing.T) {
	cases := []struct {
		score  int
		status Status
	}{
		{100, StatusAllow},
		{70, StatusAllow},
		{69, StatusReview},
		{50, StatusReview},
		{49, StatusDeny},
		{0, StatusDeny},
	}
	for _, tc := range cases {
		got := deriveStatus(tc.score, policy.DefaultAllowThreshold, policy.DefaultReviewThreshold)
		assert.Equal(t, tc.status, got, "score %d", tc.score)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	cfg := policy.Default()
	cfg.ExtraFieldRules = []policy.Rule{
		{Field: "vpn", Kind: policy.RuleBoolean, Weight: 10},
	}
	sig := Signals{
		UserAgent: "curl/8.0",
		Extra:     map[string]any{"vpn": true},
	}

	first := Evaluate(sig, cfg)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Evaluate(sig, cfg))
	}
}

func TestNegativeWeightsNeverInvertCaps(t *testing.T) {
	cfg := policy.Default()
	cfg.Weights = policy.Weights{IP: -5, UserAgent: -5, Timezone: -5, Language: -5, Resolution: -5}

	result := Evaluate(Signals{}, cfg)
	assert.Equal(t, 50, result.Score, "negative weights contribute zero, not negative adjustments")
}
