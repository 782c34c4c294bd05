package challenge

import "github.com/nexshop/identity/internal/risk"

// Propose picks the challenge kind to offer for a risk outcome, or reports
// that none is needed. A challenge is proposed when the status is not allow
// or reputation flagged the caller malicious. Preference order is OTP, then
// EMAIL, filtered by the configured available kinds; BIOMETRIC is never
// auto-proposed because it needs a pre-enrolled reference and is always
// caller-initiated.
func Propose(status risk.Status, malicious bool, available []string) (Kind, bool) {
	if status == risk.StatusAllow && !malicious {
		return "", false
	}

	for _, preferred := range []Kind{KindOTP, KindEmail} {
		for _, avail := range available {
			if kind, ok := ParseKind(avail); ok && kind == preferred {
				return preferred, true
			}
		}
	}
	return "", false
}

// EffectiveStatus escalates the raw risk status when reputation marked the
// caller malicious and a challenge was proposed: an allow becomes at least
// review. Reputation can only worsen an outcome, never improve it.
func EffectiveStatus(status risk.Status, malicious, proposed bool) risk.Status {
	if malicious && proposed && status == risk.StatusAllow {
		return risk.StatusReview
	}
	return status
}
