package risk

import (
	"math"
	"strings"

	"github.com/nexshop/identity/internal/policy"
)

const baselineScore = 50

// Plausible display bounds; anything outside is flagged suspicious.
const (
	minScreenWidth  = 640
	maxScreenWidth  = 4000
	minScreenHeight = 480
	maxScreenHeight = 3000
)

// unusualTimezoneMinutes: real UTC offsets stay within +-12 hours.
const unusualTimezoneMinutes = 12 * 60

// headlessMarkers in a user-agent indicate browser automation.
var headlessMarkers = []string{"headless", "puppeteer", "playwright", "selenium"}

// Evaluate scores the signals against the config. Deterministic and
// side-effect-free; callers log the result themselves.
func Evaluate(sig Signals, cfg policy.Config) Result {
	w := cfg.Weights
	score := float64(baselineScore)
	reasons := []string{}

	// A missing IP slightly lowers risk: the boundary layer could not even
	// resolve a network identity to hold against the caller.
	if sig.IP == "" {
		score -= capped(5, w.IP)
		reasons = append(reasons, ReasonIPMissing)
	}

	ua := strings.ToLower(sig.UserAgent)
	if ua == "" {
		score += capped(10, w.UserAgent)
		reasons = append(reasons, ReasonUAMissing)
	} else if containsAny(ua, headlessMarkers) {
		score += float64(w.UserAgent)
		reasons = append(reasons, ReasonUAHeadless)
	}

	if sig.TimezoneOffset != nil {
		if abs(*sig.TimezoneOffset) > unusualTimezoneMinutes {
			score += capped(10, w.Timezone)
			reasons = append(reasons, ReasonTZUnusual)
		}
	} else {
		score += capped(5, w.Timezone)
		reasons = append(reasons, ReasonTZMissing)
	}

	if sig.Language == "" {
		score += capped(5, w.Language)
		reasons = append(reasons, ReasonLangMissing)
	}

	if sig.Screen != nil && sig.Screen.Width > 0 && sig.Screen.Height > 0 {
		if sig.Screen.Width < minScreenWidth || sig.Screen.Height < minScreenHeight ||
			sig.Screen.Width > maxScreenWidth || sig.Screen.Height > maxScreenHeight {
			score += capped(10, w.Resolution)
			reasons = append(reasons, ReasonResSuspicious)
		}
	} else {
		score += capped(5, w.Resolution)
		reasons = append(reasons, ReasonResMissing)
	}

	if sig.Reputation != nil {
		confidence := clampInt(sig.Reputation.Confidence, 0, 100)
		score += math.Round(float64(w.Reputation) * float64(confidence) / 100)
		if confidence >= cfg.Reputation.MaliciousThreshold {
			reasons = append(reasons, ReasonRepMalicious)
		} else if confidence > 0 {
			reasons = append(reasons, ReasonRepWarning)
		}
	}

	score += applyExtraFieldRules(sig.Extra, cfg.ExtraFieldRules, &reasons)

	final := clampInt(int(math.Round(score)), 0, 100)

	return Result{
		Score:   final,
		Status:  deriveStatus(final, cfg.AllowThreshold, cfg.ReviewThreshold),
		Reasons: reasons,
	}
}

// applyExtraFieldRules evaluates the configured matchers in list order and
// returns the total score delta. Zero-weight rules contribute nothing and
// emit no tag.
func applyExtraFieldRules(extra map[string]any, rules []policy.Rule, reasons *[]string) float64 {
	if len(extra) == 0 || len(rules) == 0 {
		return 0
	}
	if len(rules) > policy.MaxExtraFieldRules {
		rules = rules[:policy.MaxExtraFieldRules]
	}

	var delta float64
	for _, rule := range rules {
		if rule.Field == "" || rule.Weight == 0 {
			continue
		}
		value, ok := extra[rule.Field]
		if !ok {
			value = nil
		}
		if rule.Matches(value) {
			delta += float64(rule.Weight)
			*reasons = append(*reasons, "extra_"+rule.Field)
		}
	}
	return delta
}

func deriveStatus(score, allowThreshold, reviewThreshold int) Status {
	switch {
	case score >= allowThreshold:
		return StatusAllow
	case score >= reviewThreshold:
		return StatusReview
	default:
		return StatusDeny
	}
}

// capped returns min(limit, weight), floored at zero so a negative weight
// never flips the direction of an adjustment.
func capped(limit, weight int) float64 {
	if weight < 0 {
		return 0
	}
	if weight < limit {
		return float64(weight)
	}
	return float64(limit)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
