// Package policy holds the runtime risk/challenge configuration.
//
// A Config is an immutable-per-request snapshot: handlers take a deep copy
// from the Store at the start of each request and never see concurrent
// updates mid-evaluation.
package policy

// Config is the tunable policy for risk scoring and challenge selection.
type Config struct {
	// AllowThreshold and ReviewThreshold derive the status from the score:
	// allow at >= AllowThreshold, review at >= ReviewThreshold, deny below.
	AllowThreshold  int `json:"allowThreshold"`
	ReviewThreshold int `json:"reviewThreshold"`

	Weights    Weights    `json:"weights"`
	Reputation Reputation `json:"reputation"`
	Challenges Challenges `json:"challenges"`

	// ExtraFieldRules are evaluated in order against the request's extra
	// signal map. Capped at MaxExtraFieldRules.
	ExtraFieldRules []Rule `json:"extraFieldRules"`
}

// Weights are the per-signal score contributions of the risk engine.
type Weights struct {
	IP         int `json:"ip"`
	UserAgent  int `json:"userAgent"`
	Timezone   int `json:"timezone"`
	Language   int `json:"language"`
	Resolution int `json:"resolution"`
	Reputation int `json:"reputation"`
}

// Reputation configures the external IP-reputation lookup.
type Reputation struct {
	Enabled            bool   `json:"enabled"`
	APIKey             string `json:"apiKey"`
	Days               int    `json:"days"`
	MaliciousThreshold int    `json:"maliciousThreshold"`
}

// Challenges lists the challenge kinds the decision policy may propose.
type Challenges struct {
	Available []string `json:"available"`
}

// MaxExtraFieldRules caps the active rule list.
const MaxExtraFieldRules = 100

// Default thresholds and weights.
const (
	DefaultAllowThreshold     = 70
	DefaultReviewThreshold    = 50
	DefaultMaliciousThreshold = 75
	DefaultReputationDays     = 30
)

// Default returns the baseline configuration used when nothing is tuned.
func Default() Config {
	return Config{
		AllowThreshold:  DefaultAllowThreshold,
		ReviewThreshold: DefaultReviewThreshold,
		Weights: Weights{
			IP:         20,
			UserAgent:  25,
			Timezone:   15,
			Language:   15,
			Resolution: 10,
			Reputation: 30,
		},
		Reputation: Reputation{
			Enabled:            false,
			Days:               DefaultReputationDays,
			MaliciousThreshold: DefaultMaliciousThreshold,
		},
		Challenges: Challenges{
			Available: []string{"OTP", "EMAIL"},
		},
	}
}

// Clone returns a deep copy of the config. Mutating the copy never
// affects the original.
func (c Config) Clone() Config {
	out := c
	if c.Challenges.Available != nil {
		out.Challenges.Available = make([]string, len(c.Challenges.Available))
		copy(out.Challenges.Available, c.Challenges.Available)
	}
	if c.ExtraFieldRules != nil {
		out.ExtraFieldRules = make([]Rule, len(c.ExtraFieldRules))
		for i, r := range c.ExtraFieldRules {
			out.ExtraFieldRules[i] = r.clone()
		}
	}
	return out
}
