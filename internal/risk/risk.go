// Package risk implements rules-based scoring of identity-verification
// requests.
//
// A request's behavioral/environmental signals are folded into a single
// 0-100 score starting from a neutral baseline of 50. Missing or suspicious
// signals push the score up (riskier in the step-up sense of "needs a
// challenge"), and the configured thresholds derive an allow/review/deny
// status. Evaluation is pure: no I/O, no shared state.
package risk

// Status is the engine's verdict on a request.
type Status string

const (
	StatusAllow  Status = "allow"
	StatusReview Status = "review"
	StatusDeny   Status = "deny"
)

// Screen is the reported display resolution.
type Screen struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Reputation is the outcome of an external IP-reputation lookup,
// already reduced to the two values scoring needs.
type Reputation struct {
	Confidence int // 0-100
	Malicious  bool
}

// Signals carries everything the engine scores. Pointer/zero fields mean
// the signal was absent from the request.
type Signals struct {
	IP             string
	UserAgent      string
	TimezoneOffset *int // minutes from UTC
	Language       string
	Screen         *Screen
	Reputation     *Reputation
	Extra          map[string]any
}

// Result is the scored outcome. Reasons holds one tag per triggered rule,
// in evaluation order; it explains the score but does not influence it.
type Result struct {
	Score   int      `json:"score"`
	Status  Status   `json:"status"`
	Reasons []string `json:"reasons"`
}

// Reason tags emitted by the engine. Extra-field rules emit "extra_<field>".
const (
	ReasonIPMissing     = "ip_missing"
	ReasonUAMissing     = "ua_missing"
	ReasonUAHeadless    = "ua_headless"
	ReasonTZUnusual     = "tz_unusual"
	ReasonTZMissing     = "tz_missing"
	ReasonLangMissing   = "lang_missing"
	ReasonResSuspicious = "res_suspicious"
	ReasonResMissing    = "res_missing"
	ReasonRepMalicious  = "reputation_malicious"
	ReasonRepWarning    = "reputation_warning"
)
