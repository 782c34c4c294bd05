// Package reputation looks up IP abuse-confidence scores from an external
// reputation service.
//
// The lookup sits on the critical path of a verify request, so it is bounded
// by a short timeout and never fails the enclosing risk evaluation: a network
// error, a missing API key, or a disabled config all degrade to a skipped
// result that the risk engine simply ignores.
package reputation

// Result is the explicit outcome of a lookup: performed, skipped, or failed.
// A skipped or failed result carries no confidence signal.
type Result struct {
	Enabled    bool   `json:"enabled"`
	Skipped    bool   `json:"skipped"`
	Reason     string `json:"reason,omitempty"`
	Confidence int    `json:"confidence"`
	Malicious  bool   `json:"malicious"`
}

// Skip reasons.
const (
	SkipDisabled      = "disabled"
	SkipMissingAPIKey = "missing_api_key"
	SkipLookupFailed  = "lookup_failed"
)

// Usable reports whether the result carries a confidence score the risk
// engine should fold in.
func (r Result) Usable() bool {
	return r.Enabled && !r.Skipped
}
