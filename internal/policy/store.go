package policy

import "sync"

// Store guards the live configuration behind a mutex. Readers get deep
// copies; partial updates merge only recognized fields.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

// NewStore creates a store seeded with the given config.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg.Clone()}
}

// Snapshot returns a deep copy of the current config, never the live object.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// Patch is a partial config update. Nil fields are left untouched;
// thresholds are clamped to [0, 100] and the rule list is replaced
// wholesale, capped at MaxExtraFieldRules.
type Patch struct {
	AllowThreshold  *int             `json:"allowThreshold"`
	ReviewThreshold *int             `json:"reviewThreshold"`
	Weights         *WeightsPatch    `json:"weights"`
	Reputation      *ReputationPatch `json:"reputation"`
	Challenges      *Challenges      `json:"challenges"`
	ExtraFieldRules []Rule           `json:"extraFieldRules"`
}

// WeightsPatch shallow-merges into Weights.
type WeightsPatch struct {
	IP         *int `json:"ip"`
	UserAgent  *int `json:"userAgent"`
	Timezone   *int `json:"timezone"`
	Language   *int `json:"language"`
	Resolution *int `json:"resolution"`
	Reputation *int `json:"reputation"`
}

// ReputationPatch shallow-merges into Reputation.
type ReputationPatch struct {
	Enabled            *bool   `json:"enabled"`
	APIKey             *string `json:"apiKey"`
	Days               *int    `json:"days"`
	MaliciousThreshold *int    `json:"maliciousThreshold"`
}

// Update merges the patch into the live config and returns the merged
// snapshot. Unrecognized top-level keys were already dropped at decode time.
func (s *Store) Update(p Patch) Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.AllowThreshold != nil {
		s.cfg.AllowThreshold = clampThreshold(*p.AllowThreshold)
	}
	if p.ReviewThreshold != nil {
		s.cfg.ReviewThreshold = clampThreshold(*p.ReviewThreshold)
	}
	if p.Weights != nil {
		mergeWeight(&s.cfg.Weights.IP, p.Weights.IP)
		mergeWeight(&s.cfg.Weights.UserAgent, p.Weights.UserAgent)
		mergeWeight(&s.cfg.Weights.Timezone, p.Weights.Timezone)
		mergeWeight(&s.cfg.Weights.Language, p.Weights.Language)
		mergeWeight(&s.cfg.Weights.Resolution, p.Weights.Resolution)
		mergeWeight(&s.cfg.Weights.Reputation, p.Weights.Reputation)
	}
	if p.Reputation != nil {
		if p.Reputation.Enabled != nil {
			s.cfg.Reputation.Enabled = *p.Reputation.Enabled
		}
		if p.Reputation.APIKey != nil {
			s.cfg.Reputation.APIKey = *p.Reputation.APIKey
		}
		if p.Reputation.Days != nil && *p.Reputation.Days > 0 {
			s.cfg.Reputation.Days = *p.Reputation.Days
		}
		if p.Reputation.MaliciousThreshold != nil {
			s.cfg.Reputation.MaliciousThreshold = clampThreshold(*p.Reputation.MaliciousThreshold)
		}
	}
	if p.Challenges != nil && p.Challenges.Available != nil {
		s.cfg.Challenges.Available = make([]string, len(p.Challenges.Available))
		copy(s.cfg.Challenges.Available, p.Challenges.Available)
	}
	if p.ExtraFieldRules != nil {
		rules := p.ExtraFieldRules
		if len(rules) > MaxExtraFieldRules {
			rules = rules[:MaxExtraFieldRules]
		}
		s.cfg.ExtraFieldRules = make([]Rule, len(rules))
		for i, r := range rules {
			s.cfg.ExtraFieldRules[i] = r.clone()
		}
	}

	return s.cfg.Clone()
}

func clampThreshold(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func mergeWeight(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
