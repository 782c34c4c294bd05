package challenge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nexshop/identity/internal/mailer"
	"github.com/nexshop/identity/internal/metrics"
	"github.com/nexshop/identity/internal/ratelimit"
)

// ServiceConfig tunes the orchestrator.
type ServiceConfig struct {
	// OTPIssuer names this service in authenticator apps.
	OTPIssuer string
	// BiometricThreshold is the cosine-similarity acceptance bound.
	BiometricThreshold float64
	// VerifyAttemptsPerMinute caps wrong-response retries per challenge;
	// <= 0 uses a default of 6/min with a burst of 5.
	VerifyAttemptsPerMinute int
	// VerifyAttemptBurst is the initial attempt budget per challenge.
	VerifyAttemptBurst int
}

// Service orchestrates challenge issuance and verification across kinds.
// Each kind is dispatched once through the Challenger table; nothing
// re-checks type strings downstream.
type Service struct {
	store    *Store
	kinds    map[Kind]Challenger
	attempts *ratelimit.Limiter
	logger   *slog.Logger
}

// NewService builds the orchestrator with all three kinds registered.
func NewService(store *Store, sender mailer.Sender, cfg ServiceConfig, logger *slog.Logger) *Service {
	rpm := cfg.VerifyAttemptsPerMinute
	if rpm <= 0 {
		rpm = 6
	}
	burst := cfg.VerifyAttemptBurst
	if burst <= 0 {
		burst = 5
	}

	challengers := []Challenger{
		NewOTP(store, cfg.OTPIssuer),
		NewEmail(store, sender),
		NewBiometric(store, cfg.BiometricThreshold),
	}
	kinds := make(map[Kind]Challenger, len(challengers))
	for _, ch := range challengers {
		kinds[ch.Kind()] = ch
	}

	return &Service{
		store: store,
		kinds: kinds,
		attempts: ratelimit.New(ratelimit.Config{
			RequestsPerMinute: rpm,
			BurstSize:         burst,
			CleanupInterval:   time.Minute,
		}),
		logger: logger,
	}
}

// Stop releases the attempt limiter's background goroutine.
func (s *Service) Stop() {
	s.attempts.Stop()
}

// Store exposes the underlying record store (for sweeping and health).
func (s *Service) Store() *Store {
	return s.store
}

// Initiate creates a challenge of the given kind.
func (s *Service) Initiate(ctx context.Context, kind Kind, p InitiateParams) (*Issued, error) {
	ch, ok := s.kinds[kind]
	if !ok {
		return nil, ErrUnsupportedType
	}

	issued, err := ch.Initiate(ctx, p)
	if err != nil {
		s.logger.Warn("challenge initiate failed",
			"type", string(kind),
			"error", err,
		)
		metrics.ChallengesInitiated.WithLabelValues(string(kind), "error").Inc()
		return nil, err
	}

	s.logger.Info("challenge initiated",
		"type", string(kind),
		"challenge_id", issued.ChallengeID,
	)
	metrics.ChallengesInitiated.WithLabelValues(string(kind), "ok").Inc()
	metrics.ActiveChallenges.Set(float64(s.store.Len()))
	return issued, nil
}

// Verify runs a verification attempt. A passing check consumes the record
// atomically: of two concurrent attempts, at most one succeeds. A failing
// check leaves the record in place for retry until expiry, bounded by the
// per-challenge attempt limiter.
func (s *Service) Verify(_ context.Context, kind Kind, challengeID string, resp Response) (Outcome, error) {
	ch, ok := s.kinds[kind]
	if !ok {
		return Outcome{}, ErrUnsupportedType
	}

	if !s.attempts.Allow("verify:" + challengeID) {
		metrics.ChallengesVerified.WithLabelValues(string(kind), "rate_limited").Inc()
		return Outcome{}, ErrRateLimited
	}

	var (
		out      Outcome
		checkErr error
	)
	result := s.store.Consume(challengeID, kind, func(rec Record) bool {
		out, checkErr = ch.Check(rec, resp)
		return checkErr == nil && out.Verified
	})

	switch {
	case result == ConsumeMissing:
		// Missing, expired, and wrong-kind are deliberately identical.
		metrics.ChallengesVerified.WithLabelValues(string(kind), "invalid_or_expired").Inc()
		return Outcome{}, ErrInvalidOrExpired
	case checkErr != nil:
		metrics.ChallengesVerified.WithLabelValues(string(kind), "invalid_input").Inc()
		return Outcome{}, checkErr
	case result == Consumed:
		s.logger.Info("challenge verified",
			"type", string(kind),
			"challenge_id", challengeID,
		)
		metrics.ChallengesVerified.WithLabelValues(string(kind), "verified").Inc()
		metrics.ActiveChallenges.Set(float64(s.store.Len()))
		return out, nil
	default:
		s.logger.Info("challenge verification rejected",
			"type", string(kind),
			"challenge_id", challengeID,
		)
		metrics.ChallengesVerified.WithLabelValues(string(kind), "rejected").Inc()
		return out, nil
	}
}

// IsCondition reports whether err is one of the caller-visible challenge
// conditions (as opposed to an unexpected internal failure).
func IsCondition(err error) bool {
	for _, cond := range []error{
		ErrInvalidOrExpired,
		ErrUnsupportedType,
		ErrEmailRequired,
		ErrEmbeddingRequired,
		ErrReferenceEmbeddingRequired,
		ErrRateLimited,
		ErrDeliveryFailed,
	} {
		if errors.Is(err, cond) {
			return true
		}
	}
	return false
}
