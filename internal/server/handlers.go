package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nexshop/identity/internal/challenge"
	"github.com/nexshop/identity/internal/logging"
	"github.com/nexshop/identity/internal/metrics"
	"github.com/nexshop/identity/internal/policy"
	"github.com/nexshop/identity/internal/reputation"
	"github.com/nexshop/identity/internal/risk"
	"github.com/nexshop/identity/internal/traces"
	"github.com/nexshop/identity/internal/validation"
)

// -----------------------------------------------------------------------------
// Verify
// -----------------------------------------------------------------------------

type verifyRequest struct {
	IP             string         `json:"ip"`
	UserAgent      string         `json:"userAgent"`
	TimezoneOffset *int           `json:"timezoneOffset"`
	Language       string         `json:"language"`
	Screen         *risk.Screen   `json:"screen"`
	SessionMeta    map[string]any `json:"sessionMeta"`
	ExtraSignals   map[string]any `json:"extraSignals"`
}

type verifyResponse struct {
	Score              int            `json:"score"`
	Status             risk.Status    `json:"status"`
	Reasons            []string       `json:"reasons"`
	ChallengeRequired  bool           `json:"challengeRequired"`
	SuggestedChallenge string         `json:"suggestedChallenge,omitempty"`
	Thresholds         thresholdsView `json:"thresholds"`
	TookMs             int64          `json:"tookMs"`
	IP                 string         `json:"ip,omitempty"`
}

type thresholdsView struct {
	Allow  int `json:"allow"`
	Review int `json:"review"`
}

// verifyHandler scores a verification request and decides whether a
// step-up challenge is needed.
func (s *Server) verifyHandler(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	// Explicit SDK-supplied IP wins; otherwise resolve from the connection.
	ip := req.IP
	if ip == "" {
		ip = clientIP(c.Request)
	}

	cfg := s.policies.Snapshot()

	ctx, span := traces.StartSpan(ctx, "identity.verify", traces.ClientIP(ip))
	defer span.End()

	// Reputation lookup is fail-open: a miss degrades to skipped, never
	// blocks scoring. No IP means nothing to look up.
	var rep reputation.Result
	if ip != "" {
		rep = s.repClient.Check(ctx, ip, cfg.Reputation)
	}
	if rep.Usable() {
		metrics.ReputationLookups.WithLabelValues("ok").Inc()
	} else if rep.Enabled {
		metrics.ReputationLookups.WithLabelValues("skipped").Inc()
	}

	sig := risk.Signals{
		IP:             ip,
		UserAgent:      req.UserAgent,
		TimezoneOffset: req.TimezoneOffset,
		Language:       req.Language,
		Screen:         req.Screen,
		Extra:          req.ExtraSignals,
	}
	if rep.Usable() {
		sig.Reputation = &risk.Reputation{
			Confidence: rep.Confidence,
			Malicious:  rep.Malicious,
		}
	}

	result := risk.Evaluate(sig, cfg)
	metrics.RiskScore.Observe(float64(result.Score))

	kind, proposed := challenge.Propose(result.Status, rep.Malicious, cfg.Challenges.Available)
	status := challenge.EffectiveStatus(result.Status, rep.Malicious, proposed)
	metrics.Verifications.WithLabelValues(string(status)).Inc()

	span.SetAttributes(
		traces.RiskScore(result.Score),
		traces.RiskStatus(string(status)),
	)

	logging.L(ctx).Info("verification scored",
		"ip", ip,
		"score", result.Score,
		"status", string(status),
		"reasons", result.Reasons,
		"challenge_required", proposed,
		"session_meta", req.SessionMeta,
	)

	resp := verifyResponse{
		Score:             result.Score,
		Status:            status,
		Reasons:           result.Reasons,
		ChallengeRequired: proposed,
		Thresholds: thresholdsView{
			Allow:  cfg.AllowThreshold,
			Review: cfg.ReviewThreshold,
		},
		TookMs: time.Since(start).Milliseconds(),
		IP:     ip,
	}
	if proposed {
		resp.SuggestedChallenge = string(kind)
	}

	c.JSON(http.StatusOK, resp)
}

// -----------------------------------------------------------------------------
// Challenges
// -----------------------------------------------------------------------------

type initiateRequest struct {
	Type               string    `json:"type" binding:"required"`
	Email              string    `json:"email"`
	UserLabel          string    `json:"userLabel"`
	ReferenceEmbedding []float64 `json:"referenceEmbedding"`
	TTLSeconds         int       `json:"ttlSeconds"`
}

func (s *Server) challengeInitiateHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	kind, ok := challenge.ParseKind(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unsupported_type",
			"message": "type must be one of OTP, EMAIL, BIOMETRIC",
		})
		return
	}

	if errs := validation.Validate(
		validation.ValidEmail("email", req.Email),
		validation.MaxLength("userLabel", req.UserLabel, 200),
		validation.ValidEmbedding("referenceEmbedding", req.ReferenceEmbedding),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"details": errs,
		})
		return
	}

	ctx, span := traces.StartSpan(ctx, "identity.challenge.initiate", traces.ChallengeType(string(kind)))
	defer span.End()

	issued, err := s.challenges.Initiate(ctx, kind, challenge.InitiateParams{
		Email:              req.Email,
		UserLabel:          validation.SanitizeString(req.UserLabel, 200),
		ReferenceEmbedding: req.ReferenceEmbedding,
		TTL:                time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		s.challengeError(c, err)
		return
	}

	span.SetAttributes(traces.ChallengeID(issued.ChallengeID))
	c.JSON(http.StatusOK, issued)
}

type challengeVerifyRequest struct {
	Type        string    `json:"type" binding:"required"`
	ChallengeID string    `json:"challengeId" binding:"required"`
	Code        string    `json:"code"`
	Embedding   []float64 `json:"embedding"`
}

func (s *Server) challengeVerifyHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var req challengeVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	kind, ok := challenge.ParseKind(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unsupported_type",
			"message": "type must be one of OTP, EMAIL, BIOMETRIC",
		})
		return
	}

	if errs := validation.Validate(
		validation.ValidEmbedding("embedding", req.Embedding),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"details": errs,
		})
		return
	}

	// Malformed IDs short-circuit without touching the store; the response
	// is identical to a miss so nothing is leaked.
	if !validation.IsValidChallengeID(req.ChallengeID) {
		c.JSON(http.StatusOK, gin.H{
			"verified": false,
			"error":    "invalid_or_expired",
		})
		return
	}

	ctx, span := traces.StartSpan(ctx, "identity.challenge.verify",
		traces.ChallengeType(string(kind)),
		traces.ChallengeID(req.ChallengeID),
	)
	defer span.End()

	out, err := s.challenges.Verify(ctx, kind, req.ChallengeID, challenge.Response{
		Code:      req.Code,
		Embedding: req.Embedding,
	})
	if err != nil {
		s.challengeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// challengeError maps challenge conditions to HTTP responses. Unexpected
// errors collapse to a fixed internal_error body; internal detail never
// reaches the caller.
func (s *Server) challengeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, challenge.ErrInvalidOrExpired):
		// Verification-state conditions are a 200 outcome, not a request
		// error: the request was well-formed, the challenge just isn't live.
		c.JSON(http.StatusOK, gin.H{
			"verified": false,
			"error":    "invalid_or_expired",
		})
	case errors.Is(err, challenge.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "rate_limited",
			"message": "Too many verification attempts, slow down",
		})
	case errors.Is(err, challenge.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unsupported_type",
			"message": "type must be one of OTP, EMAIL, BIOMETRIC",
		})
	case errors.Is(err, challenge.ErrEmailRequired),
		errors.Is(err, challenge.ErrEmbeddingRequired),
		errors.Is(err, challenge.ErrReferenceEmbeddingRequired):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, challenge.ErrDeliveryFailed):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "delivery_failed",
			"message": "Failed to deliver verification code",
		})
	default:
		logging.L(c.Request.Context()).Error("challenge operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}
}

// -----------------------------------------------------------------------------
// Runtime config
// -----------------------------------------------------------------------------

func (s *Server) configGetHandler(c *gin.Context) {
	c.JSON(http.StatusOK, maskConfig(s.policies.Snapshot()))
}

func (s *Server) configUpdateHandler(c *gin.Context) {
	var patch policy.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	merged := s.policies.Update(patch)

	logging.L(c.Request.Context()).Info("policy updated",
		"allow_threshold", merged.AllowThreshold,
		"review_threshold", merged.ReviewThreshold,
		"rules", len(merged.ExtraFieldRules),
	)

	c.JSON(http.StatusOK, maskConfig(merged))
}

// maskConfig hides the reputation API key in config responses.
func maskConfig(cfg policy.Config) policy.Config {
	if cfg.Reputation.APIKey != "" {
		cfg.Reputation.APIKey = "***"
	}
	return cfg
}
