package challenge

import (
	"context"
	"math"
)

// DefaultSimilarityThreshold accepts embeddings pointing in mostly the
// same direction.
const DefaultSimilarityThreshold = 0.6

// Biometric issues challenges verified by cosine similarity between an
// enrolled face embedding and a candidate. Embedding extraction happens on
// the client; only numeric vectors cross this boundary, and no claim is
// made about their unforgeability.
type Biometric struct {
	store     *Store
	threshold float64
}

// NewBiometric creates the biometric challenger. threshold <= 0 uses
// DefaultSimilarityThreshold.
func NewBiometric(store *Store, threshold float64) *Biometric {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Biometric{store: store, threshold: threshold}
}

func (b *Biometric) Kind() Kind { return KindBiometric }

// Initiate stores the reference vector verbatim, without normalization, so the
// enrolled and candidate embeddings are compared exactly as produced.
func (b *Biometric) Initiate(_ context.Context, p InitiateParams) (*Issued, error) {
	if len(p.ReferenceEmbedding) == 0 {
		return nil, ErrReferenceEmbeddingRequired
	}

	ref := make([]float64, len(p.ReferenceEmbedding))
	copy(ref, p.ReferenceEmbedding)

	rec := b.store.Create(Record{Kind: KindBiometric, Reference: ref}, p.TTL)
	return &Issued{ChallengeID: rec.ID}, nil
}

// Check accepts when cosine similarity meets the threshold. A missing
// candidate vector is a validation error, detected before any state
// is touched.
func (b *Biometric) Check(rec Record, resp Response) (Outcome, error) {
	if len(resp.Embedding) == 0 {
		return Outcome{}, ErrEmbeddingRequired
	}

	sim := CosineSimilarity(rec.Reference, resp.Embedding)
	return Outcome{
		Verified:   sim >= b.threshold,
		Similarity: &sim,
	}, nil
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|). Mismatched lengths are
// non-comparable and yield 0; a zero norm treats the denominator as 1,
// also yielding 0. Never errors on shape.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		denom = 1
	}
	return dot / denom
}
