package macro

import (
	"math/rand/v2"

	"github.com/aretw0/arcade/pkg/domain"
)

// NoRecommendation is said when every draw collides with what was already recommended.
const NoRecommendation = "I don't have a decent game to recommend right now."

// DefaultAttempts bounds the draws a Recommender makes per pick.
const DefaultAttempts = 100

// Source draws random indexes. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Recommender draws random candidates that were not recommended before.
type Recommender struct {
	src      Source
	attempts int
}

// RecommenderOption configures a Recommender.
type RecommenderOption func(*Recommender)

// WithSource sets the random source. The source must be safe for concurrent
// use if the recommender is shared between sessions.
func WithSource(src Source) RecommenderOption {
	return func(r *Recommender) {
		r.src = src
	}
}

// WithAttempts bounds the number of draws per pick.
func WithAttempts(n int) RecommenderOption {
	return func(r *Recommender) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// NewRecommender creates a recommender drawing from the global random source.
func NewRecommender(opts ...RecommenderOption) *Recommender {
	r := &Recommender{src: globalSource{}, attempts: DefaultAttempts}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pick draws from pool until it finds a title not in seen, adds it to seen
// and returns it. It gives up after the attempt cap.
func (r *Recommender) Pick(pool []domain.GameRecord, seen domain.Set) (domain.GameRecord, bool) {
	if len(pool) == 0 {
		return domain.GameRecord{}, false
	}
	for i := 0; i < r.attempts; i++ {
		c := pool[r.src.IntN(len(pool))]
		if seen.Has(c.Name) {
			continue
		}
		seen.Add(c.Name)
		return c, true
	}
	return domain.GameRecord{}, false
}
