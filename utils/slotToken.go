package utils

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// MaxTokenAttempts bounds the retries spent resolving one colliding token.
const MaxTokenAttempts = 1000

// SuffixStrategy decides how a colliding token is disambiguated.
type SuffixStrategy int

const (
	// SuffixRandom replaces the sequence with a random 4-digit suffix.
	SuffixRandom SuffixStrategy = iota
	// SuffixAttempt appends "-<attempt>" to the date and time digits.
	SuffixAttempt
)

// TokenExistsFunc reports whether a token is already stored.
type TokenExistsFunc func(ctx context.Context, token string) (bool, error)

// SlotTokenGenerator hands out slot tokens that are unique against the
// current batch and against storage.
type SlotTokenGenerator struct {
	exists      TokenExistsFunc
	strategy    SuffixStrategy
	allocated   map[string]struct{}
	maxAttempts int
	intn        func(n int) int
}

func NewSlotTokenGenerator(exists TokenExistsFunc, strategy SuffixStrategy) *SlotTokenGenerator {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &SlotTokenGenerator{
		exists:      exists,
		strategy:    strategy,
		allocated:   make(map[string]struct{}),
		maxAttempts: MaxTokenAttempts,
		intn:        rng.Intn,
	}
}

// BaseSlotToken is the date and hour-minute digit prefix of every token for at.
func BaseSlotToken(at time.Time) string {
	return at.Format("20060102") + at.Format("1504")
}

// Next returns a free token for the slot starting at at. seq is the slot's
// running index within its batch, starting at 1.
func (g *SlotTokenGenerator) Next(ctx context.Context, at time.Time, seq int) (string, error) {
	base := BaseSlotToken(at)
	candidate := base + fmt.Sprintf("%02d", seq)

	for attempt := 1; ; attempt++ {
		taken, err := g.taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			g.allocated[candidate] = struct{}{}
			return candidate, nil
		}
		if attempt > g.maxAttempts {
			return "", NewAppError(KindExhaustion, CodeTokenAllocationExhausted,
				fmt.Sprintf("no free slot token for %s after %d attempts", base, g.maxAttempts))
		}
		candidate = g.retryCandidate(base, attempt)
	}
}

func (g *SlotTokenGenerator) taken(ctx context.Context, token string) (bool, error) {
	if _, ok := g.allocated[token]; ok {
		return true, nil
	}
	if g.exists == nil {
		return false, nil
	}
	exists, err := g.exists(ctx, token)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check slot token %s", token)
	}
	return exists, nil
}

func (g *SlotTokenGenerator) retryCandidate(base string, attempt int) string {
	if g.strategy == SuffixAttempt {
		return base + "-" + strconv.Itoa(attempt)
	}
	return base + fmt.Sprintf("%04d", g.intn(9999)+1)
}
