package preview

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/dustin/go-humanize"
)

const (
	minVotes      = 800
	voteSpan      = 2500 // count in [800, 3300)
	minVotePct    = 40
	votePctSpread = 52 // target share in [40, 91], realised share in [40, 92)
)

// Votes is the synthetic vote tally drawn on every preview.
type Votes struct {
	Count int
	Total int
}

func (v Votes) Ratio() float64 {
	if v.Total <= 0 {
		return 0
	}
	return float64(v.Count) / float64(v.Total)
}

func (v Votes) Label() string {
	return humanize.Comma(int64(v.Count)) + " / " + humanize.Comma(int64(v.Total))
}

func (v Votes) PercentLabel() string {
	return fmt.Sprintf("%.0f%%", v.Ratio()*100)
}

// VoteSource draws tallies from a seeded generator; safe for concurrent use.
type VoteSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewVoteSource(seed int64) *VoteSource {
	return &VoteSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *VoteSource) Next() Votes {
	s.mu.Lock()
	count := minVotes + s.rng.Intn(voteSpan)
	pct := minVotePct + s.rng.Intn(votePctSpread)
	s.mu.Unlock()
	return Votes{Count: count, Total: count * 100 / pct}
}
