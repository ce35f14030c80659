package gesture

import (
	"sort"

	"github.com/ayusman/mudra/internal/geom"
)

// Tracker assigns ids that follow hands across frames by greedy
// nearest-neighbour matching of wrist positions.
type Tracker struct {
	maxJump float64
	last    map[int]geom.Vec2
	nextID  int
}

// NewTracker creates a Tracker. A hand farther than maxJump from every
// previous wrist starts a new identity.
func NewTracker(maxJump float64) *Tracker {
	return &Tracker{
		maxJump: maxJump,
		last:    make(map[int]geom.Vec2),
	}
}

type candidate struct {
	hand, id int
	dist     float64
}

// Assign returns one id per wrist. Identities not matched this frame are dropped.
func (t *Tracker) Assign(wrists []geom.Vec2) []int {
	var pairs []candidate
	for i, w := range wrists {
		for id, p := range t.last {
			if d := w.Sub(p).Len(); d <= t.maxJump {
				pairs = append(pairs, candidate{hand: i, id: id, dist: d})
			}
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].dist != pairs[b].dist {
			return pairs[a].dist < pairs[b].dist
		}
		return pairs[a].id < pairs[b].id
	})

	ids := make([]int, len(wrists))
	for i := range ids {
		ids[i] = -1
	}
	taken := make(map[int]bool)
	for _, c := range pairs {
		if ids[c.hand] >= 0 || taken[c.id] {
			continue
		}
		ids[c.hand] = c.id
		taken[c.id] = true
	}

	next := make(map[int]geom.Vec2, len(wrists))
	for i, w := range wrists {
		if ids[i] < 0 {
			ids[i] = t.nextID
			t.nextID++
		}
		next[ids[i]] = w
	}
	t.last = next

	return ids
}
