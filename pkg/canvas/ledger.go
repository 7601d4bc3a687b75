package canvas

import (
	"slices"

	"github.com/etulastrada/ideconfy/pkg/placement"
)

// Ledger maps placed item IDs to their canvas positions. It keeps insertion
// order so iteration is deterministic. A Ledger is not safe for concurrent
// use; the Canvas that owns it serializes access.
type Ledger struct {
	order []string
	pos   map[string]placement.Position
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{pos: make(map[string]placement.Position)}
}

// Len returns the number of placed items.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Get returns the position recorded for id.
func (l *Ledger) Get(id string) (placement.Position, bool) {
	p, ok := l.pos[id]
	return p, ok
}

// Set records or moves id.
func (l *Ledger) Set(id string, p placement.Position) {
	if _, ok := l.pos[id]; !ok {
		l.order = append(l.order, id)
	}
	l.pos[id] = p
}

// Delete drops id and reports whether it was present.
func (l *Ledger) Delete(id string) bool {
	if _, ok := l.pos[id]; !ok {
		return false
	}
	delete(l.pos, id)
	l.order = slices.DeleteFunc(l.order, func(s string) bool { return s == id })
	return true
}

// IDs returns placed item IDs in insertion order.
func (l *Ledger) IDs() []string {
	return slices.Clone(l.order)
}

// Positions returns every recorded position except the one for exclude.
// Pass "" to include all.
func (l *Ledger) Positions(exclude string) []placement.Position {
	out := make([]placement.Position, 0, len(l.order))
	for _, id := range l.order {
		if id == exclude {
			continue
		}
		out = append(out, l.pos[id])
	}
	return out
}

// Overlap is a pair of placed items closer than the footprint.
type Overlap struct {
	A, B     string
	Distance float64
}

// Overlaps lists every pair of entries whose distance does not exceed
// footprint. Positions from a degraded placement are the only way to get one.
func (l *Ledger) Overlaps(footprint float64) []Overlap {
	var out []Overlap
	for i, a := range l.order {
		for _, b := range l.order[i+1:] {
			if d := l.pos[a].Distance(l.pos[b]); d <= footprint {
				out = append(out, Overlap{A: a, B: b, Distance: d})
			}
		}
	}
	return out
}
