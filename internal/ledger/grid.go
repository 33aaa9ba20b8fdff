package ledger

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Grid is the set of valid seat labels for a showtime.  With zero seats
// per row labels are "1".."capacity"; otherwise they are row letters
// followed by a column number ("A1".."H10"), filled row by row until the
// capacity is reached.
type Grid struct {
	Capacity    int
	SeatsPerRow int
}

// NormalizeLabel trims and upper-cases a seat label.
func NormalizeLabel(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Index returns the zero-based position of label in the grid.
func (g Grid) Index(label string) (int, bool) {
	label = NormalizeLabel(label)
	if label == "" || g.Capacity <= 0 {
		return -1, false
	}
	if g.SeatsPerRow <= 0 {
		n, err := strconv.Atoi(label)
		if err != nil || n < 1 || n > g.Capacity || strconv.Itoa(n) != label {
			return -1, false
		}
		return n - 1, true
	}
	split := strings.IndexFunc(label, func(r rune) bool { return r >= '0' && r <= '9' })
	if split <= 0 {
		return -1, false
	}
	rows := (g.Capacity + g.SeatsPerRow - 1) / g.SeatsPerRow
	if split > len(indexToRowLabel(rows-1)) {
		return -1, false
	}
	row, ok := rowLabelToIndex(label[:split])
	if !ok || row >= rows {
		return -1, false
	}
	col, err := strconv.Atoi(label[split:])
	if err != nil || col < 1 || col > g.SeatsPerRow || strconv.Itoa(col) != label[split:] {
		return -1, false
	}
	idx := row*g.SeatsPerRow + col - 1
	if idx < 0 || idx >= g.Capacity || g.Label(idx) != label {
		return -1, false
	}
	return idx, true
}

// Contains reports whether label is a seat of the grid.
func (g Grid) Contains(label string) bool {
	_, ok := g.Index(label)
	return ok
}

// Label returns the label at a zero-based index.
func (g Grid) Label(idx int) string {
	if g.SeatsPerRow <= 0 {
		return strconv.Itoa(idx + 1)
	}
	return indexToRowLabel(idx/g.SeatsPerRow) + strconv.Itoa(idx%g.SeatsPerRow+1)
}

// Labels lists every seat in grid order.
func (g Grid) Labels() []string {
	out := make([]string, 0, g.Capacity)
	for i := 0; i < g.Capacity; i++ {
		out = append(out, g.Label(i))
	}
	return out
}

// Sort orders labels by their grid position; labels outside the grid go
// last in lexical order.
func (g Grid) Sort(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		a, okA := g.Index(labels[i])
		b, okB := g.Index(labels[j])
		switch {
		case okA && okB:
			return a < b
		case okA != okB:
			return okA
		}
		return labels[i] < labels[j]
	})
}

// indexToRowLabel converts a zero-based index to A, B, ..., Z, AA, AB.
func indexToRowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []byte
	for {
		res = append(res, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// rowLabelToIndex is the inverse of indexToRowLabel.
func rowLabelToIndex(label string) (int, bool) {
	if label == "" {
		return -1, false
	}
	const limit = math.MaxInt32
	n := 0
	for i := 0; i < len(label); i++ {
		ch := label[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
		if n > limit {
			return -1, false
		}
	}
	return n - 1, true
}
