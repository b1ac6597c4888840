package screener

import (
	"sort"
	"time"

	"github.com/dexlens/dexlens/pkg/models"
)

// Row pairs a record with its 1-based position in the original snapshot.
// The original rank survives filtering and sorting so the display can show
// both the stable rank and the current position.
type Row struct {
	Record *models.TokenRecord
	Rank   int
}

// indexRows attaches original positions to a fresh snapshot. Done once per
// ingestion; records are never mutated afterwards.
func indexRows(records []models.TokenRecord) []Row {
	rows := make([]Row, len(records))
	for i := range records {
		rows[i] = Row{Record: &records[i], Rank: i + 1}
	}
	return rows
}

// filterRows applies the predicate to an indexed snapshot, preserving
// relative order. The input is never mutated.
func filterRows(rows []Row, f FilterState) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if f.Match(row.Record) {
			out = append(out, row)
		}
	}
	return out
}

// sortRows stable-sorts a copy of the filtered rows under the comparator.
// Stability preserves the filtered order for rows comparing equal, which
// keeps original ranks coherent under repeated re-sorts.
func sortRows(rows []Row, cmp *Comparator) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return cmp.Compare(out[i].Record, out[j].Record) < 0
	})
	return out
}

// ComputeView runs the full pipeline: filter then stable sort. Pure:
// identical inputs yield an identical output sequence.
func ComputeView(rows []Row, f FilterState, s SortState, now time.Time, overrides DeployOverrides) []Row {
	return sortRows(filterRows(rows, f), NewComparator(s, now, overrides))
}

// viewMemo caches the two pipeline stages keyed by their exact inputs.
// Memoization is an optimization only; ComputeView stays the source of truth.
type viewMemo struct {
	filterGen   uint64
	filterState FilterState
	filtered    []Row
	hasFiltered bool

	sortGen    uint64
	sortFilter FilterState
	sortState  SortState
	sorted     []Row
	hasSorted  bool
}

func (m *viewMemo) invalidate() {
	m.hasFiltered = false
	m.hasSorted = false
	m.filtered = nil
	m.sorted = nil
}

// view returns the filtered+sorted rows for the given inputs, reusing
// cached stages when their inputs are unchanged.
func (m *viewMemo) view(gen uint64, rows []Row, f FilterState, s SortState, now time.Time, overrides DeployOverrides) []Row {
	if !m.hasFiltered || m.filterGen != gen || m.filterState != f {
		m.filtered = filterRows(rows, f)
		m.filterGen = gen
		m.filterState = f
		m.hasFiltered = true
		m.hasSorted = false
	}

	if !m.hasSorted || m.sortGen != gen || m.sortFilter != f || m.sortState != s {
		m.sorted = sortRows(m.filtered, NewComparator(s, now, overrides))
		m.sortGen = gen
		m.sortFilter = f
		m.sortState = s
		m.hasSorted = true
	}

	return m.sorted
}
