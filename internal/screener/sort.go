package screener

import (
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dexlens/dexlens/pkg/models"
	"github.com/dexlens/dexlens/pkg/utils"
)

// SortState is the active sort configuration: exactly one column at a time.
type SortState struct {
	Column     string
	Descending bool
}

// DefaultSort is the initial sort on load: market cap, descending.
func DefaultSort() SortState {
	return SortState{Column: ColMarketCap, Descending: true}
}

// Toggle applies the header-click rule: re-selecting the active column
// flips direction; selecting a new column activates it ascending.
func (s SortState) Toggle(columnID string) SortState {
	if columnID == s.Column {
		return SortState{Column: s.Column, Descending: !s.Descending}
	}
	return SortState{Column: columnID, Descending: false}
}

// DeployOverrides maps token addresses to corrected deployment dates.
// This is a data-correction table for records whose feed-reported deploy
// time is known to be wrong, not a general rule.
type DeployOverrides map[string]time.Time

// DefaultDeployOverrides holds the known corrections. MICHI's feed record
// carries its redeploy time; the original mint went live on 2024-04-16.
var DefaultDeployOverrides = DeployOverrides{
	"5mbK36SZ7J19An8jFochhQS4of8g6BwUjbeCSxBSoWdp": time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC),
}

// DeployTime returns the effective deployment time for a record,
// preferring an override over the reported timestamp. The second return
// is false when no usable time exists.
func (o DeployOverrides) DeployTime(r *models.TokenRecord) (time.Time, bool) {
	if t, ok := o[r.Address]; ok {
		return t, true
	}
	if r.DeployedAt.IsZero() {
		return time.Time{}, false
	}
	return r.DeployedAt, true
}

// Comparator orders two records under a SortState. String columns compare
// with a locale-aware collator; numeric columns by subtraction; the
// deployment column by whole-day age. Mixed or unresolvable values compare
// equal so a stable sort preserves their prior relative order.
type Comparator struct {
	state     SortState
	now       time.Time
	overrides DeployOverrides
	coll      *collate.Collator
}

// NewComparator builds a comparator for one sort pass. now is the pipeline's
// snapshot clock so age comparisons are deterministic across recomputes.
func NewComparator(state SortState, now time.Time, overrides DeployOverrides) *Comparator {
	return &Comparator{
		state:     state,
		now:       now,
		overrides: overrides,
		coll:      collate.New(language.English),
	}
}

// Compare returns <0, 0, >0 for a before, equal, a after under the active
// sort. Direction flips the sign of every comparison uniformly.
func (c *Comparator) Compare(a, b *models.TokenRecord) int {
	r := c.compareAsc(a, b)
	if c.state.Descending {
		r = -r
	}
	return r
}

func (c *Comparator) compareAsc(a, b *models.TokenRecord) int {
	if c.state.Column == ColDeployedAt {
		return c.compareAge(a, b)
	}

	va := FieldValue(a, c.state.Column)
	vb := FieldValue(b, c.state.Column)

	switch {
	case va.Kind == KindNumber && vb.Kind == KindNumber:
		return sign(va.Num - vb.Num)
	case va.Kind == KindString && vb.Kind == KindString:
		return c.coll.CompareString(va.Str, vb.Str)
	case va.Kind == KindTime && vb.Kind == KindTime:
		return va.Time.Compare(vb.Time)
	default:
		// Absent or mixed types: equal. Stability does the rest.
		return 0
	}
}

// compareAge orders by age in whole days rather than raw timestamps,
// honoring the deploy-date override table.
func (c *Comparator) compareAge(a, b *models.TokenRecord) int {
	ta, oka := c.overrides.DeployTime(a)
	tb, okb := c.overrides.DeployTime(b)
	if !oka || !okb {
		return 0
	}
	return utils.AgeDays(c.now, ta) - utils.AgeDays(c.now, tb)
}

func sign(d float64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}
