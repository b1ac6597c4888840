package screener

import (
	"sync"
	"time"

	"github.com/dexlens/dexlens/pkg/models"
)

// Engine owns the current record snapshot and view state (filter, sort,
// column visibility) behind a single mutex, so every derived view is
// computed from the complete current state and commands never interleave
// partial pipeline results.
type Engine struct {
	mu sync.Mutex

	registry  *Registry
	filter    FilterState
	sort      SortState
	overrides DeployOverrides
	formatter *Formatter

	rows      []Row     // indexed snapshot, original order
	gen       uint64    // bumped on every Replace
	snapTime  time.Time // snapshot clock for age computation
	fetchedAt time.Time
	refPrice  float64

	memo viewMemo

	nowFn func() time.Time // test hook
}

// NewEngine creates an engine with default view state. A nil override
// table gets the built-in corrections.
func NewEngine(overrides DeployOverrides) *Engine {
	if overrides == nil {
		overrides = DefaultDeployOverrides
	}
	return &Engine{
		registry:  NewRegistry(nil),
		filter:    DefaultFilter(),
		sort:      DefaultSort(),
		overrides: overrides,
		formatter: NewFormatter(overrides, ""),
		nowFn:     time.Now,
	}
}

// SetTokenLinkBase changes the URL prefix used for token cell links.
// An empty base keeps the default.
func (e *Engine) SetTokenLinkBase(base string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.formatter = NewFormatter(e.overrides, base)
}

// Replace ingests a full replacement snapshot atomically. Original ranks
// are assigned here, once, and the snapshot clock is pinned so view
// recomputation stays deterministic until the next refresh.
func (e *Engine) Replace(records []models.TokenRecord, fetchedAt time.Time, refPriceUSD float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rows = indexRows(records)
	e.gen++
	e.snapTime = e.nowFn()
	e.fetchedAt = fetchedAt
	e.refPrice = refPriceUSD
	e.memo.invalidate()
}

// SetSearch updates the free-text symbol search.
func (e *Engine) SetSearch(q string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter.Search = q
}

// SetLiquidityFilter updates the liquidity class restriction.
func (e *Engine) SetLiquidityFilter(c LiquidityClass) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter.Liquidity = c
}

// SetMarketCapBounds updates the market-cap bounds from free-text input.
// Text that does not parse as a number leaves that bound unset.
func (e *Engine) SetMarketCapBounds(minText, maxText string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter.MinMarketCap = ParseBound(minText)
	e.filter.MaxMarketCap = ParseBound(maxText)
}

// SetSort applies header-click semantics for the named column. Unknown
// columns are ignored.
func (e *Engine) SetSort(columnID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !KnownColumn(columnID) {
		return
	}
	e.sort = e.sort.Toggle(columnID)
}

// ToggleColumn flips a column's visibility; required columns stay visible.
func (e *Engine) ToggleColumn(columnID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Toggle(columnID)
}

// Columns returns every column descriptor in registry order.
func (e *Engine) Columns() []Column {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.All()
}

// Filter returns the current filter state.
func (e *Engine) Filter() FilterState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// Sort returns the current sort state.
func (e *Engine) Sort() SortState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sort
}

// TableRow is one rendered row: identity, original rank, and one formatted
// cell per visible column.
type TableRow struct {
	Address string `json:"address"`
	Rank    int    `json:"rank"` // 1-based position in the original snapshot
	Cells   []Cell `json:"cells"`
}

// TableView is the complete render-ready output: visible descriptors plus
// ordered, formatted rows and snapshot metadata.
type TableView struct {
	Columns     []Column  `json:"columns"`
	Rows        []TableRow `json:"rows"`
	Total       int       `json:"total"`   // records in the snapshot before filtering
	Matched     int       `json:"matched"` // records after filtering
	SortColumn  string    `json:"sort_column"`
	SortDesc    bool      `json:"sort_desc"`
	FetchedAt   time.Time `json:"fetched_at"`
	RefPriceUSD float64   `json:"ref_price_usd,omitempty"`
}

// Table computes the current view: filter, stable sort, column selection,
// and per-cell formatting. The output is freshly allocated; callers may
// hold it across subsequent state changes.
func (e *Engine) Table() TableView {
	e.mu.Lock()
	defer e.mu.Unlock()

	visible := e.registry.Visible()
	ordered := e.memo.view(e.gen, e.rows, e.filter, e.sort, e.snapTime, e.overrides)

	rows := make([]TableRow, len(ordered))
	for i, row := range ordered {
		cells := make([]Cell, len(visible))
		for j, col := range visible {
			cells[j] = e.formatter.Format(col.ID, row.Record, e.snapTime)
		}
		rows[i] = TableRow{Address: row.Record.Address, Rank: row.Rank, Cells: cells}
	}

	return TableView{
		Columns:     visible,
		Rows:        rows,
		Total:       len(e.rows),
		Matched:     len(ordered),
		SortColumn:  e.sort.Column,
		SortDesc:    e.sort.Descending,
		FetchedAt:   e.fetchedAt,
		RefPriceUSD: e.refPrice,
	}
}
