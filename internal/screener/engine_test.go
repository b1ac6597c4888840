package screener

import (
	"testing"
	"time"

	"github.com/dexlens/dexlens/pkg/models"
)

func testEngine(records ...models.TokenRecord) *Engine {
	e := NewEngine(nil)
	e.nowFn = func() time.Time { return testNow }
	e.Replace(records, testNow, 0)
	return e
}

func symbols(v TableView) []string {
	out := make([]string, len(v.Rows))
	for i, row := range v.Rows {
		// The token cell is always first: the token column is required
		// and pinned at the head of the registry.
		out[i] = row.Cells[0].Text
	}
	return out
}

func TestEngineRoundTrip(t *testing.T) {
	// Default sort (market_cap, desc) yields [AAA, BBB]; one click on the
	// market-cap header flips to ascending, yielding [BBB, AAA].
	e := testEngine(
		models.TokenRecord{Address: "a1", Symbol: "AAA", MarketCap: 100, Slippage: 0.2},
		models.TokenRecord{Address: "b1", Symbol: "BBB", MarketCap: 50, Slippage: 0.5},
	)

	got := symbols(e.Table())
	if got[0] != "AAA" || got[1] != "BBB" {
		t.Fatalf("default sort order = %v, want [AAA BBB]", got)
	}

	e.SetSort(ColMarketCap)
	got = symbols(e.Table())
	if got[0] != "BBB" || got[1] != "AAA" {
		t.Fatalf("after flip order = %v, want [BBB AAA]", got)
	}
}

func TestEngineMarketCapFilter(t *testing.T) {
	e := testEngine(
		models.TokenRecord{Address: "a1", Symbol: "AAA", MarketCap: 100, Slippage: 0.2},
		models.TokenRecord{Address: "b1", Symbol: "BBB", MarketCap: 50, Slippage: 0.5},
	)

	e.SetMarketCapBounds("60", "")
	view := e.Table()
	if view.Matched != 1 || view.Rows[0].Cells[0].Text != "AAA" {
		t.Fatalf("min=60 view = %v (matched %d), want [AAA]", symbols(view), view.Matched)
	}

	// Malformed max is treated as unset, not an error.
	e.SetMarketCapBounds("60", "not-a-number")
	if view := e.Table(); view.Matched != 1 {
		t.Errorf("malformed max: matched = %d, want 1", view.Matched)
	}
}

func TestEngineSearch(t *testing.T) {
	e := testEngine(
		models.TokenRecord{Address: "a1", Symbol: "BONK", MarketCap: 100, Slippage: 0.2},
		models.TokenRecord{Address: "b1", Symbol: "WIF", MarketCap: 50, Slippage: 0.2},
	)

	e.SetSearch("bon")
	view := e.Table()
	if view.Matched != 1 || view.Rows[0].Cells[0].Text != "BONK" {
		t.Errorf("search view = %v, want [BONK]", symbols(view))
	}

	e.SetSearch("")
	if view := e.Table(); view.Matched != 2 {
		t.Errorf("cleared search matched = %d, want 2", view.Matched)
	}
}

func TestEngineLiquidityFilter(t *testing.T) {
	e := testEngine(
		models.TokenRecord{Address: "a1", Symbol: "AAA", MarketCap: 100, Slippage: 0.31},
		models.TokenRecord{Address: "b1", Symbol: "BBB", MarketCap: 50, Slippage: 0.311},
	)

	e.SetLiquidityFilter(LiquidityLiquid)
	view := e.Table()
	if view.Matched != 1 || view.Rows[0].Cells[0].Text != "AAA" {
		t.Errorf("liquid view = %v, want [AAA]", symbols(view))
	}

	e.SetLiquidityFilter(LiquidityIlliquid)
	view = e.Table()
	if view.Matched != 1 || view.Rows[0].Cells[0].Text != "BBB" {
		t.Errorf("illiquid view = %v, want [BBB]", symbols(view))
	}
}

func TestEngineToggleColumn(t *testing.T) {
	e := testEngine(
		models.TokenRecord{Address: "a1", Symbol: "AAA", MarketCap: 100, Slippage: 0.2},
	)

	before := len(e.Table().Columns)
	e.ToggleColumn(ColPrice)
	after := e.Table()
	if len(after.Columns) != before-1 {
		t.Errorf("columns after hide = %d, want %d", len(after.Columns), before-1)
	}
	if len(after.Rows[0].Cells) != len(after.Columns) {
		t.Errorf("cells per row = %d, want %d", len(after.Rows[0].Cells), len(after.Columns))
	}

	// Required column is untouchable.
	e.ToggleColumn(ColToken)
	for _, c := range e.Table().Columns {
		if c.ID == ColToken {
			return
		}
	}
	t.Error("token column missing after toggle attempt")
}

func TestEngineUnknownSortIgnored(t *testing.T) {
	e := testEngine(
		models.TokenRecord{Address: "a1", Symbol: "AAA", MarketCap: 100, Slippage: 0.2},
	)

	before := e.Sort()
	e.SetSort("no_such_column")
	if e.Sort() != before {
		t.Error("unknown sort column should leave sort state unchanged")
	}
}

func TestEngineReplaceResetsRanks(t *testing.T) {
	e := testEngine(
		models.TokenRecord{Address: "a1", Symbol: "AAA", MarketCap: 100, Slippage: 0.2},
		models.TokenRecord{Address: "b1", Symbol: "BBB", MarketCap: 50, Slippage: 0.5},
	)

	// Replacement snapshot arrives in a different feed order.
	e.Replace([]models.TokenRecord{
		{Address: "b1", Symbol: "BBB", MarketCap: 500, Slippage: 0.5},
		{Address: "a1", Symbol: "AAA", MarketCap: 100, Slippage: 0.2},
	}, testNow.Add(time.Minute), 0)

	view := e.Table() // market_cap desc: BBB first, and it is now rank 1
	if view.Rows[0].Cells[0].Text != "BBB" || view.Rows[0].Rank != 1 {
		t.Errorf("row 0 = %s rank %d, want BBB rank 1", view.Rows[0].Cells[0].Text, view.Rows[0].Rank)
	}
	if view.Total != 2 {
		t.Errorf("total = %d, want 2", view.Total)
	}
}

func TestEngineViewIsolation(t *testing.T) {
	e := testEngine(
		models.TokenRecord{Address: "a1", Symbol: "AAA", MarketCap: 100, Slippage: 0.2},
		models.TokenRecord{Address: "b1", Symbol: "BBB", MarketCap: 50, Slippage: 0.5},
	)

	view := e.Table()
	e.SetSearch("zzz") // empties the live view

	// A previously returned view is unaffected by later state changes.
	if len(view.Rows) != 2 {
		t.Errorf("held view rows = %d, want 2", len(view.Rows))
	}
	if live := e.Table(); live.Matched != 0 {
		t.Errorf("live view matched = %d, want 0", live.Matched)
	}
}
