package screener

import (
	"fmt"
	"strings"
	"time"

	"github.com/dexlens/dexlens/pkg/models"
	"github.com/dexlens/dexlens/pkg/utils"
)

// Cell is one formatted table cell: display text plus presentation hints.
type Cell struct {
	Text    string `json:"text"`
	Hint    string `json:"hint,omitempty"`    // "positive" | "negative" | "liquid" | "illiquid"
	Link    string `json:"link,omitempty"`    // token cell only
	Tooltip string `json:"tooltip,omitempty"` // token cell, when not liquid
}

// Hints carried on formatted cells.
const (
	HintPositive = "positive"
	HintNegative = "negative"
	HintLiquid   = "liquid"
	HintIlliquid = "illiquid"
)

// absentText renders in place of values that did not resolve.
const absentText = "-"

// Formatter maps resolved raw values plus column identity onto display
// strings and style hints. Pure; safe for concurrent use.
type Formatter struct {
	overrides DeployOverrides
	linkBase  string // explorer URL prefix for the token cell
}

// NewFormatter builds a formatter honoring the given deploy-date overrides.
func NewFormatter(overrides DeployOverrides, linkBase string) *Formatter {
	if linkBase == "" {
		linkBase = "https://gmgn.ai/sol/token/"
	}
	return &Formatter{overrides: overrides, linkBase: linkBase}
}

// Format renders one cell for the given column and record. now is the
// snapshot clock used for age rendering.
func (f *Formatter) Format(columnID string, r *models.TokenRecord, now time.Time) Cell {
	switch columnID {
	case ColToken:
		return f.tokenCell(r)
	case ColDeployedAt:
		return f.ageCell(r, now)
	case ColPriceChange24h:
		hint := HintPositive
		if r.PriceChange24h < 0 {
			hint = HintNegative
		}
		return Cell{Text: utils.FormatPct(r.PriceChange24h), Hint: hint}
	case ColMarketCap:
		return Cell{Text: utils.FormatUSDInt(r.MarketCap)}
	case ColHolderCount:
		return Cell{Text: utils.GroupInt(int64(r.HolderCount))}
	}

	v := FieldValue(r, columnID)
	if v.Kind == KindAbsent {
		return Cell{Text: absentText}
	}

	switch {
	case isPriceColumn(columnID):
		return Cell{Text: utils.FormatUSD(v.Num)}
	case isPercentColumn(columnID):
		return Cell{Text: utils.FormatPct(v.Num)}
	case v.Kind == KindNumber:
		return Cell{Text: utils.GroupInt(int64(v.Num))}
	case v.Kind == KindString:
		return Cell{Text: v.Str}
	default:
		return Cell{Text: absentText}
	}
}

// tokenCell renders the identity column: a link-style reference with a
// liquidity badge. Illiquid tokens carry a tooltip reporting the exact
// slippage.
func (f *Formatter) tokenCell(r *models.TokenRecord) Cell {
	cell := Cell{
		Text: r.Symbol,
		Link: f.linkBase + r.Address,
	}
	if IsLiquid(r) {
		cell.Hint = HintLiquid
	} else {
		cell.Hint = HintIlliquid
		cell.Tooltip = fmt.Sprintf("slippage %s — may be hard to exit", utils.FormatPct(r.Slippage))
	}
	return cell
}

// ageCell renders deployment age in whole days, honoring the deploy-date
// override table.
func (f *Formatter) ageCell(r *models.TokenRecord, now time.Time) Cell {
	t, ok := f.overrides.DeployTime(r)
	if !ok {
		return Cell{Text: absentText}
	}
	return Cell{Text: utils.FormatAge(utils.AgeDays(now, t))}
}

// isPriceColumn reports whether the column renders a full-precision
// currency value.
func isPriceColumn(columnID string) bool {
	return columnID == ColPrice
}

// isPercentColumn matches the slippage column plus any path whose final
// segment mentions percent or share.
func isPercentColumn(columnID string) bool {
	if columnID == ColSlippage {
		return true
	}
	last := columnID
	if i := strings.LastIndex(columnID, "."); i >= 0 {
		last = columnID[i+1:]
	}
	return strings.Contains(last, "percent") || strings.Contains(last, "share")
}
