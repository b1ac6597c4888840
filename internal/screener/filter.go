package screener

import (
	"math"
	"strconv"
	"strings"

	"github.com/dexlens/dexlens/pkg/models"
)

// LiquidSlippageMax is the liquidity classification threshold: a record
// whose slippage is at or below this value counts as liquid. Fixed, not
// configurable.
const LiquidSlippageMax = 0.31

// LiquidityClass selects which liquidity classification a filter admits.
type LiquidityClass string

const (
	LiquidityAll      LiquidityClass = "all"
	LiquidityLiquid   LiquidityClass = "liquid"
	LiquidityIlliquid LiquidityClass = "illiquid"
)

// ParseLiquidityClass maps user input onto a LiquidityClass.
func ParseLiquidityClass(s string) (LiquidityClass, bool) {
	switch LiquidityClass(strings.ToLower(strings.TrimSpace(s))) {
	case LiquidityAll:
		return LiquidityAll, true
	case LiquidityLiquid:
		return LiquidityLiquid, true
	case LiquidityIlliquid:
		return LiquidityIlliquid, true
	}
	return "", false
}

// IsLiquid classifies a record by its slippage against the fixed threshold.
func IsLiquid(r *models.TokenRecord) bool {
	return r.Slippage <= LiquidSlippageMax
}

// Bound is an optional numeric filter bound. An unset bound is unbounded.
type Bound struct {
	Value float64
	Set   bool
}

// ParseBound parses free-text numeric input into a Bound. Anything that
// does not parse as a number (including empty text) yields an unset bound
// rather than an error.
func ParseBound(text string) Bound {
	text = strings.TrimSpace(text)
	if text == "" {
		return Bound{}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Bound{}
	}
	return Bound{Value: v, Set: true}
}

// FilterState is the complete filter configuration. The zero value
// admits every record.
type FilterState struct {
	Search       string
	Liquidity    LiquidityClass
	MinMarketCap Bound
	MaxMarketCap Bound
}

// DefaultFilter returns the initial filter state (everything admitted).
func DefaultFilter() FilterState {
	return FilterState{Liquidity: LiquidityAll}
}

// Match reports whether a record passes all three filter conditions:
// symbol substring search, liquidity class, and market-cap bounds.
// Pure; no side effects.
func (f FilterState) Match(r *models.TokenRecord) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(r.Symbol), q) {
			return false
		}
	}

	switch f.Liquidity {
	case LiquidityLiquid:
		if !IsLiquid(r) {
			return false
		}
	case LiquidityIlliquid:
		if IsLiquid(r) {
			return false
		}
	}

	// Unset bounds default to [0, +Inf). A min above max simply admits
	// nothing; that is the documented outcome, not an error.
	min := 0.0
	if f.MinMarketCap.Set {
		min = f.MinMarketCap.Value
	}
	max := math.Inf(1)
	if f.MaxMarketCap.Set {
		max = f.MaxMarketCap.Value
	}
	return r.MarketCap >= min && r.MarketCap <= max
}
