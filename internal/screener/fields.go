// Package screener implements the token table engine: field access,
// filtering, sorting, column visibility, and cell formatting over a
// full-snapshot token record set.
package screener

import (
	"time"

	"github.com/dexlens/dexlens/pkg/models"
)

// Column identifiers. Each ID is a dotted field path into a TokenRecord;
// the nested holder-concentration fields live under the "holders." prefix.
const (
	ColToken           = "token"
	ColPrice           = "price"
	ColPriceChange24h  = "price_change_24h"
	ColSlippage        = "slippage"
	ColHolderCount     = "holder_count"
	ColMarketCap       = "market_cap"
	ColTop1Share       = "holders.top1_share"
	ColTop5Share       = "holders.top5_share"
	ColTop20Share      = "holders.top20_share"
	ColBurnedPercent   = "holders.burned_percent"
	ColInsidersPercent = "holders.insiders_percent"
	ColDeployedAt      = "deployed_at"
)

// Kind tags the type of a resolved field value.
type Kind int

const (
	KindAbsent Kind = iota
	KindNumber
	KindString
	KindTime
)

// Value is a resolved field value. Exactly one of Num, Str, Time is
// meaningful depending on Kind; KindAbsent carries nothing.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Time time.Time
}

func absent() Value         { return Value{Kind: KindAbsent} }
func num(v float64) Value   { return Value{Kind: KindNumber, Num: v} }
func str(s string) Value    { return Value{Kind: KindString, Str: s} }
func tim(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// accessor resolves one column's value from a record.
type accessor func(*models.TokenRecord) Value

// accessors is the closed set of field accessors, one per known column.
// Nested holder fields short-circuit to absent when the holders block is
// missing, mirroring lenient path walking without reflection.
var accessors = map[string]accessor{
	ColToken:           func(r *models.TokenRecord) Value { return str(r.Symbol) },
	ColPrice:           func(r *models.TokenRecord) Value { return num(r.Price) },
	ColPriceChange24h:  func(r *models.TokenRecord) Value { return num(r.PriceChange24h) },
	ColSlippage:        func(r *models.TokenRecord) Value { return num(r.Slippage) },
	ColHolderCount:     func(r *models.TokenRecord) Value { return num(float64(r.HolderCount)) },
	ColMarketCap:       func(r *models.TokenRecord) Value { return num(r.MarketCap) },
	ColTop1Share:       holderField(func(h *models.HolderStats) float64 { return h.Top1Share }),
	ColTop5Share:       holderField(func(h *models.HolderStats) float64 { return h.Top5Share }),
	ColTop20Share:      holderField(func(h *models.HolderStats) float64 { return h.Top20Share }),
	ColBurnedPercent:   holderField(func(h *models.HolderStats) float64 { return h.BurnedPercent }),
	ColInsidersPercent: holderField(func(h *models.HolderStats) float64 { return h.InsidersPercent }),
	ColDeployedAt: func(r *models.TokenRecord) Value {
		if r.DeployedAt.IsZero() {
			return absent()
		}
		return tim(r.DeployedAt)
	},
}

// holderField adapts a HolderStats getter into an accessor that resolves
// to absent when the block is nil.
func holderField(get func(*models.HolderStats) float64) accessor {
	return func(r *models.TokenRecord) Value {
		if r.Holders == nil {
			return absent()
		}
		return num(get(r.Holders))
	}
}

// FieldValue resolves the named column against a record. Unknown columns
// and absent intermediate values resolve to an absent Value, never an error.
func FieldValue(r *models.TokenRecord, columnID string) Value {
	fn, ok := accessors[columnID]
	if !ok {
		return absent()
	}
	return fn(r)
}

// KnownColumn reports whether columnID names a resolvable field.
func KnownColumn(columnID string) bool {
	_, ok := accessors[columnID]
	return ok
}
