package datasource

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
)

// refPriceSymbol is the CEX pair used as the screener's reference price.
const refPriceSymbol = "SOLUSDT"

// RefPrice fetches the SOL/USDT last price from Binance. The screener
// header shows it next to the table; it is metadata, not part of any row.
type RefPrice struct {
	client *binance.Client
	cache  *Cache
}

// NewRefPrice creates a reference-price source. No API key is needed for
// public ticker data.
func NewRefPrice() *RefPrice {
	return &RefPrice{
		client: binance.NewClient("", ""),
		cache:  NewCache(30 * time.Second),
	}
}

// SOLUSD returns the current SOL price in USD.
func (r *RefPrice) SOLUSD(ctx context.Context) (float64, error) {
	if cached, ok := r.cache.Get(refPriceSymbol); ok {
		return cached.(float64), nil
	}

	prices, err := r.client.NewListPricesService().Symbol(refPriceSymbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("binance ticker %s: %w", refPriceSymbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("binance ticker %s: empty response", refPriceSymbol)
	}

	v, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ticker price %q: %w", prices[0].Price, err)
	}

	r.cache.Set(refPriceSymbol, v)
	return v, nil
}
