package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dexlens/dexlens/internal/config"
	"github.com/dexlens/dexlens/internal/datasource"
	"github.com/dexlens/dexlens/internal/screener"
	"github.com/dexlens/dexlens/pkg/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	engine := screener.NewEngine(nil)
	engine.Replace([]models.TokenRecord{
		{
			Chain: "solana", Address: "a1", Symbol: "AAA",
			Price: 0.5, PriceChange24h: 4.2, Slippage: 0.2,
			HolderCount: 100, MarketCap: 900,
		},
		{
			Chain: "solana", Address: "b1", Symbol: "BBB",
			Price: 1.5, PriceChange24h: -1.1, Slippage: 0.6,
			HolderCount: 50, MarketCap: 100,
		},
	}, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 171.42)

	srv := NewServer(&config.Config{}, engine, nil)
	srv.SetServeUI(false)
	return srv
}

type tableEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Rows []struct {
			Address string          `json:"address"`
			Rank    int             `json:"rank"`
			Cells   []screener.Cell `json:"cells"`
		} `json:"rows"`
		Total      int    `json:"total"`
		Matched    int    `json:"matched"`
		SortColumn string `json:"sort_column"`
		SortDesc   bool   `json:"sort_desc"`
		LoadError  string `json:"load_error"`
	} `json:"data"`
	Error string `json:"error"`
}

func doRequest(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, tableEnvelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var env tableEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v\nbody: %s", method, path, err, rec.Body.String())
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Status string `json:"status"`
			Tokens int    `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Data.Status != "ok" || env.Data.Tokens != 2 {
		t.Errorf("health = %+v", env)
	}
}

func TestGetTable(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/v1/table", "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status %d, success %v, err %q", rec.Code, env.Success, env.Error)
	}
	if env.Data.Total != 2 || env.Data.Matched != 2 {
		t.Errorf("total/matched = %d/%d", env.Data.Total, env.Data.Matched)
	}
	// Default sort: market cap descending.
	if env.Data.SortColumn != "market_cap" || !env.Data.SortDesc {
		t.Errorf("sort = %s desc=%v", env.Data.SortColumn, env.Data.SortDesc)
	}
	if env.Data.Rows[0].Address != "a1" || env.Data.Rows[1].Address != "b1" {
		t.Errorf("row order: %s, %s", env.Data.Rows[0].Address, env.Data.Rows[1].Address)
	}
	if env.Data.Rows[0].Rank != 1 {
		t.Errorf("rank = %d, want original position 1", env.Data.Rows[0].Rank)
	}
}

func TestSearchCommand(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodPost, "/api/v1/view/search", `{"query": "bbb"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Data.Matched != 1 || env.Data.Rows[0].Address != "b1" {
		t.Errorf("matched %d, first %s", env.Data.Matched, env.Data.Rows[0].Address)
	}
}

func TestLiquidityCommand(t *testing.T) {
	srv := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodPost, "/api/v1/view/liquidity", `{"class": "liquid"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Data.Matched != 1 || env.Data.Rows[0].Address != "a1" {
		t.Errorf("matched %d", env.Data.Matched)
	}

	rec, _ = doRequest(t, srv, http.MethodPost, "/api/v1/view/liquidity", `{"class": "sideways"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad class status = %d, want 400", rec.Code)
	}
}

func TestMarketCapCommand(t *testing.T) {
	srv := newTestServer(t)

	// Malformed max leaves that bound unset.
	rec, env := doRequest(t, srv, http.MethodPost, "/api/v1/view/marketcap", `{"min": "500", "max": "plenty"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Data.Matched != 1 || env.Data.Rows[0].Address != "a1" {
		t.Errorf("matched %d", env.Data.Matched)
	}
}

func TestSortCommand(t *testing.T) {
	srv := newTestServer(t)

	_, env := doRequest(t, srv, http.MethodPost, "/api/v1/view/sort/slippage", "")
	if env.Data.SortColumn != "slippage" || env.Data.SortDesc {
		t.Errorf("first click: %s desc=%v, want slippage ascending", env.Data.SortColumn, env.Data.SortDesc)
	}

	_, env = doRequest(t, srv, http.MethodPost, "/api/v1/view/sort/slippage", "")
	if !env.Data.SortDesc {
		t.Error("second click should flip to descending")
	}

	rec, _ := doRequest(t, srv, http.MethodPost, "/api/v1/view/sort/bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown column status = %d, want 400", rec.Code)
	}
}

func TestToggleColumnCommand(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/view/columns/price/toggle", strings.NewReader("{}")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env struct {
		Data struct {
			Column  string `json:"column"`
			Visible bool   `json:"visible"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Column != "price" || env.Data.Visible {
		t.Errorf("toggle = %+v", env.Data)
	}

	// The token column is required and cannot be hidden.
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/view/columns/token/toggle", strings.NewReader("{}")))
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Data.Visible {
		t.Error("required token column was hidden")
	}
}

func TestNewsDisabled(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doRequest(t, srv, http.MethodGet, "/api/v1/news", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestLoadErrorSurfacedAndCleared(t *testing.T) {
	srv := newTestServer(t)

	srv.NotifyLoadError(fmt.Errorf("feed unreachable"))
	_, env := doRequest(t, srv, http.MethodGet, "/api/v1/table", "")
	if env.Data.LoadError != "feed unreachable" {
		t.Errorf("load_error = %q", env.Data.LoadError)
	}
	// Stale table stays served.
	if env.Data.Total != 2 {
		t.Errorf("total = %d, want stale snapshot intact", env.Data.Total)
	}

	srv.NotifyRefresh(datasource.Snapshot{FetchedAt: time.Now()})
	_, env = doRequest(t, srv, http.MethodGet, "/api/v1/table", "")
	if env.Data.LoadError != "" {
		t.Errorf("load_error not cleared: %q", env.Data.LoadError)
	}
}

func TestUnknownRouteWithoutUI(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/definitely-not-here", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
