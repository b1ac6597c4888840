package screener

// Column describes one displayable table column. Only Visible mutates
// after initialization; Required columns can never be hidden.
type Column struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Visible  bool   `json:"visible"`
	Required bool   `json:"required"`
}

// DefaultColumns returns the fixed registry order used by the screener
// table. The token column is the row identity and stays pinned.
func DefaultColumns() []Column {
	return []Column{
		{ID: ColToken, Label: "Token", Visible: true, Required: true},
		{ID: ColPrice, Label: "Price", Visible: true},
		{ID: ColPriceChange24h, Label: "24h %", Visible: true},
		{ID: ColSlippage, Label: "Slippage", Visible: true},
		{ID: ColHolderCount, Label: "Holders", Visible: true},
		{ID: ColMarketCap, Label: "Market Cap", Visible: true},
		{ID: ColTop1Share, Label: "Top 1", Visible: true},
		{ID: ColTop5Share, Label: "Top 5", Visible: false},
		{ID: ColTop20Share, Label: "Top 20", Visible: false},
		{ID: ColBurnedPercent, Label: "Burned", Visible: true},
		{ID: ColInsidersPercent, Label: "Insiders", Visible: false},
		{ID: ColDeployedAt, Label: "Age", Visible: true},
	}
}

// Registry holds the ordered column set. Order is fixed at initialization;
// user actions only flip visibility.
type Registry struct {
	cols []Column
}

// NewRegistry creates a registry over the given descriptors. A nil or
// empty slice gets the defaults.
func NewRegistry(cols []Column) *Registry {
	if len(cols) == 0 {
		cols = DefaultColumns()
	}
	owned := make([]Column, len(cols))
	copy(owned, cols)
	return &Registry{cols: owned}
}

// Toggle flips the visibility of the named column. Toggling a required
// column is a no-op, not an error. Returns true when visibility changed.
func (r *Registry) Toggle(columnID string) bool {
	for i := range r.cols {
		if r.cols[i].ID != columnID {
			continue
		}
		if r.cols[i].Required {
			return false
		}
		r.cols[i].Visible = !r.cols[i].Visible
		return true
	}
	return false
}

// Visible returns the visible descriptors in registry order.
func (r *Registry) Visible() []Column {
	out := make([]Column, 0, len(r.cols))
	for _, c := range r.cols {
		if c.Visible {
			out = append(out, c)
		}
	}
	return out
}

// All returns every descriptor in registry order.
func (r *Registry) All() []Column {
	out := make([]Column, len(r.cols))
	copy(out, r.cols)
	return out
}

// Has reports whether the registry contains the named column.
func (r *Registry) Has(columnID string) bool {
	for _, c := range r.cols {
		if c.ID == columnID {
			return true
		}
	}
	return false
}
