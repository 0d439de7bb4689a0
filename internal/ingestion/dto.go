package ingestion

// Import kinds, used as metric labels and log fields.
const (
	KindCustomers = "customers"
	KindProducts  = "products"
	KindInventory = "inventory"
	KindSales     = "sales"
)

// Summary reports what a bulk import did with the parsed rows.
type Summary struct {
	Processed int `json:"processed"`
	Rejected  int `json:"rejected"`
	Cleaned   int `json:"cleaned,omitempty"`
	Total     int `json:"total"`
}

// Result is the response payload for an import call. Preview carries the
// first few accepted entries so the operator can sanity-check a load.
type Result struct {
	Summary Summary `json:"summary"`
	Preview []any   `json:"preview,omitempty"`
}
