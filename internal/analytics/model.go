package analytics

import "time"

// Period granularities stored in period_aggregates.
const (
	PeriodDaily   = "daily"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// Aggregate is one period_aggregates row enriched with catalog names.
type Aggregate struct {
	AggregateID   int64     `json:"analytics_id"`
	ProductID     *int64    `json:"product_id"`
	ProductName   *string   `json:"product_name"`
	CategoryID    *int64    `json:"category_id"`
	CategoryName  *string   `json:"category_name"`
	DatePeriod    time.Time `json:"date_period"`
	PeriodType    string    `json:"period_type"`
	TotalQuantity int64     `json:"total_quantity"`
	TotalRevenue  float64   `json:"total_revenue"`
	TotalCost     float64   `json:"total_cost"`
	Profit        float64   `json:"profit"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Group is the aggregation key plus the sums folded into one daily row.
type Group struct {
	DatePeriod    time.Time
	ProductID     *int64
	CategoryID    *int64
	TotalQuantity int64
	TotalRevenue  float64
	TotalCost     float64
}

// Profit is derived, never stored independently of revenue and cost.
func (g Group) Profit() float64 {
	return g.TotalRevenue - g.TotalCost
}

// FileSaleRow is one sale joined with its product's cost and category.
type FileSaleRow struct {
	TransactionDate time.Time
	ProductID       *int64
	CategoryID      *int64
	Quantity        int64
	TotalPrice      float64
	UnitCost        *float64
}

// ReportFilter narrows the report query. ProductID wins over CategoryID when
// both are supplied, matching the upstream API contract.
type ReportFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	PeriodType string
	ProductID  *int64
	CategoryID *int64
}

// ReportSummary carries the sums over the selected aggregate rows.
type ReportSummary struct {
	TotalQuantity int64   `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalCost     float64 `json:"total_cost"`
	TotalProfit   float64 `json:"total_profit"`
	PeriodCount   int     `json:"period_count"`
}

// Report is the report endpoint payload.
type Report struct {
	Rows    []Aggregate   `json:"report"`
	Summary ReportSummary `json:"summary"`
}

// TrendFilter selects the trend window. Period is the caller-facing window
// (weekly/monthly/yearly); the stored granularity is derived from it.
type TrendFilter struct {
	Period     string
	ProductID  *int64
	CategoryID *int64
	Limit      int
}

// TrendPoint is one plotted trend sample.
type TrendPoint struct {
	Date     time.Time `json:"date"`
	Revenue  float64   `json:"revenue"`
	Profit   float64   `json:"profit"`
	Quantity int64     `json:"quantity"`
	Label    string    `json:"label"`
}

// Trends is the trends endpoint payload.
type Trends struct {
	Points       []TrendPoint `json:"trends"`
	Period       string       `json:"period"`
	TotalPeriods int          `json:"total_periods"`
}

// TopProduct ranks a product by units sold.
type TopProduct struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	TotalQuantity int64  `json:"total_quantity"`
}

// Summary is the storefront-wide overview payload.
type Summary struct {
	TotalRevenue    float64      `json:"total_revenue"`
	TotalOrders     int64        `json:"total_orders"`
	TotalProducts   int64        `json:"total_products"`
	TotalCategories int64        `json:"total_categories"`
	TopProducts     []TopProduct `json:"top_products"`
}
