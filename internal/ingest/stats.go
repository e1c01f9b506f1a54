package ingest

// Stats accumulates the outcome of one pipeline run. It is built up inside
// the pipeline and returned by value; nothing outside the run mutates it.
type Stats struct {
	TotalRows        int `json:"total_rows"`
	ProcessedRows    int `json:"processed_rows"`
	SkippedRows      int `json:"skipped_rows"`
	CategoriesAdded  int `json:"categories_added"`
	ProductsAdded    int `json:"products_added"`
	SalesAdded       int `json:"sales_added"`
	AnalyticsUpdated int `json:"analytics_updated"`
}
