package ingest

import "context"

type rowOutcome struct {
	categoryAdded bool
	productAdded  bool
}

// resolveRow ensures the referenced category and product exist, then persists
// the sale. All three writes share the caller's transaction.
//
// Lookups are by externally supplied id only: an existing product is reused
// unconditionally, with no reconciliation of name or price drift.
func resolveRow(ctx context.Context, tx TxRepository, row Row, fileID int64) (rowOutcome, error) {
	var out rowOutcome

	var categoryID *int64
	if row.CategoryID != nil && row.CategoryName != "" {
		exists, err := tx.CategoryExists(ctx, *row.CategoryID)
		if err != nil {
			return out, err
		}
		if !exists {
			if err := tx.InsertCategory(ctx, *row.CategoryID, row.CategoryName); err != nil {
				return out, err
			}
			out.categoryAdded = true
		}
		categoryID = row.CategoryID
	}

	var productID *int64
	if row.ProductID != nil && row.ProductName != "" {
		exists, err := tx.ProductExists(ctx, *row.ProductID)
		if err != nil {
			return out, err
		}
		if !exists {
			// The row's unit price seeds the product's list price.
			if err := tx.InsertProduct(ctx, *row.ProductID, row.ProductName, categoryID, row.UnitPrice); err != nil {
				return out, err
			}
			out.productAdded = true
		}
		productID = row.ProductID
	}

	return out, tx.InsertSale(ctx, SaleRecord{
		TransactionDate: row.Timestamp,
		ProductID:       productID,
		Quantity:        row.Quantity,
		UnitPrice:       row.UnitPrice,
		TotalPrice:      row.TotalPrice,
		FileID:          fileID,
	})
}
