package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Import/export column headers as they appear in spreadsheets.
const (
	ColZone          = "Zone"
	ColGrade         = "Grade"
	ColSKU           = "SKU"
	ColBookName      = "Book Name"
	ColBookCategory  = "Book Category"
	ColQty           = "Qty"
	ColSellingPrice  = "Selling Price"
	ColCostPrice     = "Cost Price"
	ColTotalCost     = "Total Cost"
	ColTotalSelling  = "Total Selling"
	ColMargin        = "Margin"
	ColMarginPercent = "Margin %"
)

// ImportColumns lists the columns every import batch must carry, in template order.
var ImportColumns = []string{
	ColZone, ColGrade, ColSKU, ColBookName, ColBookCategory,
	ColQty, ColSellingPrice, ColCostPrice,
}

// ExportColumns lists the columns of an enriched export, in file order.
var ExportColumns = []string{
	ColZone, ColGrade, ColSKU, ColBookName, ColBookCategory,
	ColQty, ColSellingPrice, ColCostPrice,
	ColTotalCost, ColTotalSelling, ColMargin, ColMarginPercent,
}

// BookInput holds every attribute of a book record except its identifier.
// It is the payload of add and update operations.
type BookInput struct {
	Zone         string          `json:"zone"`
	Grade        string          `json:"grade"`
	SKU          string          `json:"sku"`
	BookName     string          `json:"book_name"`
	BookCategory string          `json:"book_category"`
	Qty          int64           `json:"qty"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	CostPrice    decimal.Decimal `json:"cost_price"`
}

// Book is one stored inventory row. ID is assigned by the store.
type Book struct {
	ID int64 `json:"id"`
	BookInput
}

// Metrics are the derived financial fields of a book or a group of books.
// They are computed on read and never persisted.
type Metrics struct {
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalSelling decimal.Decimal `json:"total_selling"`
	Margin       decimal.Decimal `json:"margin"`
	// MarginPercent is nil when TotalSelling is zero.
	MarginPercent *decimal.Decimal `json:"margin_percent"`
}

// Row is a book enriched with its metrics, the unit handed to UI and export.
type Row struct {
	Book
	Metrics
}

// Store is the durable collection of book records.
//
// Implementations must assign unique, never reused identifiers and return
// records from List in insertion order. Update and Delete return an error
// matching ErrNotFound when the id does not exist.
type Store interface {
	Insert(ctx context.Context, in BookInput) (int64, error)
	Update(ctx context.Context, id int64, in BookInput) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (Book, error)
	List(ctx context.Context) ([]Book, error)
	Close() error
}

// Batch is a tabular import as delivered by a spreadsheet reader.
type Batch struct {
	FileName string
	Columns  []string            // header row as found in the file
	Rows     []map[string]string // one map per data row, keyed by header
}

// RowFailure describes a batch row that was not inserted.
type RowFailure struct {
	Row    int    `json:"row"` // 1-based data row
	Reason string `json:"reason"`
}

// RowCoercion records numeric fields that were coerced to zero on import.
type RowCoercion struct {
	Row    int      `json:"row"`
	Fields []string `json:"fields"`
}

// ImportResult summarises a batch import.
type ImportResult struct {
	BatchID     string        `json:"batch_id"`
	FileName    string        `json:"file_name,omitempty"`
	TotalRows   int           `json:"total_rows"`
	Inserted    int           `json:"inserted"`
	InsertedIDs []int64       `json:"inserted_ids"`
	Failed      []RowFailure  `json:"failed"`
	Coerced     []RowCoercion `json:"coerced"`
	CoercedRows int           `json:"coerced_rows"`
	Duration    time.Duration `json:"duration_ns"`
}
