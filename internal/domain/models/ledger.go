package models

import "time"

// Category tags the trade a consumable belongs to.
type Category string

const (
	CategoryElectrical Category = "electrical"
	CategoryMechanical Category = "mechanical"
	CategoryFireSafety Category = "fire-safety"
	CategoryCommon     Category = "common"
)

// Categories lists every accepted category in display order.
var Categories = []Category{CategoryElectrical, CategoryMechanical, CategoryFireSafety, CategoryCommon}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// LedgerEntry is one recorded stock movement as stored in the ledger sheet.
// Quantities are kept as the text the user typed.
type LedgerEntry struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Category  string `json:"category"`
	ItemName  string `json:"itemName"`
	ModelName string `json:"modelName"`
	InQty     string `json:"inQty"`
	OutQty    string `json:"outQty"`
	StockQty  string `json:"stockQty"` // display snapshot only
	Unit      string `json:"unit"`
	MinStock  string `json:"minStock"`
	Details   string `json:"details"`
	Note      string `json:"note"`
}

// SKU identifies one consumable: category plus trimmed item and model names.
type SKU struct {
	Category  string `json:"category"`
	ItemName  string `json:"itemName"`
	ModelName string `json:"modelName"`
}

// SKUSummary is the folded state of every entry sharing a SKU.
type SKUSummary struct {
	SKU
	Unit             string  `json:"unit"`
	Details          string  `json:"details"`
	MinStock         float64 `json:"minStock"`
	TotalIn          float64 `json:"totalIn"`
	TotalOut         float64 `json:"totalOut"`
	CurrentStock     float64 `json:"currentStock"`
	TransactionCount int     `json:"transactionCount"`
	LastDate         string  `json:"lastDate"`
}

// RunningBalanceRow pairs an entry with the balance right after it.
type RunningBalanceRow struct {
	Entry   LedgerEntry `json:"entry"`
	Running float64     `json:"running"`
}

// RequisitionLine is one pre-filled purchase request line.
type RequisitionLine struct {
	Category            string `json:"category" bson:"category"`
	ItemName            string `json:"itemName" bson:"item_name"`
	ModelName           string `json:"modelName" bson:"model_name"`
	Unit                string `json:"unit" bson:"unit"`
	CurrentStockDisplay string `json:"currentStockDisplay" bson:"current_stock"`
	RequestedQty        string `json:"requestedQty" bson:"requested_qty"`
}

// LowStockSnapshot is the persisted result of a scheduled low-stock check.
type LowStockSnapshot struct {
	TakenAt   time.Time         `bson:"taken_at" json:"taken_at"`
	ItemCount int               `bson:"item_count" json:"item_count"`
	Lines     []RequisitionLine `bson:"lines" json:"lines"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
}

// ConsumptionLine is one SKU's movement totals over a report period.
type ConsumptionLine struct {
	SKU
	Unit      string  `json:"unit"`
	TotalIn   float64 `json:"totalIn"`
	TotalOut  float64 `json:"totalOut"`
	Movements int     `json:"movements"`
}

// ConsumptionReport covers the inclusive date range Start..End.
type ConsumptionReport struct {
	Start string            `json:"start"`
	End   string            `json:"end"`
	Lines []ConsumptionLine `json:"lines"`
}
