package query

// StockStatus is the derived display classification of a quantity
type StockStatus string

const (
	OutOfStock StockStatus = "out_of_stock"
	LowStock   StockStatus = "low_stock"
	InStock    StockStatus = "in_stock"
)

// DefaultLowStockThreshold is the quantity at or below which stock is low
const DefaultLowStockThreshold = 10

// Classify maps quantity to its status. Zero is out of stock, a quantity
// up to threshold is low stock.
func Classify(quantity, threshold int) StockStatus {
	switch {
	case quantity <= 0:
		return OutOfStock
	case quantity <= threshold:
		return LowStock
	default:
		return InStock
	}
}
