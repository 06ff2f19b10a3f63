package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ItemCode represents a unique item identifier
type ItemCode string

// UOM represents a unit of measure
type UOM string

// MaterialRequestType represents how an item is replenished by default
type MaterialRequestType int

const (
	Manufacture MaterialRequestType = iota
	Purchase
)

// String method for MaterialRequestType enum
func (m MaterialRequestType) String() string {
	switch m {
	case Manufacture:
		return "Manufacture"
	case Purchase:
		return "Purchase"
	default:
		return "Unknown"
	}
}

// UOMConversion maps an alternate unit of measure to the stock unit.
// Quantity in UOM multiplied by Factor yields quantity in the stock UOM.
type UOMConversion struct {
	UOM    UOM
	Factor decimal.Decimal
}

// Item represents catalog master data for a stock or purchase item
type Item struct {
	Code             ItemCode
	Description      string
	StockUOM         UOM
	IsStockItem      bool
	IsPurchaseItem   bool
	IsSubcontracted  bool
	RequestType      MaterialRequestType
	DefaultWarehouse string
	DefaultSupplier  string
	Suppliers        []string
	Conversions      []UOMConversion
}

// NewItem creates a validated Item
func NewItem(code ItemCode, stockUOM UOM) (*Item, error) {
	if code == "" {
		return nil, fmt.Errorf("item code cannot be empty")
	}
	if stockUOM == "" {
		return nil, fmt.Errorf("stock UOM cannot be empty for item %s", code)
	}

	return &Item{
		Code:        code,
		StockUOM:    stockUOM,
		IsStockItem: true,
	}, nil
}

// ConversionFactor returns the factor converting a quantity in uom to the
// stock UOM. The stock UOM itself always converts with factor 1.
func (i *Item) ConversionFactor(uom UOM) (decimal.Decimal, bool) {
	if uom == i.StockUOM || uom == "" {
		return decimal.NewFromInt(1), true
	}
	for _, conv := range i.Conversions {
		if conv.UOM == uom {
			return conv.Factor, true
		}
	}
	return decimal.Zero, false
}

// ToStockQty converts a quantity expressed in uom into the item's stock UOM
func (i *Item) ToStockQty(qty decimal.Decimal, uom UOM) (decimal.Decimal, error) {
	factor, ok := i.ConversionFactor(uom)
	if !ok {
		return decimal.Zero, fmt.Errorf("item %s has no conversion from %s to %s", i.Code, uom, i.StockUOM)
	}
	return qty.Mul(factor), nil
}

// SuppliedBy reports whether the supplier is listed for this item
func (i *Item) SuppliedBy(supplier string) bool {
	if supplier == "" {
		return false
	}
	if i.DefaultSupplier == supplier {
		return true
	}
	for _, s := range i.Suppliers {
		if s == supplier {
			return true
		}
	}
	return false
}
