package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BOMID represents a unique Bill of Materials identifier
type BOMID string

// BOMLine represents a single component line in a Bill of Materials
type BOMLine struct {
	Item  ItemCode
	Qty   decimal.Decimal
	UOM   UOM
	BOMID BOMID // set when the component is itself manufactured
}

// Operation represents a manufacturing step performed at a workstation
type Operation struct {
	Name        string
	Workstation string
	Minutes     decimal.Decimal
	BatchSize   int
}

// BOM represents a Bill of Materials: the recipe producing one item from
// an ordered list of component lines and operations
type BOM struct {
	ID              BOMID
	Item            ItemCode
	Quantity        decimal.Decimal // output quantity per production run
	UOM             UOM
	IsDefault       bool
	IsSubcontracted bool
	Lines           []BOMLine
	Operations      []Operation
}

// NewBOM creates a validated BOM
func NewBOM(id BOMID, item ItemCode, quantity decimal.Decimal, uom UOM, lines []BOMLine) (*BOM, error) {
	if id == "" {
		return nil, fmt.Errorf("BOM ID cannot be empty")
	}
	if item == "" {
		return nil, fmt.Errorf("BOM %s: produced item cannot be empty", id)
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("BOM %s: output quantity must be positive, got %s", id, quantity)
	}
	for _, line := range lines {
		if line.Item == "" {
			return nil, fmt.Errorf("BOM %s: component item cannot be empty", id)
		}
		if line.Item == item {
			return nil, fmt.Errorf("BOM %s: item %s cannot be a component of itself", id, item)
		}
		if !line.Qty.IsPositive() {
			return nil, fmt.Errorf("BOM %s: component %s quantity must be positive, got %s", id, line.Item, line.Qty)
		}
	}

	return &BOM{
		ID:       id,
		Item:     item,
		Quantity: quantity,
		UOM:      uom,
		Lines:    lines,
	}, nil
}

// QtyPerUnit returns the quantity of a component line needed to produce one
// unit of the BOM's item
func (b *BOM) QtyPerUnit(line BOMLine) decimal.Decimal {
	return line.Qty.Div(b.Quantity)
}
