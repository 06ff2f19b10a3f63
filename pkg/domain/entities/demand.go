package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// DemandSource represents the document type a demand line originates from
type DemandSource int

const (
	SalesOrder DemandSource = iota
	MaterialRequestSource
)

// String method for DemandSource enum
func (d DemandSource) String() string {
	switch d {
	case SalesOrder:
		return "Sales Order"
	case MaterialRequestSource:
		return "Material Request"
	default:
		return "Unknown"
	}
}

// DemandLine represents a single line of external demand. Demand lines are
// read-only inputs: they are created when the source document is submitted
// and never mutated by planning.
type DemandLine struct {
	Source       DemandSource
	SourceID     string
	Item         ItemCode
	Qty          decimal.Decimal
	UOM          UOM
	Warehouse    string // target warehouse for the finished item
	ScheduleDate time.Time
}
