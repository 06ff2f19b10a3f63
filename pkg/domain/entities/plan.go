package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ManufacturingType represents where a sub-assembly is produced
type ManufacturingType int

const (
	InHouse ManufacturingType = iota
	Subcontract
)

// String method for ManufacturingType enum
func (m ManufacturingType) String() string {
	switch m {
	case InHouse:
		return "In House"
	case Subcontract:
		return "Subcontract"
	default:
		return "Unknown"
	}
}

// Sourcing is the variant payload of a sub-assembly requirement. Each
// manufacturing type carries exactly the fields its downstream flow needs.
type Sourcing interface {
	Type() ManufacturingType
}

// InHouseSourcing carries the data an in-house work order needs
type InHouseSourcing struct {
	WIPWarehouse string
	Operations   []Operation
}

// Type returns InHouse
func (s InHouseSourcing) Type() ManufacturingType { return InHouse }

// SubcontractSourcing carries the data a subcontract transfer needs
type SubcontractSourcing struct {
	Supplier           string
	ReceivingWarehouse string
}

// Type returns Subcontract
func (s SubcontractSourcing) Type() ManufacturingType { return Subcontract }

// SubAssemblyRequirement represents an intermediate manufactured item
// discovered during explosion, with its resolved sourcing decision.
// Rows are mutable planner state until the plan is submitted.
type SubAssemblyRequirement struct {
	Item         ItemCode
	Qty          decimal.Decimal // in the item's stock UOM
	UOM          UOM
	BOMID        BOMID
	ScheduleDate time.Time
	Sourcing     Sourcing
}

// RawMaterialRequirement represents the net requirement for one raw
// material at one target warehouse after aggregation
type RawMaterialRequirement struct {
	Item      ItemCode
	Qty       decimal.Decimal // in the item's stock UOM
	UOM       UOM
	Warehouse string
}

// ProductionItem represents a finished-good line of the plan, one per
// distinct demand item. Finished goods are always produced in house.
type ProductionItem struct {
	Item         ItemCode
	Qty          decimal.Decimal
	UOM          UOM
	BOMID        BOMID
	Warehouse    string // target warehouse for the finished stock
	ScheduleDate time.Time
	Operations   []Operation
}

// PlanStatus represents the lifecycle state of a production plan
type PlanStatus int

const (
	PlanDraft PlanStatus = iota
	PlanSubmitted
)

// String method for PlanStatus enum
func (s PlanStatus) String() string {
	switch s {
	case PlanDraft:
		return "Draft"
	case PlanSubmitted:
		return "Submitted"
	default:
		return "Unknown"
	}
}

// ProductionPlan holds the transient output of planning: demand, the
// resolved sub-assembly rows and the aggregated raw materials. Rows are
// frozen once the plan is submitted and execution documents are emitted.
type ProductionPlan struct {
	ID            string
	PostingDate   time.Time
	ForWarehouse  string // fallback target for raw materials without a default warehouse
	WIPWarehouse  string // work-in-progress warehouse stamped on emitted work orders
	Status        PlanStatus
	Demand        []DemandLine
	Items         []ProductionItem
	SubAssemblies []SubAssemblyRequirement
	RawMaterials  []RawMaterialRequirement
}
