package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaterialRequestLineType represents how a requested line is fulfilled
type MaterialRequestLineType int

const (
	PurchaseLine MaterialRequestLineType = iota
	TransferLine
)

// String method for MaterialRequestLineType enum
func (t MaterialRequestLineType) String() string {
	switch t {
	case PurchaseLine:
		return "Purchase"
	case TransferLine:
		return "Transfer"
	default:
		return "Unknown"
	}
}

// MaterialRequestLine represents one requested item movement
type MaterialRequestLine struct {
	Type         MaterialRequestLineType
	Item         ItemCode
	Qty          decimal.Decimal
	UOM          UOM
	Warehouse    string // target warehouse
	Supplier     string // set for subcontract transfer lines
	ScheduleDate time.Time
}

// MaterialRequest represents the procurement/transfer document emitted
// from a submitted plan's aggregated raw materials
type MaterialRequest struct {
	ID           string
	PlanID       string
	ScheduleDate time.Time
	Lines        []MaterialRequestLine
}

// WorkOrderStatus represents the lifecycle state of a work order
type WorkOrderStatus int

const (
	WorkOrderDraft WorkOrderStatus = iota
	WorkOrderSubmitted
	WorkOrderInProgress
	WorkOrderCompleted
)

// String method for WorkOrderStatus enum
func (s WorkOrderStatus) String() string {
	switch s {
	case WorkOrderDraft:
		return "Draft"
	case WorkOrderSubmitted:
		return "Submitted"
	case WorkOrderInProgress:
		return "In Progress"
	case WorkOrderCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// JobCardStatus represents the lifecycle state of a job card
type JobCardStatus int

const (
	JobCardDraft JobCardStatus = iota
	JobCardSubmitted
	JobCardCompleted
)

// String method for JobCardStatus enum
func (s JobCardStatus) String() string {
	switch s {
	case JobCardDraft:
		return "Draft"
	case JobCardSubmitted:
		return "Submitted"
	case JobCardCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// JobCard tracks completed quantity for one BOM operation under a work order
type JobCard struct {
	ID           string
	WorkOrderID  string
	Operation    Operation
	Status       JobCardStatus
	CompletedQty decimal.Decimal
}

// Submit moves the job card from Draft to Submitted
func (j *JobCard) Submit() error {
	if j.Status != JobCardDraft {
		return fmt.Errorf("job card %s: cannot submit from %s", j.ID, j.Status)
	}
	j.Status = JobCardSubmitted
	return nil
}

// WorkOrder represents a committed production run of one item against a BOM
type WorkOrder struct {
	ID              string
	PlanID          string
	Item            ItemCode
	Qty             decimal.Decimal
	UOM             UOM
	BOMID           BOMID
	WIPWarehouse    string
	TargetWarehouse string
	Status          WorkOrderStatus
	JobCards        []JobCard
}

// Submit moves the work order from Draft to Submitted
func (w *WorkOrder) Submit() error {
	if w.Status != WorkOrderDraft {
		return fmt.Errorf("work order %s: cannot submit from %s", w.ID, w.Status)
	}
	w.Status = WorkOrderSubmitted
	return nil
}

// RecordCompletion records produced quantity against one job card. The
// card must be submitted and the cumulative completed quantity may not
// exceed the work order quantity. Partial completion is valid; the work
// order transitions to In Progress on the first recording and to
// Completed once every job card reports the full work order quantity.
func (w *WorkOrder) RecordCompletion(jobCardIndex int, qty decimal.Decimal) error {
	if w.Status != WorkOrderSubmitted && w.Status != WorkOrderInProgress {
		return fmt.Errorf("work order %s: cannot record completion in %s", w.ID, w.Status)
	}
	if jobCardIndex < 0 || jobCardIndex >= len(w.JobCards) {
		return fmt.Errorf("work order %s: no job card at index %d", w.ID, jobCardIndex)
	}

	card := &w.JobCards[jobCardIndex]
	if card.Status != JobCardSubmitted {
		return fmt.Errorf("job card %s: cannot record completion in %s", card.ID, card.Status)
	}

	total := card.CompletedQty.Add(qty)
	if total.GreaterThan(w.Qty) {
		return fmt.Errorf("job card %s: completed qty %s exceeds work order qty %s", card.ID, total, w.Qty)
	}

	card.CompletedQty = total
	if total.Equal(w.Qty) {
		card.Status = JobCardCompleted
	}

	w.Status = WorkOrderInProgress
	if w.allCardsComplete() {
		w.Status = WorkOrderCompleted
	}
	return nil
}

func (w *WorkOrder) allCardsComplete() bool {
	for _, card := range w.JobCards {
		if card.CompletedQty.LessThan(w.Qty) {
			return false
		}
	}
	return true
}
