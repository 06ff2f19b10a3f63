package planner

import (
	"errors"
	"fmt"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
)

// Sentinel targets for errors.Is checks. The typed errors below carry the
// offending item/BOM/warehouse identity and unwrap to these.
var (
	ErrNoBOMFound                   = errors.New("no BOM found")
	ErrCyclicBOM                    = errors.New("cyclic BOM")
	ErrInvalidSubcontractAssignment = errors.New("invalid subcontract assignment")
	ErrPlanNotReady                 = errors.New("plan not ready")
	ErrAlreadySubmitted             = errors.New("plan already submitted")
	ErrWarehouseHierarchy           = errors.New("warehouse hierarchy error")
)

// NoBOMFoundError reports a manufactured item with no active BOM
type NoBOMFoundError struct {
	Item entities.ItemCode
}

func (e *NoBOMFoundError) Error() string {
	return fmt.Sprintf("no BOM found for manufactured item %s", e.Item)
}

func (e *NoBOMFoundError) Unwrap() error { return ErrNoBOMFound }

// CyclicBOMError reports a component that is also its own ancestor
type CyclicBOMError struct {
	Item entities.ItemCode
	Path []entities.ItemCode
}

func (e *CyclicBOMError) Error() string {
	return fmt.Sprintf("cyclic BOM: item %s appears in its own ancestry %v", e.Item, e.Path)
}

func (e *CyclicBOMError) Unwrap() error { return ErrCyclicBOM }

// InvalidSubcontractAssignmentError reports a subcontract row whose
// supplier cannot receive the work
type InvalidSubcontractAssignmentError struct {
	Item     entities.ItemCode
	Supplier string
	Reason   string
}

func (e *InvalidSubcontractAssignmentError) Error() string {
	return fmt.Sprintf("invalid subcontract assignment for %s (supplier %q): %s", e.Item, e.Supplier, e.Reason)
}

func (e *InvalidSubcontractAssignmentError) Unwrap() error { return ErrInvalidSubcontractAssignment }

// PlanNotReadyError reports a plan that failed emission validation
type PlanNotReadyError struct {
	PlanID string
	Reason string
}

func (e *PlanNotReadyError) Error() string {
	return fmt.Sprintf("plan %s not ready: %s", e.PlanID, e.Reason)
}

func (e *PlanNotReadyError) Unwrap() error { return ErrPlanNotReady }

// AlreadySubmittedError reports a re-submission of a submitted plan
type AlreadySubmittedError struct {
	PlanID string
}

func (e *AlreadySubmittedError) Error() string {
	return fmt.Sprintf("plan %s already submitted", e.PlanID)
}

func (e *AlreadySubmittedError) Unwrap() error { return ErrAlreadySubmitted }

// WarehouseHierarchyError reports an illegal stock target, such as a
// group warehouse or a missing warehouse
type WarehouseHierarchyError struct {
	Warehouse string
	Item      entities.ItemCode
	Reason    string
}

func (e *WarehouseHierarchyError) Error() string {
	return fmt.Sprintf("warehouse %q for item %s: %s", e.Warehouse, e.Item, e.Reason)
}

func (e *WarehouseHierarchyError) Unwrap() error { return ErrWarehouseHierarchy }
