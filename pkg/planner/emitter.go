package planner

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/domain/repositories"
)

// Documents is the execution output of a submitted plan
type Documents struct {
	MaterialRequest *entities.MaterialRequest
	WorkOrders      []*entities.WorkOrder
}

// Emitter turns a finalized plan into execution documents. Emission is
// all-or-nothing: validation runs first and nothing is produced when the
// plan is inconsistent.
type Emitter struct{}

// NewEmitter creates a new execution document emitter
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Emit validates the plan, builds one material request from the
// aggregated raw materials plus subcontract transfers, and one work
// order (with job cards per BOM operation) per in-house row. The caller
// owns the status flip: the plan stays Draft until every document is
// built and persisted.
func (em *Emitter) Emit(cat repositories.Catalog, plan *entities.ProductionPlan) (*Documents, error) {
	if plan.Status == entities.PlanSubmitted {
		return nil, &AlreadySubmittedError{PlanID: plan.ID}
	}
	if err := em.validate(plan); err != nil {
		return nil, err
	}

	request := &entities.MaterialRequest{
		ID:           uuid.NewString(),
		PlanID:       plan.ID,
		ScheduleDate: plan.PostingDate,
	}
	for _, raw := range plan.RawMaterials {
		request.Lines = append(request.Lines, entities.MaterialRequestLine{
			Type:         entities.PurchaseLine,
			Item:         raw.Item,
			Qty:          raw.Qty,
			UOM:          raw.UOM,
			Warehouse:    raw.Warehouse,
			ScheduleDate: plan.PostingDate,
		})
	}

	var orders []*entities.WorkOrder

	for _, item := range plan.Items {
		wo := em.workOrder(plan, item.Item, item.Qty, item.UOM, item.BOMID, plan.WIPWarehouse, item.Warehouse, item.Operations)
		orders = append(orders, wo)
	}

	for i := range plan.SubAssemblies {
		row := &plan.SubAssemblies[i]
		switch sourcing := row.Sourcing.(type) {
		case entities.InHouseSourcing:
			wip := sourcing.WIPWarehouse
			if wip == "" {
				wip = plan.WIPWarehouse
			}
			wo := em.workOrder(plan, row.Item, row.Qty, row.UOM, row.BOMID, wip, "", sourcing.Operations)
			orders = append(orders, wo)

		case entities.SubcontractSourcing:
			// Subcontracted rows get no work order; their components
			// move to the supplier's receiving warehouse instead.
			lines, err := em.transferLines(cat, plan, row, sourcing)
			if err != nil {
				return nil, err
			}
			request.Lines = append(request.Lines, lines...)
		}
	}

	return &Documents{MaterialRequest: request, WorkOrders: orders}, nil
}

// validate rejects inconsistent plans before anything is emitted
func (em *Emitter) validate(plan *entities.ProductionPlan) error {
	for i := range plan.SubAssemblies {
		row := &plan.SubAssemblies[i]
		switch sourcing := row.Sourcing.(type) {
		case entities.SubcontractSourcing:
			if sourcing.Supplier == "" {
				return &PlanNotReadyError{PlanID: plan.ID, Reason: fmt.Sprintf("subcontract row %s has no supplier", row.Item)}
			}
			if sourcing.ReceivingWarehouse == "" {
				return &PlanNotReadyError{PlanID: plan.ID, Reason: fmt.Sprintf("subcontract row %s has no receiving warehouse", row.Item)}
			}
		case nil:
			return &PlanNotReadyError{PlanID: plan.ID, Reason: fmt.Sprintf("sub-assembly row %s is unresolved", row.Item)}
		}
	}
	for _, raw := range plan.RawMaterials {
		if raw.Warehouse == "" {
			return &PlanNotReadyError{PlanID: plan.ID, Reason: fmt.Sprintf("raw material %s has no target warehouse", raw.Item)}
		}
	}
	return nil
}

// workOrder builds a draft work order with one job card per operation,
// in BOM operation order
func (em *Emitter) workOrder(plan *entities.ProductionPlan, item entities.ItemCode, qty decimal.Decimal, uom entities.UOM, bomID entities.BOMID, wip, target string, ops []entities.Operation) *entities.WorkOrder {
	wo := &entities.WorkOrder{
		ID:              uuid.NewString(),
		PlanID:          plan.ID,
		Item:            item,
		Qty:             qty,
		UOM:             uom,
		BOMID:           bomID,
		WIPWarehouse:    wip,
		TargetWarehouse: target,
		Status:          entities.WorkOrderDraft,
	}
	for _, op := range ops {
		wo.JobCards = append(wo.JobCards, entities.JobCard{
			ID:          uuid.NewString(),
			WorkOrderID: wo.ID,
			Operation:   op,
			Status:      entities.JobCardDraft,
		})
	}
	return wo
}

// transferLines scales the subcontracted row's BOM components to the row
// quantity and targets the supplier's receiving warehouse
func (em *Emitter) transferLines(cat repositories.Catalog, plan *entities.ProductionPlan, row *entities.SubAssemblyRequirement, sourcing entities.SubcontractSourcing) ([]entities.MaterialRequestLine, error) {
	bom, err := cat.GetBOM(row.BOMID)
	if err != nil {
		return nil, fmt.Errorf("emit: BOM %s for subcontract row %s: %w", row.BOMID, row.Item, err)
	}
	produced, err := cat.GetItem(row.Item)
	if err != nil {
		return nil, fmt.Errorf("emit: subcontract row %s: %w", row.Item, err)
	}
	outputQty, err := produced.ToStockQty(bom.Quantity, bom.UOM)
	if err != nil {
		return nil, fmt.Errorf("emit: BOM %s: %w", bom.ID, err)
	}
	runs := row.Qty.Div(outputQty)

	var lines []entities.MaterialRequestLine
	for _, line := range bom.Lines {
		component, err := cat.GetItem(line.Item)
		if err != nil {
			return nil, fmt.Errorf("emit: component %s of %s: %w", line.Item, row.Item, err)
		}
		qty, err := component.ToStockQty(line.Qty.Mul(runs), line.UOM)
		if err != nil {
			return nil, fmt.Errorf("emit: component %s of %s: %w", line.Item, row.Item, err)
		}
		lines = append(lines, entities.MaterialRequestLine{
			Type:         entities.TransferLine,
			Item:         line.Item,
			Qty:          qty,
			UOM:          component.StockUOM,
			Warehouse:    sourcing.ReceivingWarehouse,
			Supplier:     sourcing.Supplier,
			ScheduleDate: row.ScheduleDate,
		})
	}
	return lines, nil
}
