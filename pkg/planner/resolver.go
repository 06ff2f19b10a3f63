package planner

import (
	"fmt"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/domain/repositories"
)

// Resolver decides In House vs. Subcontract for every sub-assembly node
// and attaches the supplier/warehouse context each flow needs
type Resolver struct{}

// NewResolver creates a new sub-assembly resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve produces one requirement row per sub-assembly node, plus any
// caller-declared split rows. The default is In House; a BOM flagged
// subcontracted defaults to Subcontract; per-item overrides win. Every
// Subcontract row must name a supplier capable of receiving the work.
func (r *Resolver) Resolve(cat repositories.Catalog, tree *ExplodedTree, opts Options) ([]entities.SubAssemblyRequirement, error) {
	var rows []entities.SubAssemblyRequirement

	for _, idx := range tree.SubAssemblyNodes() {
		node := &tree.Nodes[idx]

		mtype := entities.InHouse
		supplier := ""
		if node.BOM.IsSubcontracted {
			mtype = entities.Subcontract
			supplier = node.Item.DefaultSupplier
		}
		if s, ok := opts.SubcontractOverrides[node.Item.Code]; ok {
			mtype = entities.Subcontract
			supplier = s
		}

		sourcing, err := r.sourcingFor(cat, node.Item, node.BOM, mtype, supplier, opts)
		if err != nil {
			return nil, err
		}

		rows = append(rows, entities.SubAssemblyRequirement{
			Item:         node.Item.Code,
			Qty:          node.Qty,
			UOM:          node.Item.StockUOM,
			BOMID:        node.BOM.ID,
			ScheduleDate: node.ScheduleDate,
			Sourcing:     sourcing,
		})
	}

	// Split sourcing: an explicit extra row for part of an item's
	// quantity produced the other way. Split rows are first-class plan
	// rows, validated the same as resolved ones.
	for _, split := range opts.Splits {
		item, err := cat.GetItem(split.Item)
		if err != nil {
			return nil, fmt.Errorf("resolve: split item %s: %w", split.Item, err)
		}
		bom, err := r.bomForSplit(cat, tree, split.Item)
		if err != nil {
			return nil, err
		}
		sourcing, err := r.sourcingFor(cat, item, bom, split.Type, split.Supplier, opts)
		if err != nil {
			return nil, err
		}
		rows = append(rows, entities.SubAssemblyRequirement{
			Item:         split.Item,
			Qty:          split.Qty,
			UOM:          item.StockUOM,
			BOMID:        bom.ID,
			ScheduleDate: opts.PostingDate,
			Sourcing:     sourcing,
		})
	}

	return rows, nil
}

// sourcingFor builds the variant payload for a manufacturing type. In
// House rows copy the BOM operations forward for job-card generation;
// Subcontract rows record the transfer target at the supplier.
func (r *Resolver) sourcingFor(cat repositories.Catalog, item *entities.Item, bom *entities.BOM, mtype entities.ManufacturingType, supplier string, opts Options) (entities.Sourcing, error) {
	switch mtype {
	case entities.Subcontract:
		if supplier == "" {
			supplier = item.DefaultSupplier
		}
		if supplier == "" {
			return nil, &InvalidSubcontractAssignmentError{Item: item.Code, Reason: "no supplier assigned"}
		}
		capable, err := cat.CanSubcontract(supplier, item.Code)
		if err != nil {
			return nil, fmt.Errorf("resolve: supplier %s: %w", supplier, err)
		}
		if !capable {
			return nil, &InvalidSubcontractAssignmentError{
				Item:     item.Code,
				Supplier: supplier,
				Reason:   "supplier cannot receive subcontracted work for this item",
			}
		}
		receiving, err := cat.ReceivingWarehouse(supplier)
		if err != nil {
			return nil, fmt.Errorf("resolve: supplier %s: %w", supplier, err)
		}
		return entities.SubcontractSourcing{Supplier: supplier, ReceivingWarehouse: receiving}, nil

	default:
		var ops []entities.Operation
		if bom != nil {
			ops = bom.Operations
		}
		return entities.InHouseSourcing{WIPWarehouse: opts.WIPWarehouse, Operations: ops}, nil
	}
}

// bomForSplit locates the BOM of the node the split shadows
func (r *Resolver) bomForSplit(cat repositories.Catalog, tree *ExplodedTree, item entities.ItemCode) (*entities.BOM, error) {
	for _, idx := range tree.SubAssemblyNodes() {
		if tree.Nodes[idx].Item.Code == item {
			return tree.Nodes[idx].BOM, nil
		}
	}
	bom, err := cat.GetActiveBOM(item)
	if err != nil {
		return nil, fmt.Errorf("resolve: split item %s has no node in the plan and no active BOM: %w", item, err)
	}
	return bom, nil
}
