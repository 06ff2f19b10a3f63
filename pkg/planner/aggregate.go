package planner

import (
	"sort"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/domain/repositories"
)

// Aggregate merges every raw terminal of the exploded tree into net
// requirements keyed by (item, warehouse). Warehouse resolution falls
// back item default -> plan for-warehouse; a group warehouse is never a
// valid stock target. Output is sorted by item code then warehouse name
// so identical input always yields an identical sequence.
func Aggregate(cat repositories.Catalog, tree *ExplodedTree, opts Options) ([]entities.RawMaterialRequirement, error) {
	type key struct {
		item      entities.ItemCode
		warehouse string
	}
	merged := make(map[key]*entities.RawMaterialRequirement)

	for _, idx := range tree.RawNodes() {
		node := &tree.Nodes[idx]

		warehouse := node.Warehouse
		if warehouse == "" {
			warehouse = node.Item.DefaultWarehouse
		}
		if warehouse == "" {
			warehouse = opts.ForWarehouse
		}
		if warehouse == "" {
			return nil, &WarehouseHierarchyError{
				Item:   node.Item.Code,
				Reason: "no target warehouse: item has no default and the plan declares no for-warehouse",
			}
		}
		group, err := cat.IsGroup(warehouse)
		if err != nil {
			return nil, &WarehouseHierarchyError{Warehouse: warehouse, Item: node.Item.Code, Reason: "unknown warehouse"}
		}
		if group {
			return nil, &WarehouseHierarchyError{Warehouse: warehouse, Item: node.Item.Code, Reason: "group warehouse cannot hold stock"}
		}

		k := key{item: node.Item.Code, warehouse: warehouse}
		if row, ok := merged[k]; ok {
			row.Qty = row.Qty.Add(node.Qty)
			continue
		}
		merged[k] = &entities.RawMaterialRequirement{
			Item:      node.Item.Code,
			Qty:       node.Qty,
			UOM:       node.Item.StockUOM,
			Warehouse: warehouse,
		}
	}

	rows := make([]entities.RawMaterialRequirement, 0, len(merged))
	for _, row := range merged {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Item != rows[j].Item {
			return rows[i].Item < rows[j].Item
		}
		return rows[i].Warehouse < rows[j].Warehouse
	})

	return rows, nil
}
