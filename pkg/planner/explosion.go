package planner

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/domain/repositories"
)

// Options control a single planning run
type Options struct {
	// CombineSubItems merges occurrences of the same sub-assembly item
	// across branches into one node with summed quantity.
	CombineSubItems bool

	// SubcontractOverrides forces the listed items to Subcontract with
	// the given supplier.
	SubcontractOverrides map[entities.ItemCode]string

	// BOMOverrides selects a specific BOM instead of the item's default.
	BOMOverrides map[entities.ItemCode]entities.BOMID

	// Splits add extra sub-assembly rows for split sourcing: part of an
	// item's quantity produced one way, the rest another.
	Splits []SourcingSplit

	// ForWarehouse is the fallback target for raw materials whose item
	// has no default warehouse.
	ForWarehouse string

	// WIPWarehouse is the work-in-progress warehouse stamped on work
	// orders for in-house rows.
	WIPWarehouse string

	PostingDate time.Time
}

// SourcingSplit declares an additional requirement row for an item with
// its own quantity and manufacturing type
type SourcingSplit struct {
	Item     entities.ItemCode
	Qty      decimal.Decimal
	Type     entities.ManufacturingType
	Supplier string // required for Subcontract splits
}

// Node is one entry in the exploded requirement arena. Quantities are
// always in the node item's stock UOM.
type Node struct {
	Item         *entities.Item
	BOM          *entities.BOM // nil marks a raw (purchased) terminal
	Qty          decimal.Decimal
	Warehouse    string
	ScheduleDate time.Time
	Parent       int // arena index, -1 for roots and combined nodes
	Children     []int
	Root         bool
}

// Raw reports whether the node terminates explosion
func (n *Node) Raw() bool { return n.BOM == nil }

// ExplodedTree is the arena of requirement nodes produced by explosion
type ExplodedTree struct {
	Nodes []Node
	Roots []int
}

// RawNodes returns arena indexes of all raw terminal nodes
func (t *ExplodedTree) RawNodes() []int {
	var out []int
	for i := range t.Nodes {
		if t.Nodes[i].Raw() {
			out = append(out, i)
		}
	}
	return out
}

// SubAssemblyNodes returns arena indexes of all non-root manufactured nodes
func (t *ExplodedTree) SubAssemblyNodes() []int {
	var out []int
	for i := range t.Nodes {
		if !t.Nodes[i].Raw() && !t.Nodes[i].Root {
			out = append(out, i)
		}
	}
	return out
}

// Engine performs BOM explosion over a catalog snapshot. It is stateless
// and safe for concurrent use; all state lives in the tree it returns.
type Engine struct{}

// NewEngine creates a new explosion engine
func NewEngine() *Engine {
	return &Engine{}
}

// Explode expands demand lines down to raw materials. The whole explosion
// fails on a cycle or a missing BOM; a partial tree is never returned.
func (e *Engine) Explode(cat repositories.Catalog, demand []entities.DemandLine, opts Options) (*ExplodedTree, error) {
	if len(demand) == 0 {
		return nil, fmt.Errorf("explode: no demand lines")
	}
	if opts.CombineSubItems {
		return e.explodeCombined(cat, demand, opts)
	}
	return e.explodeBranches(cat, demand, opts)
}

// resolveBOM picks the BOM for an item: an explicit line reference wins,
// then a caller override, then the item's default active BOM. A nil BOM
// with no error marks a purchased terminal.
func (e *Engine) resolveBOM(cat repositories.Catalog, opts Options, item *entities.Item, lineBOM entities.BOMID) (*entities.BOM, error) {
	if lineBOM != "" {
		return cat.GetBOM(lineBOM)
	}
	if id, ok := opts.BOMOverrides[item.Code]; ok {
		return cat.GetBOM(id)
	}

	bom, err := cat.GetActiveBOM(item.Code)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		if item.RequestType == entities.Purchase || item.IsPurchaseItem {
			return nil, nil // raw terminal
		}
		return nil, &NoBOMFoundError{Item: item.Code}
	}
	return bom, nil
}

// lineRequirement computes the stock-UOM quantity of one component line
// needed for parentQty units of the parent item.
func (e *Engine) lineRequirement(parent *Node, line entities.BOMLine, child *entities.Item) (decimal.Decimal, error) {
	outputQty, err := parent.Item.ToStockQty(parent.BOM.Quantity, parent.BOM.UOM)
	if err != nil {
		return decimal.Zero, err
	}
	runs := parent.Qty.Div(outputQty)
	return child.ToStockQty(line.Qty.Mul(runs), line.UOM)
}

// explodeBranches expands every demand line as its own tree branch. Cycle
// detection walks the parent chain of the arena, so recursion depth is
// bounded and every path carries an explicit ancestor check.
func (e *Engine) explodeBranches(cat repositories.Catalog, demand []entities.DemandLine, opts Options) (*ExplodedTree, error) {
	tree := &ExplodedTree{}
	var work []int // arena indexes pending expansion

	for _, line := range demand {
		item, err := cat.GetItem(line.Item)
		if err != nil {
			return nil, fmt.Errorf("explode: demand item %s: %w", line.Item, err)
		}
		qty, err := item.ToStockQty(line.Qty, line.UOM)
		if err != nil {
			return nil, fmt.Errorf("explode: demand item %s: %w", line.Item, err)
		}
		bom, err := e.resolveBOM(cat, opts, item, "")
		if err != nil {
			return nil, err
		}

		idx := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, Node{
			Item:         item,
			BOM:          bom,
			Qty:          qty,
			Warehouse:    line.Warehouse,
			ScheduleDate: line.ScheduleDate,
			Parent:       -1,
			Root:         true,
		})
		tree.Roots = append(tree.Roots, idx)
		if bom != nil {
			work = append(work, idx)
		}
	}

	for len(work) > 0 {
		idx := work[len(work)-1]
		work = work[:len(work)-1]

		parent := tree.Nodes[idx]
		for _, line := range parent.BOM.Lines {
			if err := e.checkAncestry(tree, idx, line.Item); err != nil {
				return nil, err
			}

			child, err := cat.GetItem(line.Item)
			if err != nil {
				return nil, fmt.Errorf("explode: component %s of %s: %w", line.Item, parent.Item.Code, err)
			}
			qty, err := e.lineRequirement(&parent, line, child)
			if err != nil {
				return nil, fmt.Errorf("explode: component %s of %s: %w", line.Item, parent.Item.Code, err)
			}
			bom, err := e.resolveBOM(cat, opts, child, line.BOMID)
			if err != nil {
				return nil, err
			}

			childIdx := len(tree.Nodes)
			tree.Nodes = append(tree.Nodes, Node{
				Item:         child,
				BOM:          bom,
				Qty:          qty,
				Warehouse:    child.DefaultWarehouse,
				ScheduleDate: parent.ScheduleDate,
				Parent:       idx,
			})
			tree.Nodes[idx].Children = append(tree.Nodes[idx].Children, childIdx)
			if bom != nil {
				work = append(work, childIdx)
			}
		}
	}

	return tree, nil
}

// checkAncestry fails with CyclicBOM when item already appears on the
// path from the arena node at idx up to its root.
func (e *Engine) checkAncestry(tree *ExplodedTree, idx int, item entities.ItemCode) error {
	var path []entities.ItemCode
	for at := idx; at != -1; at = tree.Nodes[at].Parent {
		code := tree.Nodes[at].Item.Code
		path = append(path, code)
		if code == item {
			// Reverse so the path reads root-down.
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return &CyclicBOMError{Item: item, Path: path}
		}
	}
	return nil
}

// combineFrame tracks one item during level assignment. Ancestors is the
// set of items on the path that discovered the frame; bomRef is the BOM
// named by the line that discovered it, empty for default resolution.
type combineFrame struct {
	item      entities.ItemCode
	bomRef    entities.BOMID
	depth     int
	ancestors map[entities.ItemCode]bool
}

// explodeCombined merges occurrences of the same item into a single node.
// Items are assigned levels (longest path from any demand root) so each
// item's total quantity is known before its own BOM is expanded, which
// makes the result independent of demand line order. Line-level BOM
// references resolve as in branch mode; branches naming different BOMs
// for the same merged item fail the explosion.
func (e *Engine) explodeCombined(cat repositories.Catalog, demand []entities.DemandLine, opts Options) (*ExplodedTree, error) {
	items := make(map[entities.ItemCode]*entities.Item)
	boms := make(map[entities.ItemCode]*entities.BOM)
	level := make(map[entities.ItemCode]int)
	totals := make(map[entities.ItemCode]decimal.Decimal)
	roots := make(map[entities.ItemCode]bool)
	schedule := make(map[entities.ItemCode]time.Time)
	warehouse := make(map[entities.ItemCode]string)

	var stack []combineFrame
	for _, line := range demand {
		roots[line.Item] = true
		if line.ScheduleDate.Before(schedule[line.Item]) || schedule[line.Item].IsZero() {
			schedule[line.Item] = line.ScheduleDate
		}
		if warehouse[line.Item] == "" {
			warehouse[line.Item] = line.Warehouse
		}
		stack = append(stack, combineFrame{item: line.Item, depth: 0, ancestors: map[entities.ItemCode]bool{}})
	}

	// Level assignment with per-path ancestor sets. An item reached
	// through a path that already contains it is a cycle.
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.ancestors[frame.item] {
			return nil, &CyclicBOMError{Item: frame.item}
		}

		item, ok := items[frame.item]
		if !ok {
			var err error
			item, err = cat.GetItem(frame.item)
			if err != nil {
				return nil, fmt.Errorf("explode: item %s: %w", frame.item, err)
			}
			items[frame.item] = item
			bom, err := e.resolveBOM(cat, opts, item, frame.bomRef)
			if err != nil {
				return nil, err
			}
			boms[frame.item] = bom
		} else if frame.bomRef != "" {
			// A merged node carries exactly one BOM; a branch naming a
			// different one cannot be honored.
			if bom := boms[frame.item]; bom == nil || bom.ID != frame.bomRef {
				return nil, fmt.Errorf("explode: item %s: BOM reference %s conflicts with the merged node's BOM", frame.item, frame.bomRef)
			}
		}

		prev, seen := level[frame.item]
		revisit := !seen || frame.depth > prev
		if revisit {
			level[frame.item] = frame.depth
		}
		if bom := boms[frame.item]; bom != nil && revisit {
			ancestors := make(map[entities.ItemCode]bool, len(frame.ancestors)+1)
			for k := range frame.ancestors {
				ancestors[k] = true
			}
			ancestors[frame.item] = true
			for _, line := range bom.Lines {
				stack = append(stack, combineFrame{item: line.Item, bomRef: line.BOMID, depth: frame.depth + 1, ancestors: ancestors})
			}
		}
	}

	// Accumulate demand quantities at the roots.
	for _, line := range demand {
		item := items[line.Item]
		qty, err := item.ToStockQty(line.Qty, line.UOM)
		if err != nil {
			return nil, fmt.Errorf("explode: demand item %s: %w", line.Item, err)
		}
		totals[line.Item] = totals[line.Item].Add(qty)
	}

	// Process items level by level: every parent's total is final before
	// its components are scaled, so merged nodes roll up correctly.
	ordered := make([]entities.ItemCode, 0, len(level))
	for code := range level {
		ordered = append(ordered, code)
	}
	// Level ascending, item code as tie-break, so runs on identical
	// input are order-stable.
	sort.Slice(ordered, func(i, j int) bool {
		if level[ordered[i]] != level[ordered[j]] {
			return level[ordered[i]] < level[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})

	for _, code := range ordered {
		bom := boms[code]
		if bom == nil {
			continue
		}
		parent := items[code]
		outputQty, err := parent.ToStockQty(bom.Quantity, bom.UOM)
		if err != nil {
			return nil, fmt.Errorf("explode: BOM %s: %w", bom.ID, err)
		}
		runs := totals[code].Div(outputQty)
		for _, line := range bom.Lines {
			child := items[line.Item]
			qty, err := child.ToStockQty(line.Qty.Mul(runs), line.UOM)
			if err != nil {
				return nil, fmt.Errorf("explode: component %s of %s: %w", line.Item, code, err)
			}
			totals[line.Item] = totals[line.Item].Add(qty)
			if schedule[line.Item].IsZero() {
				schedule[line.Item] = schedule[code]
			}
		}
	}

	// Materialize one arena node per item, wired by BOM lines.
	tree := &ExplodedTree{}
	index := make(map[entities.ItemCode]int, len(ordered))
	for _, code := range ordered {
		item := items[code]
		wh := warehouse[code]
		if wh == "" {
			wh = item.DefaultWarehouse
		}
		index[code] = len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, Node{
			Item:         item,
			BOM:          boms[code],
			Qty:          totals[code],
			Warehouse:    wh,
			ScheduleDate: schedule[code],
			Parent:       -1,
			Root:         roots[code],
		})
		if roots[code] {
			tree.Roots = append(tree.Roots, index[code])
		}
	}
	for _, code := range ordered {
		bom := boms[code]
		if bom == nil {
			continue
		}
		for _, line := range bom.Lines {
			tree.Nodes[index[code]].Children = append(tree.Nodes[index[code]].Children, index[line.Item])
		}
	}

	return tree, nil
}
