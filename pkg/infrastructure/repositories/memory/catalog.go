package memory

import (
	"fmt"
	"sync"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/domain/repositories"
)

// Catalog provides an in-memory catalog implementation with slice+index
// storage. Reads take a shared lock; mutation takes an exclusive lock and
// is invisible to snapshots taken earlier.
type Catalog struct {
	mu             sync.RWMutex
	items          []entities.Item
	itemIndex      map[entities.ItemCode]int
	boms           []entities.BOM
	bomIndex       map[entities.BOMID]int
	defaultBOM     map[entities.ItemCode]entities.BOMID
	warehouses     []entities.Warehouse
	warehouseIndex map[string]int
	suppliers      []entities.Supplier
	supplierIndex  map[string]int
}

// NewCatalog creates an empty in-memory catalog
func NewCatalog() *Catalog {
	return &Catalog{
		itemIndex:      make(map[entities.ItemCode]int),
		bomIndex:       make(map[entities.BOMID]int),
		defaultBOM:     make(map[entities.ItemCode]entities.BOMID),
		warehouseIndex: make(map[string]int),
		supplierIndex:  make(map[string]int),
	}
}

// Verify interface compliance
var _ repositories.SnapshotCatalog = (*Catalog)(nil)

// AddItem adds an item; the code must be unused
func (c *Catalog) AddItem(item entities.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.itemIndex[item.Code]; exists {
		return fmt.Errorf("item %s already exists", item.Code)
	}
	c.itemIndex[item.Code] = len(c.items)
	c.items = append(c.items, item)
	return nil
}

// AddBOM adds a BOM. At most one default BOM is accepted per item.
func (c *Catalog) AddBOM(bom entities.BOM) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.bomIndex[bom.ID]; exists {
		return fmt.Errorf("BOM %s already exists", bom.ID)
	}
	if bom.IsDefault {
		if existing, ok := c.defaultBOM[bom.Item]; ok {
			return fmt.Errorf("item %s already has default BOM %s", bom.Item, existing)
		}
		c.defaultBOM[bom.Item] = bom.ID
	}
	c.bomIndex[bom.ID] = len(c.boms)
	c.boms = append(c.boms, bom)
	return nil
}

// AddWarehouse adds a warehouse node
func (c *Catalog) AddWarehouse(warehouse entities.Warehouse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.warehouseIndex[warehouse.Name]; exists {
		return fmt.Errorf("warehouse %s already exists", warehouse.Name)
	}
	c.warehouseIndex[warehouse.Name] = len(c.warehouses)
	c.warehouses = append(c.warehouses, warehouse)
	return nil
}

// AddSupplier adds a supplier record
func (c *Catalog) AddSupplier(supplier entities.Supplier) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.supplierIndex[supplier.Name]; exists {
		return fmt.Errorf("supplier %s already exists", supplier.Name)
	}
	c.supplierIndex[supplier.Name] = len(c.suppliers)
	c.suppliers = append(c.suppliers, supplier)
	return nil
}

// SetDefaultBOM atomically moves an item's default flag to another of its
// BOMs. Snapshots taken before the call keep the previous default.
func (c *Catalog) SetDefaultBOM(item entities.ItemCode, id entities.BOMID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.bomIndex[id]
	if !ok {
		return fmt.Errorf("BOM %s: %w", id, repositories.ErrNotFound)
	}
	if c.boms[idx].Item != item {
		return fmt.Errorf("BOM %s does not produce item %s", id, item)
	}

	if prev, ok := c.defaultBOM[item]; ok {
		c.boms[c.bomIndex[prev]].IsDefault = false
	}
	c.boms[idx].IsDefault = true
	c.defaultBOM[item] = id
	return nil
}

// GetItem returns item master data for a code
func (c *Catalog) GetItem(code entities.ItemCode) (*entities.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.itemIndex[code]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", code, repositories.ErrNotFound)
	}
	item := c.items[idx]
	return &item, nil
}

// GetAllItems returns all items
func (c *Catalog) GetAllItems() ([]*entities.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]*entities.Item, 0, len(c.items))
	for i := range c.items {
		item := c.items[i]
		items = append(items, &item)
	}
	return items, nil
}

// GetBOM returns a BOM by ID
func (c *Catalog) GetBOM(id entities.BOMID) (*entities.BOM, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.bomIndex[id]
	if !ok {
		return nil, fmt.Errorf("BOM %s: %w", id, repositories.ErrNotFound)
	}
	bom := c.boms[idx]
	return &bom, nil
}

// GetActiveBOM returns the default active BOM for an item
func (c *Catalog) GetActiveBOM(item entities.ItemCode) (*entities.BOM, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.defaultBOM[item]
	if !ok {
		return nil, fmt.Errorf("active BOM for item %s: %w", item, repositories.ErrNotFound)
	}
	bom := c.boms[c.bomIndex[id]]
	return &bom, nil
}

// GetAllBOMs returns all BOMs
func (c *Catalog) GetAllBOMs() ([]*entities.BOM, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	boms := make([]*entities.BOM, 0, len(c.boms))
	for i := range c.boms {
		bom := c.boms[i]
		boms = append(boms, &bom)
	}
	return boms, nil
}

// GetWarehouse returns a warehouse by name
func (c *Catalog) GetWarehouse(name string) (*entities.Warehouse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.warehouseIndex[name]
	if !ok {
		return nil, fmt.Errorf("warehouse %s: %w", name, repositories.ErrNotFound)
	}
	warehouse := c.warehouses[idx]
	return &warehouse, nil
}

// GetParent returns a warehouse's parent, or nil for a root group
func (c *Catalog) GetParent(name string) (*entities.Warehouse, error) {
	warehouse, err := c.GetWarehouse(name)
	if err != nil {
		return nil, err
	}
	if warehouse.Parent == "" {
		return nil, nil
	}
	return c.GetWarehouse(warehouse.Parent)
}

// IsGroup reports whether a warehouse is a group node
func (c *Catalog) IsGroup(name string) (bool, error) {
	warehouse, err := c.GetWarehouse(name)
	if err != nil {
		return false, err
	}
	return warehouse.IsGroup, nil
}

// CanSubcontract reports whether a supplier can receive subcontracted
// work for an item: the item must be subcontractable and either side
// must list the other.
func (c *Catalog) CanSubcontract(supplier string, item entities.ItemCode) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sIdx, ok := c.supplierIndex[supplier]
	if !ok {
		return false, nil
	}
	iIdx, ok := c.itemIndex[item]
	if !ok {
		return false, fmt.Errorf("item %s: %w", item, repositories.ErrNotFound)
	}
	it := c.items[iIdx]
	if !it.IsSubcontracted {
		return false, nil
	}
	return c.suppliers[sIdx].Subcontracts(item) || it.SuppliedBy(supplier), nil
}

// ReceivingWarehouse returns the supplier's subcontract receiving warehouse
func (c *Catalog) ReceivingWarehouse(supplier string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.supplierIndex[supplier]
	if !ok {
		return "", fmt.Errorf("supplier %s: %w", supplier, repositories.ErrNotFound)
	}
	return c.suppliers[idx].ReceivingWarehouse, nil
}

// Snapshot returns an immutable copy of the catalog. In-flight planning
// over the snapshot never observes later mutation.
func (c *Catalog) Snapshot() repositories.Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := NewCatalog()
	snap.items = append([]entities.Item(nil), c.items...)
	snap.boms = append([]entities.BOM(nil), c.boms...)
	snap.warehouses = append([]entities.Warehouse(nil), c.warehouses...)
	snap.suppliers = append([]entities.Supplier(nil), c.suppliers...)
	for k, v := range c.itemIndex {
		snap.itemIndex[k] = v
	}
	for k, v := range c.bomIndex {
		snap.bomIndex[k] = v
	}
	for k, v := range c.defaultBOM {
		snap.defaultBOM[k] = v
	}
	for k, v := range c.warehouseIndex {
		snap.warehouseIndex[k] = v
	}
	for k, v := range c.supplierIndex {
		snap.supplierIndex[k] = v
	}
	return snap
}
