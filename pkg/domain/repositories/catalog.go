package repositories

import "github.com/ambrosia/prodplan/pkg/domain/entities"

// ItemRepository provides access to item master data
type ItemRepository interface {
	GetItem(code entities.ItemCode) (*entities.Item, error)
	GetAllItems() ([]*entities.Item, error)
}

// BOMRepository provides access to Bill of Materials data
type BOMRepository interface {
	GetBOM(id entities.BOMID) (*entities.BOM, error)

	// GetActiveBOM returns the default active BOM for an item, or
	// ErrNotFound when the item has none.
	GetActiveBOM(item entities.ItemCode) (*entities.BOM, error)

	GetAllBOMs() ([]*entities.BOM, error)
}

// WarehouseRepository provides access to the warehouse tree
type WarehouseRepository interface {
	GetWarehouse(name string) (*entities.Warehouse, error)

	// GetParent returns the parent warehouse, or nil for a root group.
	GetParent(name string) (*entities.Warehouse, error)

	IsGroup(name string) (bool, error)
}

// SupplierRepository provides access to supplier subcontracting data
type SupplierRepository interface {
	// CanSubcontract reports whether the supplier can receive
	// subcontracted work for the item.
	CanSubcontract(supplier string, item entities.ItemCode) (bool, error)

	// ReceivingWarehouse returns the warehouse raw materials are
	// transferred to for subcontracted work at this supplier.
	ReceivingWarehouse(supplier string) (string, error)
}

// Catalog aggregates the read-only reference data the planner consumes
type Catalog interface {
	ItemRepository
	BOMRepository
	WarehouseRepository
	SupplierRepository
}

// SnapshotCatalog is a catalog that can produce immutable point-in-time
// snapshots, isolating in-flight explosions from later catalog mutation
type SnapshotCatalog interface {
	Catalog
	Snapshot() Catalog
}
