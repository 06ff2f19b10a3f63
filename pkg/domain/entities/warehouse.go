package entities

import "fmt"

// Warehouse represents a storage location in the warehouse tree. Group
// warehouses aggregate their children and never hold stock themselves.
type Warehouse struct {
	Name    string
	Company string
	IsGroup bool
	Parent  string // empty for the root group warehouse
}

// NewWarehouse creates a validated Warehouse
func NewWarehouse(name, company, parent string, isGroup bool) (*Warehouse, error) {
	if name == "" {
		return nil, fmt.Errorf("warehouse name cannot be empty")
	}
	if !isGroup && parent == "" {
		return nil, fmt.Errorf("leaf warehouse %s must have a parent group", name)
	}

	return &Warehouse{
		Name:    name,
		Company: company,
		IsGroup: isGroup,
		Parent:  parent,
	}, nil
}
