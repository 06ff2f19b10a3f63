package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
)

func bomFor(id entities.BOMID, item entities.ItemCode, isDefault bool, components ...entities.ItemCode) *entities.BOM {
	bom := &entities.BOM{
		ID:        id,
		Item:      item,
		Quantity:  decimal.NewFromInt(1),
		UOM:       "Nos",
		IsDefault: isDefault,
	}
	for _, c := range components {
		bom.Lines = append(bom.Lines, entities.BOMLine{Item: c, Qty: decimal.NewFromInt(1), UOM: "Nos"})
	}
	return bom
}

func TestValidateBOMsCleanGraph(t *testing.T) {
	boms := []*entities.BOM{
		bomFor("BOM-Pie-001", "Pie", true, "Crust", "Filling"),
		bomFor("BOM-Crust-001", "Crust", true, "Flour", "Butter"),
	}

	result := NewBOMValidator().ValidateBOMs(boms)
	if result.HasCycles {
		t.Errorf("HasCycles = true for an acyclic graph, cycles %v", result.CyclePaths)
	}
	if len(result.DuplicateDefaults) != 0 {
		t.Errorf("DuplicateDefaults = %v, want none", result.DuplicateDefaults)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want none", result.Errors)
	}
}

func TestValidateBOMsDetectsCycle(t *testing.T) {
	boms := []*entities.BOM{
		bomFor("BOM-A-001", "A", true, "B"),
		bomFor("BOM-B-001", "B", true, "C"),
		bomFor("BOM-C-001", "C", true, "A"),
	}

	result := NewBOMValidator().ValidateBOMs(boms)
	if !result.HasCycles {
		t.Fatal("HasCycles = false, want a detected A->B->C->A cycle")
	}
	if len(result.CyclePaths) == 0 {
		t.Fatal("CyclePaths empty despite HasCycles")
	}
	cycle := result.CyclePaths[0]
	if len(cycle) < 2 || cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("cycle path %v should close on its starting item", cycle)
	}
	if len(result.Errors) == 0 {
		t.Error("Errors should describe the cycle")
	}
}

func TestValidateBOMsDetectsDuplicateDefaults(t *testing.T) {
	boms := []*entities.BOM{
		bomFor("BOM-Crust-001", "Crust", true, "Flour"),
		bomFor("BOM-Crust-002", "Crust", true, "Flour", "Butter"),
	}

	result := NewBOMValidator().ValidateBOMs(boms)
	if result.HasCycles {
		t.Error("HasCycles = true, want false")
	}
	if len(result.DuplicateDefaults) != 1 || result.DuplicateDefaults[0] != "Crust" {
		t.Errorf("DuplicateDefaults = %v, want [Crust]", result.DuplicateDefaults)
	}
}

func TestValidateBOMsSharedComponentIsNotACycle(t *testing.T) {
	// Two assemblies consuming the same component form a diamond, not a
	// cycle.
	boms := []*entities.BOM{
		bomFor("BOM-Pie-001", "Pie", true, "Crust"),
		bomFor("BOM-Tart-001", "Tart", true, "Crust"),
		bomFor("BOM-Crust-001", "Crust", true, "Flour"),
	}

	result := NewBOMValidator().ValidateBOMs(boms)
	if result.HasCycles {
		t.Errorf("HasCycles = true for a diamond graph, cycles %v", result.CyclePaths)
	}
}
