package planner

import (
	"errors"
	"testing"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/domain/repositories"
)

func resolveForTest(t *testing.T, catalog repositories.Catalog, demand []entities.DemandLine, opts Options) ([]entities.SubAssemblyRequirement, error) {
	t.Helper()
	tree, err := NewEngine().Explode(catalog, demand, opts)
	if err != nil {
		t.Fatalf("Explode() error = %v", err)
	}
	return NewResolver().Resolve(catalog, tree, opts)
}

func TestResolveDefaultsToInHouse(t *testing.T) {
	rows, err := resolveForTest(t, buildPieCatalog(), []entities.DemandLine{pieDemand("Ambrosia Pie", "40")}, Options{WIPWarehouse: testKitchen})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1 (the crust)", len(rows))
	}

	row := rows[0]
	if row.Item != "Pie Crust" || !row.Qty.Equal(dec("40")) {
		t.Errorf("row = %s qty %s, want Pie Crust qty 40", row.Item, row.Qty)
	}
	inHouse, ok := row.Sourcing.(entities.InHouseSourcing)
	if !ok {
		t.Fatalf("sourcing = %T, want InHouseSourcing", row.Sourcing)
	}
	if inHouse.WIPWarehouse != testKitchen {
		t.Errorf("WIP warehouse = %s, want %s", inHouse.WIPWarehouse, testKitchen)
	}
	if len(inHouse.Operations) != 1 || inHouse.Operations[0].Name != "Roll Crust" {
		t.Errorf("operations = %v, want the crust BOM's Roll Crust", inHouse.Operations)
	}
}

func TestResolveSubcontractedBOMDefaultsToSupplier(t *testing.T) {
	catalog := buildPieCatalog()
	// A tart whose crust line carries no explicit BOM reference, plus a
	// subcontract crust BOM selected by override.
	mustAddItem(catalog, entities.Item{
		Code: "Plum Tart", StockUOM: "Nos", IsStockItem: true,
		RequestType: entities.Manufacture, DefaultWarehouse: testDisplay,
	})
	mustAddBOM(catalog, entities.BOM{
		ID: "BOM-Plum Tart-001", Item: "Plum Tart", Quantity: dec("1"), UOM: "Nos",
		IsDefault: true,
		Lines: []entities.BOMLine{
			{Item: "Pie Crust", Qty: dec("1"), UOM: "Nos"},
			{Item: "Plum Filling", Qty: dec("0.25"), UOM: "Kg"},
		},
	})
	mustAddBOM(catalog, entities.BOM{
		ID: "BOM-Pie Crust-SUB", Item: "Pie Crust", Quantity: dec("1"), UOM: "Nos",
		IsSubcontracted: true,
		Lines: []entities.BOMLine{
			{Item: "Flour", Qty: dec("0.25"), UOM: "Kg"},
			{Item: "Butter", Qty: dec("0.1"), UOM: "Kg"},
		},
	})

	opts := Options{BOMOverrides: map[entities.ItemCode]entities.BOMID{"Pie Crust": "BOM-Pie Crust-SUB"}}
	rows, err := resolveForTest(t, catalog, []entities.DemandLine{pieDemand("Plum Tart", "40")}, opts)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	sc, ok := rows[0].Sourcing.(entities.SubcontractSourcing)
	if !ok {
		t.Fatalf("sourcing = %T, want SubcontractSourcing", rows[0].Sourcing)
	}
	if sc.Supplier != testBakerySupplier {
		t.Errorf("supplier = %s, want item default %s", sc.Supplier, testBakerySupplier)
	}
	if sc.ReceivingWarehouse != testSupplierWH {
		t.Errorf("receiving warehouse = %s, want %s", sc.ReceivingWarehouse, testSupplierWH)
	}
}

func TestResolveSubcontractOverride(t *testing.T) {
	opts := Options{
		SubcontractOverrides: map[entities.ItemCode]string{"Pie Crust": testBakerySupplier},
	}
	rows, err := resolveForTest(t, buildPieCatalog(), []entities.DemandLine{pieDemand("Ambrosia Pie", "40")}, opts)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	sc, ok := rows[0].Sourcing.(entities.SubcontractSourcing)
	if !ok {
		t.Fatalf("sourcing = %T, want SubcontractSourcing after override", rows[0].Sourcing)
	}
	if sc.Supplier != testBakerySupplier {
		t.Errorf("supplier = %s, want %s", sc.Supplier, testBakerySupplier)
	}
}

func TestResolveRejectsIncapableSupplier(t *testing.T) {
	catalog := buildPieCatalog()
	if err := catalog.AddSupplier(entities.Supplier{Name: "Corner Shop", ReceivingWarehouse: testStoreroom}); err != nil {
		t.Fatalf("AddSupplier() error = %v", err)
	}

	opts := Options{SubcontractOverrides: map[entities.ItemCode]string{"Pie Crust": "Corner Shop"}}
	_, err := resolveForTest(t, catalog, []entities.DemandLine{pieDemand("Ambrosia Pie", "40")}, opts)
	if !errors.Is(err, ErrInvalidSubcontractAssignment) {
		t.Fatalf("Resolve() error = %v, want ErrInvalidSubcontractAssignment", err)
	}
	var isa *InvalidSubcontractAssignmentError
	if !errors.As(err, &isa) || isa.Supplier != "Corner Shop" {
		t.Errorf("error = %v, want InvalidSubcontractAssignmentError naming Corner Shop", err)
	}
}

func TestResolveRejectsUnknownSupplier(t *testing.T) {
	opts := Options{SubcontractOverrides: map[entities.ItemCode]string{"Pie Crust": "Nobody"}}
	_, err := resolveForTest(t, buildPieCatalog(), []entities.DemandLine{pieDemand("Ambrosia Pie", "40")}, opts)
	if !errors.Is(err, ErrInvalidSubcontractAssignment) {
		t.Fatalf("Resolve() error = %v, want ErrInvalidSubcontractAssignment", err)
	}
}

func TestResolveSplitSourcing(t *testing.T) {
	// Mirror a split crust: most subcontracted, a remainder made in house.
	opts := Options{
		WIPWarehouse:         testKitchen,
		SubcontractOverrides: map[entities.ItemCode]string{"Pie Crust": testBakerySupplier},
		Splits: []SourcingSplit{
			{Item: "Pie Crust", Qty: dec("10"), Type: entities.InHouse},
		},
	}
	rows, err := resolveForTest(t, buildPieCatalog(), []entities.DemandLine{pieDemand("Ambrosia Pie", "40")}, opts)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (subcontract + in-house split)", len(rows))
	}

	var inHouse, subcontract *entities.SubAssemblyRequirement
	for i := range rows {
		switch rows[i].Sourcing.Type() {
		case entities.InHouse:
			inHouse = &rows[i]
		case entities.Subcontract:
			subcontract = &rows[i]
		}
	}
	if subcontract == nil || !subcontract.Qty.Equal(dec("40")) {
		t.Errorf("subcontract row = %+v, want qty 40", subcontract)
	}
	if inHouse == nil || !inHouse.Qty.Equal(dec("10")) {
		t.Errorf("in-house split row = %+v, want qty 10", inHouse)
	}
	if inHouse != nil && inHouse.BOMID != "BOM-Pie Crust-001" {
		t.Errorf("split BOM = %s, want the crust node's BOM", inHouse.BOMID)
	}
}

func TestResolveSplitRequiresValidSupplier(t *testing.T) {
	opts := Options{
		Splits: []SourcingSplit{
			{Item: "Pie Crust", Qty: dec("5"), Type: entities.Subcontract, Supplier: "Nobody"},
		},
	}
	_, err := resolveForTest(t, buildPieCatalog(), []entities.DemandLine{pieDemand("Ambrosia Pie", "40")}, opts)
	if !errors.Is(err, ErrInvalidSubcontractAssignment) {
		t.Fatalf("Resolve() error = %v, want ErrInvalidSubcontractAssignment", err)
	}
}
