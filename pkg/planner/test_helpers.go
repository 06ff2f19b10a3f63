package planner

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/infrastructure/repositories/memory"
)

// Test fixture replicating a small bakery: pies built from a shared
// subcontractable crust sub-assembly plus purchased ingredients.

const (
	testCompany         = "Ambrosia Pie Company"
	testRootWarehouse   = "All Warehouses - APC"
	testStoreroom       = "Storeroom - APC"
	testBakedGoods      = "Baked Goods - APC"
	testDisplay         = "Refrigerated Display - APC"
	testKitchen         = "Kitchen - APC"
	testSupplierWH      = "Credible Contract Baking - APC"
	testBakerySupplier  = "Credible Contract Baking"
	testScheduleDateStr = "2024-01-01"
)

func testScheduleDate() time.Time {
	date, _ := time.Parse("2006-01-02", testScheduleDateStr)
	return date
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func mustAddItem(catalog *memory.Catalog, item entities.Item) {
	if err := catalog.AddItem(item); err != nil {
		panic(err)
	}
}

func mustAddBOM(catalog *memory.Catalog, bom entities.BOM) {
	if err := catalog.AddBOM(bom); err != nil {
		panic(err)
	}
}

// buildPieCatalog creates the bakery catalog: two pies, a crust
// sub-assembly with its own BOM, and purchased raw ingredients.
func buildPieCatalog() *memory.Catalog {
	catalog := memory.NewCatalog()

	warehouses := []entities.Warehouse{
		{Name: testRootWarehouse, Company: testCompany, IsGroup: true},
		{Name: testStoreroom, Company: testCompany, Parent: testRootWarehouse},
		{Name: testBakedGoods, Company: testCompany, Parent: testRootWarehouse, IsGroup: true},
		{Name: testDisplay, Company: testCompany, Parent: testBakedGoods},
		{Name: testKitchen, Company: testCompany, Parent: testRootWarehouse},
		{Name: testSupplierWH, Company: testCompany, Parent: testRootWarehouse},
	}
	for _, wh := range warehouses {
		if err := catalog.AddWarehouse(wh); err != nil {
			panic(err)
		}
	}

	if err := catalog.AddSupplier(entities.Supplier{
		Name:               testBakerySupplier,
		ReceivingWarehouse: testSupplierWH,
		SubcontractItems:   []entities.ItemCode{"Pie Crust"},
	}); err != nil {
		panic(err)
	}

	mustAddItem(catalog, entities.Item{
		Code: "Ambrosia Pie", StockUOM: "Nos", IsStockItem: true,
		RequestType: entities.Manufacture, DefaultWarehouse: testDisplay,
		Conversions: []entities.UOMConversion{{UOM: "Box", Factor: dec("4")}},
	})
	mustAddItem(catalog, entities.Item{
		Code: "Double Plum Pie", StockUOM: "Nos", IsStockItem: true,
		RequestType: entities.Manufacture, DefaultWarehouse: testDisplay,
	})
	mustAddItem(catalog, entities.Item{
		Code: "Pie Crust", StockUOM: "Nos", IsStockItem: true,
		IsPurchaseItem: true, IsSubcontracted: true,
		RequestType: entities.Purchase, DefaultWarehouse: testStoreroom,
		DefaultSupplier: testBakerySupplier, Suppliers: []string{testBakerySupplier},
	})
	for _, code := range []entities.ItemCode{"Ambrosia Filling", "Plum Filling"} {
		mustAddItem(catalog, entities.Item{
			Code: code, StockUOM: "Kg", IsStockItem: true, IsPurchaseItem: true,
			RequestType: entities.Purchase, DefaultWarehouse: testStoreroom,
		})
	}
	for _, code := range []entities.ItemCode{"Flour", "Butter"} {
		mustAddItem(catalog, entities.Item{
			Code: code, StockUOM: "Kg", IsStockItem: true, IsPurchaseItem: true,
			RequestType: entities.Purchase, DefaultWarehouse: testStoreroom,
		})
	}

	mustAddBOM(catalog, entities.BOM{
		ID: "BOM-Pie Crust-001", Item: "Pie Crust", Quantity: dec("1"), UOM: "Nos",
		IsDefault: true,
		Lines: []entities.BOMLine{
			{Item: "Flour", Qty: dec("0.25"), UOM: "Kg"},
			{Item: "Butter", Qty: dec("0.1"), UOM: "Kg"},
		},
		Operations: []entities.Operation{
			{Name: "Roll Crust", Workstation: "Rolling Station", Minutes: dec("10"), BatchSize: 10},
		},
	})
	mustAddBOM(catalog, entities.BOM{
		ID: "BOM-Ambrosia Pie-001", Item: "Ambrosia Pie", Quantity: dec("1"), UOM: "Nos",
		IsDefault: true,
		Lines: []entities.BOMLine{
			{Item: "Pie Crust", Qty: dec("1"), UOM: "Nos", BOMID: "BOM-Pie Crust-001"},
			{Item: "Ambrosia Filling", Qty: dec("0.5"), UOM: "Kg"},
		},
		Operations: []entities.Operation{
			{Name: "Fill Pie", Workstation: "Assembly Bench", Minutes: dec("5"), BatchSize: 10},
			{Name: "Bake", Workstation: "Oven", Minutes: dec("45"), BatchSize: 20},
		},
	})
	mustAddBOM(catalog, entities.BOM{
		ID: "BOM-Double Plum Pie-001", Item: "Double Plum Pie", Quantity: dec("1"), UOM: "Nos",
		IsDefault: true,
		Lines: []entities.BOMLine{
			{Item: "Pie Crust", Qty: dec("1"), UOM: "Nos", BOMID: "BOM-Pie Crust-001"},
			{Item: "Plum Filling", Qty: dec("0.75"), UOM: "Kg"},
		},
		Operations: []entities.Operation{
			{Name: "Fill Pie", Workstation: "Assembly Bench", Minutes: dec("5"), BatchSize: 10},
			{Name: "Bake", Workstation: "Oven", Minutes: dec("45"), BatchSize: 20},
		},
	})

	return catalog
}

// pieDemand is a single sales order line for qty pies
func pieDemand(item entities.ItemCode, qty string) entities.DemandLine {
	return entities.DemandLine{
		Source:       entities.SalesOrder,
		SourceID:     "SO-0001",
		Item:         item,
		Qty:          dec(qty),
		UOM:          "",
		Warehouse:    testDisplay,
		ScheduleDate: testScheduleDate(),
	}
}

// findRaw returns the aggregated row for an item at a warehouse
func findRaw(rows []entities.RawMaterialRequirement, item entities.ItemCode, warehouse string) *entities.RawMaterialRequirement {
	for i := range rows {
		if rows[i].Item == item && rows[i].Warehouse == warehouse {
			return &rows[i]
		}
	}
	return nil
}
