package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/domain/services"
	"github.com/ambrosia/prodplan/pkg/infrastructure/repositories/memory"
)

// catalogFile is the YAML shape of a catalog fixture
type catalogFile struct {
	Company    string          `yaml:"company"`
	Warehouses []warehouseSpec `yaml:"warehouses"`
	Suppliers  []supplierSpec  `yaml:"suppliers"`
	Items      []itemSpec      `yaml:"items"`
	BOMs       []bomSpec       `yaml:"boms"`
}

type warehouseSpec struct {
	Name    string `yaml:"name"`
	Parent  string `yaml:"parent"`
	IsGroup bool   `yaml:"is_group"`
}

type supplierSpec struct {
	Name               string   `yaml:"name"`
	ReceivingWarehouse string   `yaml:"receiving_warehouse"`
	SubcontractItems   []string `yaml:"subcontract_items"`
}

type itemSpec struct {
	Code             string             `yaml:"code"`
	Description      string             `yaml:"description"`
	StockUOM         string             `yaml:"stock_uom"`
	IsStockItem      *bool              `yaml:"is_stock_item"`
	IsPurchaseItem   bool               `yaml:"is_purchase_item"`
	IsSubcontracted  bool               `yaml:"is_subcontracted"`
	RequestType      string             `yaml:"request_type"`
	DefaultWarehouse string             `yaml:"default_warehouse"`
	DefaultSupplier  string             `yaml:"default_supplier"`
	Suppliers        []string           `yaml:"suppliers"`
	Conversions      map[string]float64 `yaml:"conversions"`
}

type bomSpec struct {
	ID              string     `yaml:"id"`
	Item            string     `yaml:"item"`
	Quantity        float64    `yaml:"quantity"`
	UOM             string     `yaml:"uom"`
	IsDefault       *bool      `yaml:"is_default"`
	IsSubcontracted bool       `yaml:"is_subcontracted"`
	Lines           []lineSpec `yaml:"lines"`
	Operations      []opSpec   `yaml:"operations"`
}

type lineSpec struct {
	Item string  `yaml:"item"`
	Qty  float64 `yaml:"qty"`
	UOM  string  `yaml:"uom"`
	BOM  string  `yaml:"bom"`
}

type opSpec struct {
	Name        string  `yaml:"name"`
	Workstation string  `yaml:"workstation"`
	Minutes     float64 `yaml:"minutes"`
	BatchSize   int     `yaml:"batch_size"`
}

// LoadCatalog reads a YAML catalog fixture into an in-memory catalog.
// The BOM set is validated (DAG, single defaults) and every leaf
// warehouse must chain up to a root group before the catalog is accepted.
func LoadCatalog(path string) (*memory.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	catalog := memory.NewCatalog()

	for _, spec := range file.Warehouses {
		warehouse, err := entities.NewWarehouse(spec.Name, file.Company, spec.Parent, spec.IsGroup)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		if err := catalog.AddWarehouse(*warehouse); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
	}
	if err := validateWarehouseTree(file.Warehouses); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	for _, spec := range file.Suppliers {
		supplier := entities.Supplier{
			Name:               spec.Name,
			ReceivingWarehouse: spec.ReceivingWarehouse,
		}
		for _, code := range spec.SubcontractItems {
			supplier.SubcontractItems = append(supplier.SubcontractItems, entities.ItemCode(code))
		}
		if err := catalog.AddSupplier(supplier); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
	}

	for _, spec := range file.Items {
		item, err := entities.NewItem(entities.ItemCode(spec.Code), entities.UOM(spec.StockUOM))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		item.Description = spec.Description
		if spec.IsStockItem != nil {
			item.IsStockItem = *spec.IsStockItem
		}
		item.IsPurchaseItem = spec.IsPurchaseItem
		item.IsSubcontracted = spec.IsSubcontracted
		item.DefaultWarehouse = spec.DefaultWarehouse
		item.DefaultSupplier = spec.DefaultSupplier
		for _, s := range spec.Suppliers {
			item.Suppliers = append(item.Suppliers, s)
		}
		switch spec.RequestType {
		case "", "Manufacture":
			item.RequestType = entities.Manufacture
		case "Purchase":
			item.RequestType = entities.Purchase
		default:
			return nil, fmt.Errorf("catalog %s: item %s: unknown request type %q", path, spec.Code, spec.RequestType)
		}
		for uom, factor := range spec.Conversions {
			item.Conversions = append(item.Conversions, entities.UOMConversion{
				UOM:    entities.UOM(uom),
				Factor: decimal.NewFromFloat(factor),
			})
		}
		if err := catalog.AddItem(*item); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
	}

	var boms []*entities.BOM
	for _, spec := range file.BOMs {
		var lines []entities.BOMLine
		for _, line := range spec.Lines {
			lines = append(lines, entities.BOMLine{
				Item:  entities.ItemCode(line.Item),
				Qty:   decimal.NewFromFloat(line.Qty),
				UOM:   entities.UOM(line.UOM),
				BOMID: entities.BOMID(line.BOM),
			})
		}
		bom, err := entities.NewBOM(entities.BOMID(spec.ID), entities.ItemCode(spec.Item),
			decimal.NewFromFloat(spec.Quantity), entities.UOM(spec.UOM), lines)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		bom.IsDefault = spec.IsDefault == nil || *spec.IsDefault
		bom.IsSubcontracted = spec.IsSubcontracted
		for _, op := range spec.Operations {
			bom.Operations = append(bom.Operations, entities.Operation{
				Name:        op.Name,
				Workstation: op.Workstation,
				Minutes:     decimal.NewFromFloat(op.Minutes),
				BatchSize:   op.BatchSize,
			})
		}
		boms = append(boms, bom)
	}

	validation := services.NewBOMValidator().ValidateBOMs(boms)
	if len(validation.Errors) > 0 {
		return nil, fmt.Errorf("catalog %s: %s", path, strings.Join(validation.Errors, "; "))
	}
	for _, bom := range boms {
		if err := catalog.AddBOM(*bom); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
	}

	return catalog, nil
}

// validateWarehouseTree checks every leaf's ancestor chain terminates at
// a root group warehouse
func validateWarehouseTree(specs []warehouseSpec) error {
	byName := make(map[string]warehouseSpec, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec
	}

	for _, spec := range specs {
		if spec.IsGroup {
			continue
		}
		seen := map[string]bool{spec.Name: true}
		at := spec
		for at.Parent != "" {
			parent, ok := byName[at.Parent]
			if !ok {
				return fmt.Errorf("warehouse %s: parent %s does not exist", spec.Name, at.Parent)
			}
			if !parent.IsGroup {
				return fmt.Errorf("warehouse %s: parent %s is not a group warehouse", at.Name, parent.Name)
			}
			if seen[parent.Name] {
				return fmt.Errorf("warehouse %s: ancestor cycle at %s", spec.Name, parent.Name)
			}
			seen[parent.Name] = true
			at = parent
		}
		if !at.IsGroup {
			return fmt.Errorf("warehouse %s: ancestor chain does not terminate at a root group", spec.Name)
		}
	}
	return nil
}

var demandHeader = []string{"source", "source_id", "item", "qty", "uom", "warehouse", "schedule_date"}

// LoadDemand reads demand lines from a CSV file
func LoadDemand(path string) ([]entities.DemandLine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load demand %s: %w", path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read demand CSV %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("demand CSV %s must have a header and at least one data row", path)
	}
	if !headerMatches(records[0], demandHeader) {
		return nil, fmt.Errorf("demand CSV header mismatch. Expected: %v, Got: %v", demandHeader, records[0])
	}

	var lines []entities.DemandLine
	for i, record := range records[1:] {
		if len(record) != len(demandHeader) {
			return nil, fmt.Errorf("demand CSV row %d: expected %d columns, got %d", i+2, len(demandHeader), len(record))
		}
		line, err := parseDemandLine(record)
		if err != nil {
			return nil, fmt.Errorf("demand CSV row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func parseDemandLine(record []string) (entities.DemandLine, error) {
	var line entities.DemandLine

	switch strings.TrimSpace(record[0]) {
	case "Sales Order":
		line.Source = entities.SalesOrder
	case "Material Request":
		line.Source = entities.MaterialRequestSource
	default:
		return line, fmt.Errorf("unknown demand source %q", record[0])
	}
	line.SourceID = strings.TrimSpace(record[1])

	line.Item = entities.ItemCode(strings.TrimSpace(record[2]))
	if line.Item == "" {
		return line, fmt.Errorf("item cannot be empty")
	}

	qty, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return line, fmt.Errorf("invalid qty %q: %w", record[3], err)
	}
	if !qty.IsPositive() {
		return line, fmt.Errorf("qty must be positive, got %s", qty)
	}
	line.Qty = qty

	line.UOM = entities.UOM(strings.TrimSpace(record[4]))
	line.Warehouse = strings.TrimSpace(record[5])

	date, err := time.Parse("2006-01-02", strings.TrimSpace(record[6]))
	if err != nil {
		return line, fmt.Errorf("invalid schedule date %q: %w", record[6], err)
	}
	line.ScheduleDate = date

	return line, nil
}

func headerMatches(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if strings.TrimSpace(strings.ToLower(got[i])) != want[i] {
			return false
		}
	}
	return true
}
