package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/planner"
)

// WriteWorkbook exports a plan and its documents (docs may be nil for a
// draft plan) as an Excel workbook with one sheet per section
func WriteWorkbook(path string, plan *entities.ProductionPlan, docs *planner.Documents) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, "Production Items", [][]interface{}{
		{"Item", "Qty", "UOM", "BOM", "Warehouse", "Schedule Date"},
	}, productionRows(plan)); err != nil {
		return err
	}
	if err := writeSheet(f, "Sub Assemblies", [][]interface{}{
		{"Item", "Qty", "UOM", "BOM", "Type", "Supplier", "Receiving Warehouse"},
	}, subAssemblyRows(plan)); err != nil {
		return err
	}
	if err := writeSheet(f, "Raw Materials", [][]interface{}{
		{"Item", "Qty", "UOM", "Warehouse"},
	}, rawMaterialRows(plan)); err != nil {
		return err
	}
	if docs != nil {
		if err := writeSheet(f, "Work Orders", [][]interface{}{
			{"ID", "Item", "Qty", "WIP Warehouse", "Job Cards", "Status"},
		}, workOrderRows(docs)); err != nil {
			return err
		}
	}

	// The default sheet is replaced by the first section
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, header [][]interface{}, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("export sheet %s: %w", name, err)
	}
	all := append(header, rows...)
	for r, row := range all {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("export sheet %s: %w", name, err)
			}
			if err := f.SetCellValue(name, cell, value); err != nil {
				return fmt.Errorf("export sheet %s: %w", name, err)
			}
		}
	}
	return nil
}

func productionRows(plan *entities.ProductionPlan) [][]interface{} {
	var rows [][]interface{}
	for _, item := range plan.Items {
		rows = append(rows, []interface{}{
			string(item.Item), item.Qty.String(), string(item.UOM), string(item.BOMID),
			item.Warehouse, item.ScheduleDate.Format("2006-01-02"),
		})
	}
	return rows
}

func subAssemblyRows(plan *entities.ProductionPlan) [][]interface{} {
	var rows [][]interface{}
	for _, row := range plan.SubAssemblies {
		supplier, receiving := "", ""
		if sc, ok := row.Sourcing.(entities.SubcontractSourcing); ok {
			supplier, receiving = sc.Supplier, sc.ReceivingWarehouse
		}
		rows = append(rows, []interface{}{
			string(row.Item), row.Qty.String(), string(row.UOM), string(row.BOMID),
			row.Sourcing.Type().String(), supplier, receiving,
		})
	}
	return rows
}

func rawMaterialRows(plan *entities.ProductionPlan) [][]interface{} {
	var rows [][]interface{}
	for _, row := range plan.RawMaterials {
		rows = append(rows, []interface{}{
			string(row.Item), row.Qty.String(), string(row.UOM), row.Warehouse,
		})
	}
	return rows
}

func workOrderRows(docs *planner.Documents) [][]interface{} {
	var rows [][]interface{}
	for _, wo := range docs.WorkOrders {
		rows = append(rows, []interface{}{
			wo.ID, string(wo.Item), wo.Qty.String(), wo.WIPWarehouse, len(wo.JobCards), wo.Status.String(),
		})
	}
	return rows
}
