package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/planner"
)

// RenderPlan writes a human-readable summary of a production plan
func RenderPlan(w io.Writer, plan *entities.ProductionPlan) {
	fmt.Fprintf(w, "Production Plan %s (%s)\n", plan.ID, plan.Status)
	fmt.Fprintf(w, "Posting date: %s\n\n", plan.PostingDate.Format("2006-01-02"))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "PRODUCTION ITEMS")
	fmt.Fprintln(tw, "Item\tQty\tUOM\tBOM\tWarehouse")
	for _, item := range plan.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", item.Item, item.Qty, item.UOM, item.BOMID, item.Warehouse)
	}

	fmt.Fprintln(tw, "\nSUB-ASSEMBLIES")
	fmt.Fprintln(tw, "Item\tQty\tUOM\tBOM\tType\tSupplier")
	for _, row := range plan.SubAssemblies {
		supplier := ""
		if sc, ok := row.Sourcing.(entities.SubcontractSourcing); ok {
			supplier = sc.Supplier
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", row.Item, row.Qty, row.UOM, row.BOMID, row.Sourcing.Type(), supplier)
	}

	fmt.Fprintln(tw, "\nRAW MATERIALS")
	fmt.Fprintln(tw, "Item\tQty\tUOM\tWarehouse")
	for _, row := range plan.RawMaterials {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Item, row.Qty, row.UOM, row.Warehouse)
	}

	tw.Flush()
}

// RenderDocuments writes a human-readable summary of emitted documents
func RenderDocuments(w io.Writer, docs *planner.Documents) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "MATERIAL REQUEST %s\n", docs.MaterialRequest.ID)
	fmt.Fprintln(tw, "Type\tItem\tQty\tUOM\tWarehouse\tSupplier")
	for _, line := range docs.MaterialRequest.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", line.Type, line.Item, line.Qty, line.UOM, line.Warehouse, line.Supplier)
	}

	fmt.Fprintln(tw, "\nWORK ORDERS")
	fmt.Fprintln(tw, "ID\tItem\tQty\tWIP Warehouse\tJob Cards\tStatus")
	for _, wo := range docs.WorkOrders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", wo.ID, wo.Item, wo.Qty, wo.WIPWarehouse, len(wo.JobCards), wo.Status)
	}

	tw.Flush()
}
