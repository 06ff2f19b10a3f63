package sqlite

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/planner"
)

func openTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocuments(planID string) (*entities.ProductionPlan, *planner.Documents) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := &entities.ProductionPlan{
		ID:           planID,
		PostingDate:  date,
		ForWarehouse: "Storeroom - APC",
		WIPWarehouse: "Kitchen - APC",
		Status:       entities.PlanSubmitted,
	}
	docs := &planner.Documents{
		MaterialRequest: &entities.MaterialRequest{
			ID:           planID + "-MR",
			PlanID:       planID,
			ScheduleDate: date,
			Lines: []entities.MaterialRequestLine{
				{
					Type: entities.PurchaseLine, Item: "Flour",
					Qty: decimal.RequireFromString("10"), UOM: "Kg",
					Warehouse: "Storeroom - APC", ScheduleDate: date,
				},
				{
					Type: entities.TransferLine, Item: "Butter",
					Qty: decimal.RequireFromString("4"), UOM: "Kg",
					Warehouse: "Credible Contract Baking - APC",
					Supplier:  "Credible Contract Baking", ScheduleDate: date,
				},
			},
		},
		WorkOrders: []*entities.WorkOrder{
			{
				ID: planID + "-WO-1", PlanID: planID, Item: "Ambrosia Pie",
				Qty: decimal.RequireFromString("40"), UOM: "Nos", BOMID: "BOM-001",
				WIPWarehouse: "Kitchen - APC", Status: entities.WorkOrderDraft,
				JobCards: []entities.JobCard{
					{
						ID: planID + "-JC-1", WorkOrderID: planID + "-WO-1",
						Operation: entities.Operation{Name: "Bake", Workstation: "Oven"},
						Status:    entities.JobCardDraft,
					},
				},
			},
		},
	}
	return plan, docs
}

func TestSavePlanDocumentsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	plan, docs := testDocuments("PLAN-1")

	require.NoError(t, store.SavePlanDocuments(plan, docs))

	status, err := store.PlanStatus("PLAN-1")
	require.NoError(t, err)
	assert.Equal(t, "Submitted", status)

	count, err := store.WorkOrderCount("PLAN-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSavePlanDocumentsIsTransactional(t *testing.T) {
	store := openTestStore(t)
	plan, docs := testDocuments("PLAN-1")
	require.NoError(t, store.SavePlanDocuments(plan, docs))

	// Saving the same plan again conflicts on the primary key; the whole
	// second save rolls back.
	_, dup := testDocuments("PLAN-1")
	dup.WorkOrders[0].ID = "PLAN-1-WO-other"
	assert.Error(t, store.SavePlanDocuments(plan, dup))

	count, err := store.WorkOrderCount("PLAN-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "failed save must not leave partial rows")
}

func TestSaveMultiplePlans(t *testing.T) {
	store := openTestStore(t)

	for _, id := range []string{"PLAN-1", "PLAN-2"} {
		plan, docs := testDocuments(id)
		require.NoError(t, store.SavePlanDocuments(plan, docs))
	}

	for _, id := range []string{"PLAN-1", "PLAN-2"} {
		count, err := store.WorkOrderCount(id)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	}
}

func TestPlanStatusUnknownPlan(t *testing.T) {
	store := openTestStore(t)
	_, err := store.PlanStatus("PLAN-404")
	assert.Error(t, err)
}
