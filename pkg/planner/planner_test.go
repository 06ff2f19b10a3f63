package planner

import (
	"errors"
	"sync"
	"testing"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
)

type recordingStore struct {
	saved []*entities.ProductionPlan
	fail  error
}

func (s *recordingStore) SavePlanDocuments(plan *entities.ProductionPlan, docs *Documents) error {
	if s.fail != nil {
		return s.fail
	}
	s.saved = append(s.saved, plan)
	return nil
}

func TestComputePlanEndToEnd(t *testing.T) {
	catalog := buildPieCatalog()
	p := New(catalog)

	opts := Options{
		WIPWarehouse:         testKitchen,
		ForWarehouse:         testStoreroom,
		SubcontractOverrides: map[entities.ItemCode]string{"Pie Crust": testBakerySupplier},
		PostingDate:          testScheduleDate(),
	}
	plan, err := p.ComputePlan([]entities.DemandLine{pieDemand("Ambrosia Pie", "40")}, opts)
	if err != nil {
		t.Fatalf("ComputePlan() error = %v", err)
	}

	if plan.Status != entities.PlanDraft {
		t.Errorf("status = %s, want Draft", plan.Status)
	}
	if len(plan.Items) != 1 || plan.Items[0].Item != "Ambrosia Pie" || !plan.Items[0].Qty.Equal(dec("40")) {
		t.Errorf("production items = %+v, want a single 40-pie row", plan.Items)
	}

	if len(plan.SubAssemblies) != 1 {
		t.Fatalf("sub-assemblies = %d, want 1", len(plan.SubAssemblies))
	}
	crust := plan.SubAssemblies[0]
	if crust.Item != "Pie Crust" || !crust.Qty.Equal(dec("40")) {
		t.Errorf("crust row = %s qty %s, want Pie Crust qty 40", crust.Item, crust.Qty)
	}
	if crust.Sourcing.Type() != entities.Subcontract {
		t.Errorf("crust sourcing = %s, want Subcontract", crust.Sourcing.Type())
	}

	filling := findRaw(plan.RawMaterials, "Ambrosia Filling", testStoreroom)
	if filling == nil {
		t.Fatalf("no Ambrosia Filling row in %v", plan.RawMaterials)
	}
	if !filling.Qty.Equal(dec("20")) {
		t.Errorf("filling qty = %s, want 20 Kg", filling.Qty)
	}
}

func TestSubmitFlipsStatusAndPersists(t *testing.T) {
	store := &recordingStore{}
	p := New(buildPieCatalog(), WithDocumentStore(store))

	plan, err := p.ComputePlan([]entities.DemandLine{pieDemand("Ambrosia Pie", "40")}, Options{WIPWarehouse: testKitchen})
	if err != nil {
		t.Fatalf("ComputePlan() error = %v", err)
	}

	docs, err := p.Submit(plan)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if plan.Status != entities.PlanSubmitted {
		t.Errorf("status = %s, want Submitted", plan.Status)
	}
	if docs.MaterialRequest == nil || len(docs.WorkOrders) == 0 {
		t.Error("Submit() returned empty documents")
	}
	if len(store.saved) != 1 {
		t.Errorf("store saves = %d, want 1", len(store.saved))
	}
}

func TestSubmitConcurrentSingleWinner(t *testing.T) {
	store := &recordingStore{}
	p := New(buildPieCatalog(), WithDocumentStore(store))

	plan, err := p.ComputePlan([]entities.DemandLine{pieDemand("Ambrosia Pie", "40")}, Options{WIPWarehouse: testKitchen})
	if err != nil {
		t.Fatalf("ComputePlan() error = %v", err)
	}

	const submitters = 8
	var wg sync.WaitGroup
	results := make(chan error, submitters)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Submit(plan)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadySubmitted):
			rejected++
		default:
			t.Errorf("Submit() error = %v, want nil or ErrAlreadySubmitted", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("successful submits = %d, want exactly 1", succeeded)
	}
	if rejected != submitters-1 {
		t.Errorf("rejected submits = %d, want %d", rejected, submitters-1)
	}
	if len(store.saved) != 1 {
		t.Errorf("store saves = %d, want 1", len(store.saved))
	}

	// The lock table releases the plan's entry once every submitter is done.
	p.mu.Lock()
	entries := len(p.locks)
	p.mu.Unlock()
	if entries != 0 {
		t.Errorf("plan lock entries = %d, want 0 after all submits returned", entries)
	}
}

func TestSubmitTwiceFails(t *testing.T) {
	p := New(buildPieCatalog())

	plan, err := p.ComputePlan([]entities.DemandLine{pieDemand("Ambrosia Pie", "40")}, Options{WIPWarehouse: testKitchen})
	if err != nil {
		t.Fatalf("ComputePlan() error = %v", err)
	}
	if _, err := p.Submit(plan); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}

	_, err = p.Submit(plan)
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second Submit() error = %v, want ErrAlreadySubmitted", err)
	}
}

func TestSubmitRevertsStatusWhenStoreFails(t *testing.T) {
	store := &recordingStore{fail: errors.New("disk full")}
	p := New(buildPieCatalog(), WithDocumentStore(store))

	plan, err := p.ComputePlan([]entities.DemandLine{pieDemand("Ambrosia Pie", "40")}, Options{WIPWarehouse: testKitchen})
	if err != nil {
		t.Fatalf("ComputePlan() error = %v", err)
	}

	if _, err := p.Submit(plan); err == nil {
		t.Fatal("Submit() with failing store should error")
	}
	if plan.Status != entities.PlanDraft {
		t.Errorf("status = %s, want Draft after failed persist", plan.Status)
	}

	// A retry after the store recovers succeeds.
	store.fail = nil
	if _, err := p.Submit(plan); err != nil {
		t.Fatalf("retry Submit() error = %v", err)
	}
	if plan.Status != entities.PlanSubmitted {
		t.Errorf("status = %s, want Submitted after retry", plan.Status)
	}
}

func TestComputePlanPicksUpDefaultBOMSwap(t *testing.T) {
	catalog := buildPieCatalog()
	p := New(catalog)
	demand := []entities.DemandLine{pieDemand("Pie Crust", "10")}

	before, err := p.ComputePlan(demand, Options{})
	if err != nil {
		t.Fatalf("ComputePlan() error = %v", err)
	}
	if before.Items[0].BOMID != "BOM-Pie Crust-001" {
		t.Fatalf("BOM = %s, want BOM-Pie Crust-001", before.Items[0].BOMID)
	}

	mustAddBOM(catalog, entities.BOM{
		ID: "BOM-Pie Crust-v2", Item: "Pie Crust", Quantity: dec("1"), UOM: "Nos",
		Lines: []entities.BOMLine{{Item: "Flour", Qty: dec("1"), UOM: "Kg"}},
	})
	if err := catalog.SetDefaultBOM("Pie Crust", "BOM-Pie Crust-v2"); err != nil {
		t.Fatalf("SetDefaultBOM() error = %v", err)
	}

	// The earlier plan keeps the BOM it captured; a new run sees the swap.
	after, err := p.ComputePlan(demand, Options{})
	if err != nil {
		t.Fatalf("ComputePlan() error = %v", err)
	}
	if after.Items[0].BOMID != "BOM-Pie Crust-v2" {
		t.Errorf("BOM = %s, want the new default BOM-Pie Crust-v2", after.Items[0].BOMID)
	}
	if before.Items[0].BOMID != "BOM-Pie Crust-001" {
		t.Errorf("earlier plan BOM = %s, want it unchanged", before.Items[0].BOMID)
	}
}
