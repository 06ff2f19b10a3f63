package planner

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/domain/repositories"
)

// DocumentStore persists execution documents after a successful submit
type DocumentStore interface {
	SavePlanDocuments(plan *entities.ProductionPlan, docs *Documents) error
}

// Planner is the facade collaborators call: it snapshots the catalog,
// runs explosion, resolution and aggregation, and serializes document
// emission per plan.
type Planner struct {
	catalog  repositories.SnapshotCatalog
	engine   *Engine
	resolver *Resolver
	emitter  *Emitter
	logger   *zap.Logger
	store    DocumentStore

	mu    sync.Mutex
	locks map[string]*planLock
}

// planLock serializes submits of one plan. Entries are reference counted
// so the table does not grow with every plan ever submitted.
type planLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Planner
type Option func(*Planner)

// WithLogger sets the planner's logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

// WithDocumentStore persists emitted documents to the given store
func WithDocumentStore(store DocumentStore) Option {
	return func(p *Planner) { p.store = store }
}

// New creates a Planner over a snapshotting catalog
func New(catalog repositories.SnapshotCatalog, opts ...Option) *Planner {
	p := &Planner{
		catalog:  catalog,
		engine:   NewEngine(),
		resolver: NewResolver(),
		emitter:  NewEmitter(),
		logger:   zap.NewNop(),
		locks:    make(map[string]*planLock),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ComputePlan explodes demand over a catalog snapshot and returns a
// draft plan with resolved sub-assembly rows and aggregated raw
// materials. The snapshot is taken once, so catalog mutation during the
// run is invisible to it.
func (p *Planner) ComputePlan(demand []entities.DemandLine, opts Options) (*entities.ProductionPlan, error) {
	if opts.PostingDate.IsZero() {
		opts.PostingDate = time.Now()
	}
	snap := p.catalog.Snapshot()

	tree, err := p.engine.Explode(snap, demand, opts)
	if err != nil {
		return nil, fmt.Errorf("compute plan: %w", err)
	}
	subAssemblies, err := p.resolver.Resolve(snap, tree, opts)
	if err != nil {
		return nil, fmt.Errorf("compute plan: %w", err)
	}
	rawMaterials, err := Aggregate(snap, tree, opts)
	if err != nil {
		return nil, fmt.Errorf("compute plan: %w", err)
	}

	plan := &entities.ProductionPlan{
		ID:            uuid.NewString(),
		PostingDate:   opts.PostingDate,
		ForWarehouse:  opts.ForWarehouse,
		WIPWarehouse:  opts.WIPWarehouse,
		Status:        entities.PlanDraft,
		Demand:        demand,
		SubAssemblies: subAssemblies,
		RawMaterials:  rawMaterials,
	}
	for _, idx := range tree.Roots {
		node := &tree.Nodes[idx]
		if node.Raw() {
			// Demand for a purchased item carries no production; it is
			// already covered by the aggregated raw materials.
			continue
		}
		plan.Items = append(plan.Items, entities.ProductionItem{
			Item:         node.Item.Code,
			Qty:          node.Qty,
			UOM:          node.Item.StockUOM,
			BOMID:        node.BOM.ID,
			Warehouse:    node.Warehouse,
			ScheduleDate: node.ScheduleDate,
			Operations:   node.BOM.Operations,
		})
	}

	p.logger.Info("computed production plan",
		zap.String("plan_id", plan.ID),
		zap.Int("demand_lines", len(demand)),
		zap.Int("production_items", len(plan.Items)),
		zap.Int("sub_assemblies", len(plan.SubAssemblies)),
		zap.Int("raw_materials", len(plan.RawMaterials)))

	return plan, nil
}

// Submit emits execution documents for a draft plan. Emission for one
// plan is serialized: concurrent submits of the same plan cannot
// duplicate work orders, and re-submitting fails with AlreadySubmitted.
func (p *Planner) Submit(plan *entities.ProductionPlan) (*Documents, error) {
	lock := p.lockPlan(plan.ID)
	defer p.unlockPlan(plan.ID, lock)

	snap := p.catalog.Snapshot()
	docs, err := p.emitter.Emit(snap, plan)
	if err != nil {
		return nil, err
	}

	plan.Status = entities.PlanSubmitted
	if p.store != nil {
		if err := p.store.SavePlanDocuments(plan, docs); err != nil {
			plan.Status = entities.PlanDraft
			return nil, fmt.Errorf("submit plan %s: %w", plan.ID, err)
		}
	}

	p.logger.Info("submitted production plan",
		zap.String("plan_id", plan.ID),
		zap.String("material_request", docs.MaterialRequest.ID),
		zap.Int("work_orders", len(docs.WorkOrders)))

	return docs, nil
}

// lockPlan acquires the mutex owning a plan's mutable state
func (p *Planner) lockPlan(planID string) *planLock {
	p.mu.Lock()
	lock, ok := p.locks[planID]
	if !ok {
		lock = &planLock{}
		p.locks[planID] = lock
	}
	lock.refs++
	p.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// unlockPlan releases the plan mutex and drops the table entry once no
// other submitter holds or awaits it
func (p *Planner) unlockPlan(planID string, lock *planLock) {
	lock.mu.Unlock()
	p.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(p.locks, planID)
	}
	p.mu.Unlock()
}
