package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/planner"
)

// DocumentStore persists emitted execution documents in SQLite
type DocumentStore struct {
	db *sql.DB
}

// Open opens (or creates) a document store at path and runs migrations.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*DocumentStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}

	// SQLite handles one writer plus readers with WAL enabled
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=10000"); err != nil {
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &DocumentStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

// Verify interface compliance
var _ planner.DocumentStore = (*DocumentStore)(nil)

func (s *DocumentStore) migrate() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS production_plans (
			id TEXT PRIMARY KEY,
			posting_date DATETIME NOT NULL,
			for_warehouse TEXT,
			wip_warehouse TEXT,
			status TEXT NOT NULL,
			submitted_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS material_requests (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL REFERENCES production_plans(id),
			schedule_date DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS material_request_lines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL REFERENCES material_requests(id),
			line_type TEXT NOT NULL CHECK(line_type IN ('Purchase','Transfer')),
			item TEXT NOT NULL,
			qty TEXT NOT NULL,
			uom TEXT,
			warehouse TEXT NOT NULL,
			supplier TEXT,
			schedule_date DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS work_orders (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL REFERENCES production_plans(id),
			item TEXT NOT NULL,
			qty TEXT NOT NULL,
			uom TEXT,
			bom_id TEXT,
			wip_warehouse TEXT,
			target_warehouse TEXT,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS job_cards (
			id TEXT PRIMARY KEY,
			work_order_id TEXT NOT NULL REFERENCES work_orders(id),
			seq INTEGER NOT NULL,
			operation TEXT NOT NULL,
			workstation TEXT,
			status TEXT NOT NULL,
			completed_qty TEXT NOT NULL DEFAULT '0'
		)`,
	}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("migrate document store: %w", err)
		}
	}
	return nil
}

// SavePlanDocuments stores a submitted plan and its documents in one
// transaction
func (s *DocumentStore) SavePlanDocuments(plan *entities.ProductionPlan, docs *planner.Documents) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save plan %s: %w", plan.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO production_plans (id, posting_date, for_warehouse, wip_warehouse, status) VALUES (?, ?, ?, ?, ?)`,
		plan.ID, plan.PostingDate, plan.ForWarehouse, plan.WIPWarehouse, plan.Status.String(),
	)
	if err != nil {
		return fmt.Errorf("save plan %s: %w", plan.ID, err)
	}

	mr := docs.MaterialRequest
	if _, err := tx.Exec(
		`INSERT INTO material_requests (id, plan_id, schedule_date) VALUES (?, ?, ?)`,
		mr.ID, plan.ID, mr.ScheduleDate,
	); err != nil {
		return fmt.Errorf("save material request %s: %w", mr.ID, err)
	}
	for _, line := range mr.Lines {
		if _, err := tx.Exec(
			`INSERT INTO material_request_lines (request_id, line_type, item, qty, uom, warehouse, supplier, schedule_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			mr.ID, line.Type.String(), string(line.Item), line.Qty.String(), string(line.UOM),
			line.Warehouse, line.Supplier, line.ScheduleDate,
		); err != nil {
			return fmt.Errorf("save material request line %s: %w", line.Item, err)
		}
	}

	for _, wo := range docs.WorkOrders {
		if _, err := tx.Exec(
			`INSERT INTO work_orders (id, plan_id, item, qty, uom, bom_id, wip_warehouse, target_warehouse, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			wo.ID, plan.ID, string(wo.Item), wo.Qty.String(), string(wo.UOM), string(wo.BOMID),
			wo.WIPWarehouse, wo.TargetWarehouse, wo.Status.String(),
		); err != nil {
			return fmt.Errorf("save work order %s: %w", wo.ID, err)
		}
		for seq, card := range wo.JobCards {
			if _, err := tx.Exec(
				`INSERT INTO job_cards (id, work_order_id, seq, operation, workstation, status, completed_qty)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				card.ID, wo.ID, seq, card.Operation.Name, card.Operation.Workstation,
				card.Status.String(), card.CompletedQty.String(),
			); err != nil {
				return fmt.Errorf("save job card %s: %w", card.ID, err)
			}
		}
	}

	return tx.Commit()
}

// PlanStatus returns the stored status for a plan ID
func (s *DocumentStore) PlanStatus(planID string) (string, error) {
	var status string
	err := s.db.QueryRow(`SELECT status FROM production_plans WHERE id = ?`, planID).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("plan %s status: %w", planID, err)
	}
	return status, nil
}

// WorkOrderCount returns the number of stored work orders for a plan
func (s *DocumentStore) WorkOrderCount(planID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM work_orders WHERE plan_id = ?`, planID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("plan %s work orders: %w", planID, err)
	}
	return count, nil
}
