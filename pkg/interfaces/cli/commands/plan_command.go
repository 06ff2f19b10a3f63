package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
	"github.com/ambrosia/prodplan/pkg/infrastructure/loader"
	"github.com/ambrosia/prodplan/pkg/infrastructure/repositories/sqlite"
	"github.com/ambrosia/prodplan/pkg/interfaces/cli/output"
	"github.com/ambrosia/prodplan/pkg/planner"
)

type planFlags struct {
	catalogPath     string
	demandPaths     []string
	combineSubItems bool
	subcontract     []string
	forWarehouse    string
	wipWarehouse    string
	postingDate     string
	workbookPath    string
	dbPath          string
	submit          bool
	verbose         bool
}

// NewPlanCommand builds the `plan` command: compute production plans
// from a catalog fixture and demand files, optionally submitting them
// and persisting the emitted documents.
func NewPlanCommand() *cobra.Command {
	flags := &planFlags{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute production plans from demand",
		Long: `Explodes demand lines through the BOM catalog, resolves sub-assembly
sourcing, aggregates raw materials and (with --submit) emits the material
request and work orders.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(flags)
		},
	}

	cmd.Flags().StringVar(&flags.catalogPath, "catalog", "", "path to YAML catalog fixture (required)")
	cmd.Flags().StringSliceVar(&flags.demandPaths, "demands", nil, "paths to demand CSV files (required)")
	cmd.Flags().BoolVar(&flags.combineSubItems, "combine-sub-items", false, "merge identical sub-assemblies across branches")
	cmd.Flags().StringSliceVar(&flags.subcontract, "subcontract", nil, "force subcontracting, item=supplier pairs")
	cmd.Flags().StringVar(&flags.forWarehouse, "for-warehouse", "", "fallback warehouse for raw materials")
	cmd.Flags().StringVar(&flags.wipWarehouse, "wip-warehouse", "", "work-in-progress warehouse for work orders")
	cmd.Flags().StringVar(&flags.postingDate, "posting-date", "", "plan posting date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&flags.workbookPath, "out", "", "write the plan as an Excel workbook")
	cmd.Flags().StringVar(&flags.dbPath, "db", "", "persist emitted documents to this SQLite file")
	cmd.Flags().BoolVar(&flags.submit, "submit", false, "submit the plan and emit execution documents")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "verbose logging")
	cobra.CheckErr(cmd.MarkFlagRequired("catalog"))
	cobra.CheckErr(cmd.MarkFlagRequired("demands"))

	return cmd
}

func runPlan(flags *planFlags) error {
	logger := zap.NewNop()
	if flags.verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
	}

	catalog, err := loader.LoadCatalog(flags.catalogPath)
	if err != nil {
		return err
	}

	opts, err := buildOptions(flags)
	if err != nil {
		return err
	}

	plannerOpts := []planner.Option{planner.WithLogger(logger)}
	if flags.dbPath != "" {
		store, err := sqlite.Open(flags.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		plannerOpts = append(plannerOpts, planner.WithDocumentStore(store))
	}
	p := planner.New(catalog, plannerOpts...)

	// Each demand file is an independent plan over the shared snapshot.
	plans := make([]*entities.ProductionPlan, len(flags.demandPaths))
	var group errgroup.Group
	for i, path := range flags.demandPaths {
		group.Go(func() error {
			demand, err := loader.LoadDemand(path)
			if err != nil {
				return err
			}
			plan, err := p.ComputePlan(demand, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			plans[i] = plan
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, plan := range plans {
		var docs *planner.Documents
		if flags.submit {
			docs, err = p.Submit(plan)
			if err != nil {
				return err
			}
		}

		output.RenderPlan(os.Stdout, plan)
		if docs != nil {
			fmt.Println()
			output.RenderDocuments(os.Stdout, docs)
		}
		if flags.workbookPath != "" {
			path := flags.workbookPath
			if len(plans) > 1 {
				path = fmt.Sprintf("%s.%s.xlsx", strings.TrimSuffix(path, ".xlsx"), plan.ID)
			}
			if err := output.WriteWorkbook(path, plan, docs); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildOptions(flags *planFlags) (planner.Options, error) {
	opts := planner.Options{
		CombineSubItems: flags.combineSubItems,
		ForWarehouse:    flags.forWarehouse,
		WIPWarehouse:    flags.wipWarehouse,
	}

	if flags.postingDate != "" {
		date, err := time.Parse("2006-01-02", flags.postingDate)
		if err != nil {
			return opts, fmt.Errorf("invalid posting date %q: %w", flags.postingDate, err)
		}
		opts.PostingDate = date
	}

	for _, pair := range flags.subcontract {
		item, supplier, ok := strings.Cut(pair, "=")
		if !ok || item == "" || supplier == "" {
			return opts, fmt.Errorf("invalid --subcontract value %q, want item=supplier", pair)
		}
		if opts.SubcontractOverrides == nil {
			opts.SubcontractOverrides = make(map[entities.ItemCode]string)
		}
		opts.SubcontractOverrides[entities.ItemCode(item)] = supplier
	}

	return opts, nil
}
