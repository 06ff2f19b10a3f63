package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ambrosia/prodplan/pkg/interfaces/cli/commands"
)

func main() {
	root := &cobra.Command{
		Use:   "prodplan",
		Short: "Production planning from bills of materials",
		Long: `prodplan explodes sales demand through multi-level bills of materials
into sub-assembly and raw-material requirements, and emits the material
request, work orders and job cards to execute the plan.`,
		SilenceUsage: true,
	}
	root.AddCommand(commands.NewPlanCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
