package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kerbaras/novelist/pkg/services"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble RUN_ID",
	Short: "Package a drafted run as text and EPUB",
	Long:  "Title the chapters, render the cover and write the book files for a run whose chapters are all checkpointed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyBookOverrides(cmd)
		cfg.Store.Enabled = true

		controller, err := services.NewController(cfg)
		if err != nil {
			return err
		}
		done := printProgress(controller.GetProgressChannel())

		fmt.Printf("📦 Assembling run %s\n", args[0])
		artifacts, err := controller.AssembleRun(cmd.Context(), args[0])
		controller.Close()
		<-done
		if err != nil {
			return err
		}

		printArtifacts(artifacts)
		return nil
	},
}

func init() {
	assembleCmd.Flags().String("author", "", "Author recorded in the EPUB (default from config)")
	assembleCmd.Flags().StringP("output-dir", "o", "", "Directory for the generated files (default from config)")
}
