package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kerbaras/novelist/pkg/app/styles"
	"github.com/kerbaras/novelist/pkg/services"
)

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Generate only the plot outline",
	Long:  "Generate and checkpoint a plot outline. Continue it later with 'novelist write --resume RUN_ID'.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Store.Enabled = true

		req, err := requestFromFlags(cmd)
		if err != nil {
			return err
		}

		controller, err := services.NewController(cfg)
		if err != nil {
			return err
		}
		defer controller.Close()

		run, err := controller.Outline(cmd.Context(), req)
		if err != nil {
			return err
		}

		fmt.Println(styles.TitleStyle.Render("Plot outline"))
		fmt.Println(string(run.Outline))
		fmt.Println()
		fmt.Printf("💾 Saved as run %s\n", run.ID)
		fmt.Printf("💡 Continue with 'novelist write --resume %s'\n", run.ID)
		return nil
	},
}

func init() {
	outlineCmd.Flags().StringP("style", "s", "", "Writing style (e.g. noir, literary)")
	outlineCmd.Flags().StringP("description", "d", "", "High-level description of the book")
	outlineCmd.Flags().IntP("chapters", "n", 0, "Number of chapters")
	outlineCmd.Flags().IntP("min-paragraphs", "p", 0, "Minimum number of paragraphs per chapter")
}
