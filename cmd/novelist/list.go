package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kerbaras/novelist/pkg/app/styles"
	"github.com/kerbaras/novelist/pkg/data"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpointed runs",
	Long:  "Display every run in the checkpoint store in a formatted table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := data.Open(cfg.Store.Driver, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer repo.Close()

		runs, err := repo.ListRuns()
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("📚 No runs yet. Use 'novelist write --checkpoint' or 'novelist outline' to start one.")
			return nil
		}

		columns := []table.Column{
			{Title: "ID", Width: 36},
			{Title: "Title", Width: 30},
			{Title: "Style", Width: 12},
			{Title: "Chapters", Width: 9},
			{Title: "Status", Width: 10},
			{Title: "Created", Width: 16},
		}

		rows := []table.Row{}
		for _, run := range runs {
			chapters, err := repo.GetChapters(run.ID)
			if err != nil {
				return err
			}
			title := run.Title
			if title == "" {
				title = "(untitled)"
			}
			rows = append(rows, table.Row{
				run.ID,
				truncateString(title, 28),
				truncateString(run.Request.Style, 10),
				fmt.Sprintf("%d/%d", len(chapters), run.Request.Chapters),
				string(run.Status),
				humanize.Time(run.CreatedAt),
			})
		}

		t := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithFocused(false),
			table.WithHeight(len(rows)),
		)

		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
		s.Selected = s.Selected.
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(false)
		t.SetStyles(s)

		fmt.Println(styles.TitleStyle.Render(fmt.Sprintf("📚 Runs (%d)", len(runs))))
		fmt.Println(t.View())
		return nil
	},
}

// truncateString shortens s to at most max runes, marking the cut with "…".
func truncateString(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
