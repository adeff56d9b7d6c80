package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kerbaras/novelist/pkg/app/styles"
	"github.com/kerbaras/novelist/pkg/data"
)

var showCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show a run and its chapters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := data.Open(cfg.Store.Driver, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer repo.Close()

		run, err := repo.GetRun(args[0])
		if err != nil {
			return err
		}

		title := run.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Println(styles.TitleStyle.Render(title))
		fmt.Printf("%s %s\n", styles.LabelStyle.Render("Run:"), run.ID)
		fmt.Printf("%s %s\n", styles.LabelStyle.Render("Style:"), run.Request.Style)
		fmt.Printf("%s %s\n", styles.LabelStyle.Render("Description:"), run.Request.Description)
		fmt.Printf("%s %s\n", styles.LabelStyle.Render("Status:"), styles.StatusStyle(string(run.Status)).Render(string(run.Status)))
		fmt.Printf("%s %d/%d\n\n", styles.LabelStyle.Render("Chapters:"), len(run.Chapters), run.Request.Chapters)

		if len(run.Chapters) == 0 {
			fmt.Println(styles.SubtitleStyle.Render("Plot outline"))
			fmt.Println(string(run.Outline))
			return nil
		}

		fmt.Println(chapterTable(run.Chapters))
		return nil
	},
}

func chapterTable(chapters []data.Chapter) *table.Table {
	var (
		purple = lipgloss.Color("99")

		headerStyle = lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center)
		cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	)

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			default:
				return cellStyle
			}
		}).
		Headers("#", "Title", "Words", "Opening")

	for _, ch := range chapters {
		title := ch.Title
		if title == "" {
			title = "-"
		}
		opening, _, _ := strings.Cut(strings.TrimSpace(ch.Content), "\n")
		t.Row(
			fmt.Sprintf("%d", ch.Ordinal),
			truncateString(title, 30),
			humanize.Comma(int64(len(strings.Fields(ch.Content)))),
			truncateString(opening, 50),
		)
	}
	return t
}
