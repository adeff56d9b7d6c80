package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kerbaras/novelist/pkg/app"
	"github.com/kerbaras/novelist/pkg/app/components"
	"github.com/kerbaras/novelist/pkg/app/styles"
	"github.com/kerbaras/novelist/pkg/data"
	"github.com/kerbaras/novelist/pkg/services"
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write a new book",
	Long: "Generate a plot outline, every chapter, a title and a cover, then save the book as text and EPUB.\n" +
		"Values not given as flags are asked for interactively.",
	Args: cobra.NoArgs,
	RunE: runWrite,
}

func init() {
	addBookFlags(writeCmd)
}

func addBookFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("style", "s", "", "Writing style (e.g. noir, literary)")
	cmd.Flags().StringP("description", "d", "", "High-level description of the book")
	cmd.Flags().IntP("chapters", "n", 0, "Number of chapters")
	cmd.Flags().IntP("min-paragraphs", "p", 0, "Minimum number of paragraphs per chapter")
	cmd.Flags().String("author", "", "Author recorded in the EPUB (default from config)")
	cmd.Flags().StringP("output-dir", "o", "", "Directory for the generated files (default from config)")
	cmd.Flags().String("resume", "", "Resume a checkpointed run by id instead of starting a new book")
	cmd.Flags().Bool("checkpoint", false, "Save progress to the checkpoint store so the run can be resumed")
}

func runWrite(cmd *cobra.Command, args []string) error {
	applyBookOverrides(cmd)
	resumeID, _ := cmd.Flags().GetString("resume")
	if checkpoint, _ := cmd.Flags().GetBool("checkpoint"); checkpoint || resumeID != "" {
		cfg.Store.Enabled = true
	}

	var req data.BookRequest
	if resumeID == "" {
		var err error
		req, err = requestFromFlags(cmd)
		if err != nil {
			return err
		}
	}

	controller, err := services.NewController(cfg)
	if err != nil {
		return err
	}
	done := printProgress(controller.GetProgressChannel())

	var artifacts *services.Artifacts
	if resumeID != "" {
		fmt.Printf("🔁 Resuming run %s\n", resumeID)
		artifacts, err = controller.Resume(cmd.Context(), resumeID)
	} else {
		fmt.Printf("✍️  Writing a %d-chapter %s book\n", req.Chapters, req.Style)
		artifacts, err = controller.Write(cmd.Context(), req)
	}
	controller.Close()
	<-done
	if err != nil {
		return err
	}

	printArtifacts(artifacts)
	return nil
}

// applyBookOverrides copies --author and --output-dir into the config.
func applyBookOverrides(cmd *cobra.Command) {
	if author, _ := cmd.Flags().GetString("author"); author != "" {
		cfg.Book.Author = author
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.Book.OutputDir = dir
	}
}

// requestFromFlags reads the book request from flags and asks for whatever
// is missing or invalid.
func requestFromFlags(cmd *cobra.Command) (data.BookRequest, error) {
	var req data.BookRequest
	req.Style, _ = cmd.Flags().GetString("style")
	req.Description, _ = cmd.Flags().GetString("description")
	req.Chapters, _ = cmd.Flags().GetInt("chapters")
	req.MinParagraphs, _ = cmd.Flags().GetInt("min-paragraphs")

	if req.Validate() == nil {
		return req, nil
	}
	return app.NewApp().AskBookRequest(req)
}

// printProgress prints completed steps until events is closed.
func printProgress(events <-chan services.Progress) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for progress := range events {
			if progress.Status == "started" || progress.Stage == services.StageDone {
				continue
			}
			fmt.Println("  " + components.Line(progress, 20))
		}
	}()
	return done
}

func printArtifacts(a *services.Artifacts) {
	fmt.Println()
	fmt.Println(styles.StatusCompleted.Render("✅ Book generated: " + a.Title))
	for _, path := range []string{a.TextPath, a.CoverPath, a.EPubPath} {
		size := ""
		if info, err := os.Stat(path); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		fmt.Printf("📖 %s %s\n", path, styles.MutedStyle.Render(size))
	}
}
