package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kerbaras/novelist/pkg/data"
	"github.com/kerbaras/novelist/pkg/integrations"
	"github.com/kerbaras/novelist/pkg/logger"
	"github.com/kerbaras/novelist/pkg/providers"
)

type AssemblerOptions struct {
	Generation GenerationOptions
	Author     string
	Language   string
	OutputDir  string
	CoverFile  string
}

// Artifacts are the files written for one book.
type Artifacts struct {
	Title     string
	TextPath  string
	CoverPath string
	EPubPath  string
}

// Assembler titles chapters, renders the cover and writes the text file,
// the cover and the EPUB package.
type Assembler struct {
	text        providers.TextGenerator
	image       providers.ImageGenerator
	repo        Repository
	covers      *integrations.CoverProcessor
	newPackager func(workDir string) integrations.Packager
	rename      func(oldpath, newpath string) error
	titles      *cache.Cache
	reporter    *Reporter
	opts        AssemblerOptions
}

// NewAssembler creates an assembler. repo may be nil.
func NewAssembler(text providers.TextGenerator, image providers.ImageGenerator, repo Repository, opts AssemblerOptions, reporter *Reporter) *Assembler {
	if opts.CoverFile == "" {
		opts.CoverFile = "cover.png"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Assembler{
		text:   text,
		image:  image,
		repo:   repo,
		covers: integrations.NewCoverProcessor(providers.CoverWidth, providers.CoverHeight),
		newPackager: func(workDir string) integrations.Packager {
			return integrations.NewEPubBuilder(workDir)
		},
		rename:   os.Rename,
		titles:   cache.New(time.Hour, 10*time.Minute),
		reporter: reporter,
		opts:     opts,
	}
}

// Assemble turns draft into artifacts in the output directory. Nothing is
// left at the target paths unless every artifact was produced.
func (a *Assembler) Assemble(ctx context.Context, draft *data.Draft) (*Artifacts, error) {
	if draft == nil {
		return nil, fmt.Errorf("draft cannot be nil")
	}
	if len(draft.Chapters) == 0 {
		return nil, fmt.Errorf("draft has no chapters")
	}
	if filepath.Base(a.opts.CoverFile) != a.opts.CoverFile {
		return nil, fmt.Errorf("cover file %q must be a plain file name", a.opts.CoverFile)
	}
	ctx = logger.WithRunID(ctx, draft.RunID)
	log := logger.FromContext(ctx)

	chapters, err := a.titleChapters(ctx, draft)
	if err != nil {
		return nil, err
	}

	a.reporter.send(Progress{RunID: draft.RunID, Stage: StageCover, Total: 1, Status: "started"})
	cover, err := a.renderCover(ctx, draft.CoverPrompt)
	if err != nil {
		a.reporter.send(Progress{RunID: draft.RunID, Stage: StageCover, Status: "error", Error: err})
		return nil, err
	}
	a.reporter.send(Progress{RunID: draft.RunID, Stage: StageCover, Current: 1, Total: 1, Status: "complete"})
	log.Info("cover image created")

	book := &data.Book{
		ID:       draft.RunID,
		Title:    draft.Title,
		Author:   a.opts.Author,
		Language: a.opts.Language,
		Outline:  draft.Outline,
		Chapters: chapters,
		Cover:    cover,
	}
	layout, err := integrations.NewPackageLayout(book, a.opts.CoverFile)
	if err != nil {
		return nil, err
	}

	a.reporter.send(Progress{RunID: draft.RunID, Stage: StagePackage, Total: 1, Status: "started"})
	artifacts, err := a.write(draft, layout, cover.Data)
	if err != nil {
		a.reporter.send(Progress{RunID: draft.RunID, Stage: StagePackage, Status: "error", Error: err})
		return nil, err
	}
	a.reporter.send(Progress{RunID: draft.RunID, Stage: StagePackage, Current: 1, Total: 1, Status: "complete"})

	if a.repo != nil {
		for _, ch := range chapters {
			if err := a.repo.SaveChapter(draft.RunID, ch); err != nil {
				log.Warn("failed to checkpoint chapter title", "chapter", ch.Ordinal, "error", err)
			}
		}
		if err := a.repo.UpdateStatus(draft.RunID, data.StatusAssembled); err != nil {
			log.Warn("failed to mark run as assembled", "error", err)
		}
	}

	log.Info("book saved", "epub", artifacts.EPubPath, "text", artifacts.TextPath)
	a.reporter.send(Progress{RunID: draft.RunID, Stage: StageDone, Current: 1, Total: 1, Status: "complete"})
	return artifacts, nil
}

// titleChapters generates a title per chapter from that chapter's content
// alone. Titles are memoised by content.
func (a *Assembler) titleChapters(ctx context.Context, draft *data.Draft) ([]data.Chapter, error) {
	total := len(draft.Chapters)
	chapters := make([]data.Chapter, total)

	for i, ch := range draft.Chapters {
		sum := sha256.Sum256([]byte(ch.Content))
		key := hex.EncodeToString(sum[:])

		title, ok := a.titles.Get(key)
		if !ok {
			generated, err := a.text.Generate(ctx, providers.TextRequest{
				Prompt:      chapterTitlePrompt(ch.Content),
				Model:       a.opts.Generation.Model,
				MaxTokens:   a.opts.Generation.MaxTokens,
				Temperature: a.opts.Generation.Temperature,
			})
			if err != nil {
				a.reporter.send(Progress{RunID: draft.RunID, Stage: StageChapterTitle, Current: i, Total: total, Status: "error", Error: err})
				return nil, fmt.Errorf("failed to generate title for chapter %d: %w", ch.Ordinal, err)
			}
			title = strings.TrimSpace(providers.StripPreamble(generated))
			a.titles.Set(key, title, cache.DefaultExpiration)
		}

		ch.Title = title.(string)
		if ch.Title == "" {
			ch.Title = fmt.Sprintf("Chapter %d", ch.Ordinal)
		}
		chapters[i] = ch
		a.reporter.send(Progress{RunID: draft.RunID, Stage: StageChapterTitle, Current: i + 1, Total: total, Status: "complete"})
	}
	return chapters, nil
}

func (a *Assembler) renderCover(ctx context.Context, prompt string) (*data.CoverImage, error) {
	raw, err := a.image.GenerateCoverImage(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover image: %w", err)
	}
	img, err := a.covers.Process(raw)
	if err != nil {
		return nil, &providers.ServiceError{Service: "image", Op: "unexpected response", Err: err}
	}
	return &data.CoverImage{Prompt: prompt, Data: img, ContentType: "image/png"}, nil
}

// write stages all three artifacts next to their targets and moves them into
// place only once every one of them was written.
func (a *Assembler) write(draft *data.Draft, layout *integrations.PackageLayout, cover []byte) (*Artifacts, error) {
	if err := os.MkdirAll(a.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	staging, err := os.MkdirTemp(a.opts.OutputDir, ".novelist-staging-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	name := integrations.SanitizeFilename(draft.Title)
	files := []string{name + ".txt", a.opts.CoverFile, name + ".epub"}

	if err := os.WriteFile(filepath.Join(staging, files[0]), []byte(draft.FullText), 0644); err != nil {
		return nil, fmt.Errorf("failed to write text file: %w", err)
	}
	coverPath := filepath.Join(staging, files[1])
	if err := os.WriteFile(coverPath, cover, 0644); err != nil {
		return nil, fmt.Errorf("failed to write cover image: %w", err)
	}
	packager := a.newPackager(filepath.Join(staging, "work"))
	if err := packager.Package(layout, coverPath, filepath.Join(staging, files[2])); err != nil {
		return nil, fmt.Errorf("failed to create EPUB: %w", err)
	}

	previous := filepath.Join(staging, ".previous")
	if err := os.Mkdir(previous, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	type placed struct {
		target string
		backup string
	}
	var done []placed
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			os.Remove(done[i].target)
			if done[i].backup != "" {
				a.rename(done[i].backup, done[i].target)
			}
		}
	}

	var moved []string
	for i, f := range files {
		p := placed{target: filepath.Join(a.opts.OutputDir, f)}
		if _, err := os.Lstat(p.target); err == nil {
			p.backup = filepath.Join(previous, fmt.Sprint(i))
			if err := a.rename(p.target, p.backup); err != nil {
				rollback()
				return nil, fmt.Errorf("failed to set aside existing %s: %w", f, err)
			}
		}
		if err := a.rename(filepath.Join(staging, f), p.target); err != nil {
			if p.backup != "" {
				a.rename(p.backup, p.target)
			}
			rollback()
			return nil, fmt.Errorf("failed to move %s into place: %w", f, err)
		}
		done = append(done, p)
		moved = append(moved, p.target)
	}

	return &Artifacts{
		Title:     draft.Title,
		TextPath:  moved[0],
		CoverPath: moved[1],
		EPubPath:  moved[2],
	}, nil
}
