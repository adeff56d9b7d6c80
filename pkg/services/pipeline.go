package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kerbaras/novelist/pkg/data"
	"github.com/kerbaras/novelist/pkg/logger"
	"github.com/kerbaras/novelist/pkg/providers"
)

// Repository is the checkpoint store used by the pipeline and the assembler.
type Repository interface {
	SaveRun(run *data.Run) error
	GetRun(id string) (*data.Run, error)
	SaveChapter(runID string, chapter data.Chapter) error
	UpdateStatus(runID string, status data.RunStatus) error
}

var ErrNoStore = errors.New("checkpoint store is not enabled")

// GenerationOptions are the text generation parameters shared by every call.
type GenerationOptions struct {
	Model            string
	MaxTokens        int
	ChapterMaxTokens int
	Temperature      float64
}

// Pipeline drives the text generator through outline, chapters, title and
// cover prompt, strictly one call at a time.
type Pipeline struct {
	text     providers.TextGenerator
	repo     Repository
	opts     GenerationOptions
	cooldown time.Duration
	reporter *Reporter
	newID    func() string
}

// NewPipeline creates a pipeline. repo may be nil to disable checkpointing.
// cooldown is the pause between the end of one chapter call and the start
// of the next.
func NewPipeline(text providers.TextGenerator, repo Repository, opts GenerationOptions, cooldown time.Duration, reporter *Reporter) *Pipeline {
	return &Pipeline{
		text:     text,
		repo:     repo,
		opts:     opts,
		cooldown: cooldown,
		reporter: reporter,
		newID:    uuid.NewString,
	}
}

// Run generates a complete draft for req.
func (p *Pipeline) Run(ctx context.Context, req data.BookRequest) (*data.Draft, error) {
	run, err := p.Outline(ctx, req)
	if err != nil {
		return nil, err
	}
	return p.draft(ctx, run)
}

// Outline generates and checkpoints only the plot outline.
func (p *Pipeline) Outline(ctx context.Context, req data.BookRequest) (*data.Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if p.text == nil {
		return nil, fmt.Errorf("text generator cannot be nil")
	}

	run := &data.Run{ID: p.newID(), Request: req}
	ctx = logger.WithRunID(ctx, run.ID)
	log := logger.FromContext(ctx)

	log.Info("generating plot outline", "chapters", req.Chapters, "style", req.Style)
	p.reporter.send(Progress{RunID: run.ID, Stage: StageOutline, Total: 1, Status: "started"})

	outline, err := p.generate(ctx, outlinePrompt(req), p.opts.MaxTokens)
	if err != nil {
		p.reporter.send(Progress{RunID: run.ID, Stage: StageOutline, Status: "error", Error: err})
		return nil, fmt.Errorf("failed to generate outline: %w", err)
	}
	run.Outline = data.Outline(outline)
	run.Status = data.StatusOutlined
	if err := p.checkpoint(run); err != nil {
		return nil, err
	}

	log.Info("plot outline generated")
	p.reporter.send(Progress{RunID: run.ID, Stage: StageOutline, Current: 1, Total: 1, Status: "complete"})
	return run, nil
}

// Resume continues a checkpointed run from its first missing chapter.
func (p *Pipeline) Resume(ctx context.Context, runID string) (*data.Draft, error) {
	if p.repo == nil {
		return nil, ErrNoStore
	}
	run, err := p.repo.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if run.Outline == "" {
		return nil, fmt.Errorf("run %s has no outline", runID)
	}
	logger.FromContext(logger.WithRunID(ctx, run.ID)).Info("resuming run",
		"chapters_done", len(run.Chapters), "chapters_total", run.Request.Chapters)
	return p.draft(ctx, run)
}

func (p *Pipeline) draft(ctx context.Context, run *data.Run) (*data.Draft, error) {
	ctx = logger.WithRunID(ctx, run.ID)

	draft, err := p.continueRun(ctx, run)
	if err != nil {
		p.markFailed(ctx, run.ID)
		return nil, err
	}
	return draft, nil
}

func (p *Pipeline) continueRun(ctx context.Context, run *data.Run) (*data.Draft, error) {
	log := logger.FromContext(ctx)
	total := run.Request.Chapters

	if next := run.NextChapter(); next != 0 {
		run.Status = data.StatusDrafting
		if err := p.checkpoint(run); err != nil {
			return nil, err
		}

		for k := next; k <= total; k++ {
			if k > next {
				if err := p.pause(ctx); err != nil {
					return nil, err
				}
			}
			p.reporter.send(Progress{RunID: run.ID, Stage: StageChapter, Current: k - 1, Total: total, Status: "started"})

			prompt := chapterPrompt(run.Request, run.Outline, run.Chapters, k)
			content, err := p.generate(ctx, prompt, p.opts.ChapterMaxTokens)
			if err != nil {
				p.reporter.send(Progress{RunID: run.ID, Stage: StageChapter, Current: k - 1, Total: total, Status: "error", Error: err})
				return nil, fmt.Errorf("failed to generate chapter %d: %w", k, err)
			}

			chapter := data.Chapter{Ordinal: k, Content: providers.StripPreamble(content)}
			run.Chapters = append(run.Chapters, chapter)
			if p.repo != nil {
				if err := p.repo.SaveChapter(run.ID, chapter); err != nil {
					return nil, err
				}
			}

			log.Info("chapter generated", "chapter", k, "total", total)
			p.reporter.send(Progress{RunID: run.ID, Stage: StageChapter, Current: k, Total: total, Status: "complete"})
		}
	}

	if run.Title == "" {
		p.reporter.send(Progress{RunID: run.ID, Stage: StageTitle, Total: 1, Status: "started"})
		title, err := p.generate(ctx, titlePrompt(run.Outline), p.opts.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("failed to generate title: %w", err)
		}
		run.Title = providers.StripPreamble(title)
		log.Info("title generated", "title", run.Title)
		p.reporter.send(Progress{RunID: run.ID, Stage: StageTitle, Current: 1, Total: 1, Status: "complete"})
	}

	if run.CoverPrompt == "" {
		p.reporter.send(Progress{RunID: run.ID, Stage: StageCoverPrompt, Total: 1, Status: "started"})
		coverPrompt, err := p.generate(ctx, coverPromptPrompt(run.Outline), p.opts.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("failed to generate cover prompt: %w", err)
		}
		run.CoverPrompt = coverPrompt
		p.reporter.send(Progress{RunID: run.ID, Stage: StageCoverPrompt, Current: 1, Total: 1, Status: "complete"})
	}

	if run.Status != data.StatusAssembled {
		run.Status = data.StatusDrafted
	}
	if err := p.checkpoint(run); err != nil {
		return nil, err
	}

	log.Info("book drafted", "chapters", len(run.Chapters))
	return run.Draft()
}

func (p *Pipeline) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return p.text.Generate(ctx, providers.TextRequest{
		Prompt:      prompt,
		Model:       p.opts.Model,
		MaxTokens:   maxTokens,
		Temperature: p.opts.Temperature,
	})
}

// pause sleeps for the chapter cooldown unless ctx ends first.
func (p *Pipeline) pause(ctx context.Context) error {
	if p.cooldown <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.cooldown)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) checkpoint(run *data.Run) error {
	if p.repo == nil {
		return nil
	}
	if err := p.repo.SaveRun(run); err != nil {
		return fmt.Errorf("failed to checkpoint run: %w", err)
	}
	return nil
}

func (p *Pipeline) markFailed(ctx context.Context, runID string) {
	if p.repo == nil {
		return
	}
	if err := p.repo.UpdateStatus(runID, data.StatusFailed); err != nil {
		logger.FromContext(ctx).Warn("failed to mark run as failed", "error", err)
	}
}
