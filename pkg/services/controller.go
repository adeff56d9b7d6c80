package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kerbaras/novelist/pkg/config"
	"github.com/kerbaras/novelist/pkg/data"
	"github.com/kerbaras/novelist/pkg/providers"
)

// Controller wires the generators, the checkpoint store, the pipeline and
// the assembler from a Config.
type Controller struct {
	repo      *data.Repository
	pipeline  *Pipeline
	assembler *Assembler
	reporter  *Reporter
}

func NewController(cfg *config.Config) (*Controller, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var text providers.TextGenerator = providers.NewAnthropicClient(
		cfg.Anthropic.BaseURL, cfg.Anthropic.APIKey, cfg.Anthropic.Model, httpClient)
	var image providers.ImageGenerator = providers.NewStabilityClient(
		cfg.Stability.Host, cfg.Stability.APIKey, cfg.Stability.Engine, httpClient)
	if cfg.Pipeline.RequestsPerMinute > 0 {
		text = NewThrottledText(text, cfg.Pipeline.RequestsPerMinute)
	}
	if cfg.Pipeline.MaxRetries > 0 {
		policy := NewRetryPolicy(cfg.Pipeline.MaxRetries)
		text = NewRetryingText(text, policy)
		image = NewRetryingImage(image, policy)
	}

	var repo *data.Repository
	if cfg.Store.Enabled {
		r, err := data.Open(cfg.Store.Driver, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
		}
		repo = r
	}
	return newController(cfg, text, image, repo), nil
}

func newController(cfg *config.Config, text providers.TextGenerator, image providers.ImageGenerator, repo *data.Repository) *Controller {
	gen := GenerationOptions{
		Model:            cfg.Anthropic.Model,
		MaxTokens:        cfg.Anthropic.MaxTokens,
		ChapterMaxTokens: cfg.Anthropic.ChapterMaxTokens,
		Temperature:      cfg.Anthropic.Temperature,
	}
	reporter := NewReporter(100)

	// a nil *data.Repository must not become a non-nil interface
	var store Repository
	if repo != nil {
		store = repo
	}

	return &Controller{
		repo:     repo,
		reporter: reporter,
		pipeline: NewPipeline(text, store, gen, cfg.Pipeline.ChapterCooldown, reporter),
		assembler: NewAssembler(text, image, store, AssemblerOptions{
			Generation: gen,
			Author:     cfg.Book.Author,
			Language:   cfg.Book.Language,
			OutputDir:  cfg.Book.OutputDir,
			CoverFile:  cfg.Book.CoverFile,
		}, reporter),
	}
}

// Write generates and assembles a new book.
func (c *Controller) Write(ctx context.Context, req data.BookRequest) (*Artifacts, error) {
	draft, err := c.pipeline.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.assembler.Assemble(ctx, draft)
}

// Resume finishes a checkpointed run and assembles it.
func (c *Controller) Resume(ctx context.Context, runID string) (*Artifacts, error) {
	draft, err := c.pipeline.Resume(ctx, runID)
	if err != nil {
		return nil, err
	}
	return c.assembler.Assemble(ctx, draft)
}

func (c *Controller) Outline(ctx context.Context, req data.BookRequest) (*data.Run, error) {
	if c.repo == nil {
		return nil, ErrNoStore
	}
	return c.pipeline.Outline(ctx, req)
}

// AssembleRun assembles a run whose chapters, title and cover prompt are
// already checkpointed, without generating any more text for the draft.
func (c *Controller) AssembleRun(ctx context.Context, runID string) (*Artifacts, error) {
	run, err := c.GetRun(runID)
	if err != nil {
		return nil, err
	}
	draft, err := run.Draft()
	if err != nil {
		return nil, err
	}
	return c.assembler.Assemble(ctx, draft)
}

func (c *Controller) GetRun(id string) (*data.Run, error) {
	if c.repo == nil {
		return nil, ErrNoStore
	}
	return c.repo.GetRun(id)
}

func (c *Controller) ListRuns() ([]*data.Run, error) {
	if c.repo == nil {
		return nil, ErrNoStore
	}
	return c.repo.ListRuns()
}

// GetProgressChannel returns the channel for receiving progress updates
func (c *Controller) GetProgressChannel() <-chan Progress {
	return c.reporter.Events()
}

func (c *Controller) Close() error {
	c.reporter.Close()
	if c.repo != nil {
		return c.repo.Close()
	}
	return nil
}
