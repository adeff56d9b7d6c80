package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/kerbaras/novelist/pkg/data"
	"github.com/kerbaras/novelist/pkg/providers"
)

// Mock implementations for testing

type mockText struct {
	mu           sync.Mutex
	generateFunc func(req providers.TextRequest) (string, error)
	requests     []providers.TextRequest
}

func (m *mockText) Generate(ctx context.Context, req providers.TextRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.generateFunc != nil {
		return m.generateFunc(req)
	}
	return "", nil
}

func (m *mockText) prompts(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.requests {
		if strings.HasPrefix(r.Prompt, prefix) {
			out = append(out, r.Prompt)
		}
	}
	return out
}

func (m *mockText) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type mockImage struct {
	generateFunc func(prompt string) ([]byte, error)
	prompts      []string
}

func (m *mockImage) GenerateCoverImage(ctx context.Context, prompt string) ([]byte, error) {
	m.prompts = append(m.prompts, prompt)
	if m.generateFunc != nil {
		return m.generateFunc(prompt)
	}
	return nil, nil
}

// memRepository is an in-memory Repository.
type memRepository struct {
	mu       sync.Mutex
	runs     map[string]data.Run
	chapters map[string]map[int]data.Chapter
}

func newMemRepository() *memRepository {
	return &memRepository{runs: map[string]data.Run{}, chapters: map[string]map[int]data.Chapter{}}
}

func (m *memRepository) SaveRun(run *data.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *run
	stored.Chapters = nil
	m.runs[run.ID] = stored
	return nil
}

func (m *memRepository) GetRun(id string) (*data.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", data.ErrRunNotFound, id)
	}
	for k := 1; k <= len(m.chapters[id]); k++ {
		run.Chapters = append(run.Chapters, m.chapters[id][k])
	}
	return &run, nil
}

func (m *memRepository) SaveChapter(runID string, chapter data.Chapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chapters[runID] == nil {
		m.chapters[runID] = map[int]data.Chapter{}
	}
	m.chapters[runID][chapter.Ordinal] = chapter
	return nil
}

func (m *memRepository) UpdateStatus(runID string, status data.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return data.ErrRunNotFound
	}
	run.Status = status
	m.runs[runID] = run
	return nil
}

var chapterNumber = regexp.MustCompile(`Write chapter (\d+) of the book`)

// scriptedBook answers every prompt kind the pipeline and assembler send.
// Chapters and titles come back with a conversational preamble.
func scriptedBook(req providers.TextRequest) (string, error) {
	p := req.Prompt
	switch {
	case strings.HasPrefix(p, "Create a detailed plot outline"):
		return "1. The call. 2. The chase. 3. The reveal.", nil
	case strings.HasPrefix(p, "Previous Chapters:"):
		k, _ := strconv.Atoi(chapterNumber.FindStringSubmatch(p)[1])
		return fmt.Sprintf("Here is chapter %d:\nRain fell on chapter %d.\nThe detective waited.", k, k), nil
	case strings.HasPrefix(p, "Here is the plot for the book:"):
		return "Here is a title:\nThe Long Rain", nil
	case strings.HasPrefix(p, "Plot:"):
		return "Here is the cover:\nA trench coat under a streetlight.", nil
	case strings.HasPrefix(p, "Chapter Content:"):
		m := regexp.MustCompile(`chapter (\d+)\.`).FindStringSubmatch(p)
		if m == nil {
			return "Untitled", nil
		}
		return "Here's a title:\nNight " + m[1], nil
	}
	return "", fmt.Errorf("unexpected prompt %q", p)
}

func createTestPNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 64, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func testRequest(chapters int) data.BookRequest {
	return data.BookRequest{
		Style:         "noir",
		Description:   "a detective in a rain-soaked city",
		Chapters:      chapters,
		MinParagraphs: 2,
	}
}

func testOptions() GenerationOptions {
	return GenerationOptions{
		Model:            "claude-3-haiku-20240307",
		MaxTokens:        2000,
		ChapterMaxTokens: 4000,
		Temperature:      0.7,
	}
}
