package services

import (
	"fmt"
	"strings"

	"github.com/kerbaras/novelist/pkg/data"
)

func outlinePrompt(req data.BookRequest) string {
	return fmt.Sprintf("Create a detailed plot outline for a %d-chapter book in the %s style, based on the following description:\n\n%s\n\nEach chapter should be at least %d paragraphs long.",
		req.Chapters, req.Style, req.Description, req.MinParagraphs)
}

// chapterPrompt conditions chapter k on every chapter written before it,
// verbatim and in order.
func chapterPrompt(req data.BookRequest, outline data.Outline, previous []data.Chapter, k int) string {
	prior := make([]string, len(previous))
	for i, ch := range previous {
		prior[i] = ch.Content
	}
	return fmt.Sprintf("Previous Chapters:\n\n%s\n\nWriting style: `%s`\n\nPlot Outline:\n\n%s\n\nWrite chapter %d of the book, ensuring it follows the plot outline and builds upon the previous chapters. The chapter should be at least %d paragraphs long.",
		strings.Join(prior, " "), req.Style, outline, k, req.MinParagraphs)
}

func titlePrompt(outline data.Outline) string {
	return fmt.Sprintf("Here is the plot for the book: %s\n\n--\n\nRespond with a great title for this book. Only respond with the title, nothing else is allowed.", outline)
}

func coverPromptPrompt(outline data.Outline) string {
	return fmt.Sprintf("Plot: %s\n\n--\n\nDescribe the cover we should create, based on the plot. This should be two sentences long, maximum.", outline)
}

func chapterTitlePrompt(content string) string {
	return fmt.Sprintf("Chapter Content:\n\n%s\n\n--\n\nGenerate a concise and engaging title for this chapter based on its content. Respond with the title only, nothing else.", content)
}
