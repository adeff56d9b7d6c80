package app

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kerbaras/novelist/pkg/data"
)

var ErrCancelled = errors.New("cancelled by user")

type App struct {
	opts []tea.ProgramOption
}

func NewApp(opts ...tea.ProgramOption) *App {
	return &App{opts: opts}
}

// AskBookRequest runs the input form and returns what the operator entered.
func (a *App) AskBookRequest(initial data.BookRequest) (data.BookRequest, error) {
	p := tea.NewProgram(NewFormModel(initial), a.opts...)
	final, err := p.Run()
	if err != nil {
		return data.BookRequest{}, fmt.Errorf("failed to run input form: %w", err)
	}

	form, ok := final.(FormModel)
	if !ok || !form.Submitted() {
		return data.BookRequest{}, ErrCancelled
	}
	return form.Request()
}
