package browse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned by RunLoader when the user pressed ctrl+c.
var ErrCancelled = errors.New("cancelled")

type loadDoneMsg[T any] struct {
	value T
	err   error
}

type loaderModel[T any] struct {
	label   string
	timeout time.Duration
	fn      func(ctx context.Context) (T, error)
	cancel  context.CancelFunc
	ctx     context.Context
	spinner spinner.Model
	result  T
	err     error
	done    bool
}

func newLoaderModel[T any](parent context.Context, label string, timeout time.Duration, fn func(ctx context.Context) (T, error)) loaderModel[T] {
	ctx, cancel := context.WithTimeout(parent, timeout)
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("33"))),
	)
	return loaderModel[T]{label: label, timeout: timeout, fn: fn, ctx: ctx, cancel: cancel, spinner: sp}
}

func (m loaderModel[T]) Init() tea.Cmd {
	return tea.Batch(m.run(), m.spinner.Tick)
}

func (m loaderModel[T]) run() tea.Cmd {
	fn, ctx := m.fn, m.ctx
	return func() tea.Msg {
		v, err := fn(ctx)
		return loadDoneMsg[T]{value: v, err: err}
	}
}

func (m loaderModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg[T]:
		m.result = msg.value
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.done = true
			m.err = ErrCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel[T]) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s...\n", m.spinner.View(), m.label)
}

// RunLoader shows a spinner labelled label while fn runs, bounded by
// timeout and by ctx. It renders inline (no alt screen).
func RunLoader[T any](ctx context.Context, label string, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	m := newLoaderModel(ctx, label, timeout, fn)
	defer m.cancel()

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		var zero T
		return zero, err
	}
	final := result.(loaderModel[T])
	return final.result, final.err
}
