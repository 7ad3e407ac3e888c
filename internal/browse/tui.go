// Package browse is the terminal UI over stored jobs: a platform picker, a
// paged list backed by the query engine, and a detail view.
package browse

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/amishk599/gigfinder/internal/model"
	"github.com/amishk599/gigfinder/internal/query"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

const queryTimeout = 10 * time.Second

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	descBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Options configure one browse session.
type Options struct {
	Engine   *query.Engine
	Term     string
	Platform model.Platform
	PageSize int
	// Refresh, when set, scrapes term live and reports how many records were
	// newly stored. It is bound to the "r" key.
	Refresh func(ctx context.Context, term string) (int, error)
	// RefreshTimeout bounds one Refresh call.
	RefreshTimeout time.Duration
}

type pageLoadedMsg struct {
	page query.Page
	err  error
}

type refreshDoneMsg struct {
	added int
	err   error
}

type browseModel struct {
	engine         *query.Engine
	req            query.Request
	page           query.Page
	refresh        func(ctx context.Context, term string) (int, error)
	refreshTimeout time.Duration

	listViewport   viewport.Model
	detailViewport viewport.Model
	input          textinput.Model
	editing        bool
	cursor         int
	width          int
	height         int
	ready          bool

	view      viewState
	detailJob model.Job
	loading   bool
	status    string
	errText   string

	wantQuit bool
	now      func() time.Time
}

func newBrowseModel(opts Options) browseModel {
	in := textinput.New()
	in.Prompt = "search: "
	in.Placeholder = "keywords"
	in.SetValue(opts.Term)
	in.CharLimit = 120

	timeout := opts.RefreshTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return browseModel{
		engine:         opts.Engine,
		req:            query.Request{Term: opts.Term, Platform: opts.Platform, Limit: opts.PageSize},
		refresh:        opts.Refresh,
		refreshTimeout: timeout,
		input:          in,
		loading:        true,
		now:            time.Now,
	}
}

func (m browseModel) Init() tea.Cmd {
	return m.loadPage()
}

func (m browseModel) loadPage() tea.Cmd {
	engine, req := m.engine, m.req
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()
		page, err := engine.Query(ctx, req)
		return pageLoadedMsg{page: page, err: err}
	}
}

func (m browseModel) runRefresh() tea.Cmd {
	refresh, term, timeout := m.refresh, m.req.Term, m.refreshTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		added, err := refresh(ctx, term)
		return refreshDoneMsg{added: added, err: err}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case pageLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errText = fmt.Sprintf("query failed: %v", msg.err)
			return m, nil
		}
		m.errText = ""
		m.page = msg.page
		// keep the window the engine normalized to
		m.req.Offset = msg.page.Offset
		m.req.Limit = msg.page.Limit
		m.cursor = clamp(m.cursor, 0, max(len(m.page.Jobs)-1, 0))
		m.recalcContent()
		return m, nil

	case refreshDoneMsg:
		if msg.err != nil {
			m.loading = false
			m.errText = fmt.Sprintf("scrape failed: %v", msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("scraped: %d new", msg.added)
		m.req.Offset = 0
		m.cursor = 0
		return m, m.loadPage()

	case tea.KeyMsg:
		if m.editing {
			return m.updateSearchInput(msg)
		}
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.input.Blur()
		m.req.Term = strings.TrimSpace(m.input.Value())
		m.req.Offset = 0
		m.cursor = 0
		m.loading = true
		return m, m.loadPage()
	case "esc":
		m.editing = false
		m.input.Blur()
		m.input.SetValue(m.req.Term)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.page.Jobs)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.page.Jobs)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "n", "right":
		if m.loading || !m.page.HasMore() {
			return m, nil
		}
		m.req.Offset += m.req.Limit
		m.cursor = 0
		m.loading = true
		return m, m.loadPage()
	case "p", "left":
		if m.loading || m.req.Offset == 0 {
			return m, nil
		}
		m.req.Offset = max(m.req.Offset-m.req.Limit, 0)
		m.cursor = 0
		m.loading = true
		return m, m.loadPage()
	case "/":
		m.editing = true
		return m, m.input.Focus()
	case "r":
		if m.refresh == nil || m.loading || m.req.Term == "" {
			return m, nil
		}
		m.loading = true
		m.status = "scraping..."
		return m, m.runRefresh()
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the viewport.
	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detailJob.URL)
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m browseModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.page.Jobs) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detailJob = m.page.Jobs[m.cursor]
	m.detailViewport = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *browseModel) ensureCursorVisible() {
	vp := &m.listViewport
	cursorTop := m.cursor * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m *browseModel) recalcLayout() {
	width := max(m.width-4, 20)
	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	height := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.listViewport.Width = width
		m.listViewport.Height = height
	}
	if m.view == viewDetail {
		m.detailViewport.Width = width
		m.detailViewport.Height = height
		m.detailViewport.SetContent(m.renderDetail())
	}
	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.listViewport.SetContent(renderJobs(m.page.Jobs, m.cursor, m.now()))
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	header := headerStyle.Render(m.headerText())
	if m.editing {
		header = m.input.View()
	}

	pane := borderStyle.Width(m.listViewport.Width).Render(m.listViewport.View())

	statusText := " ↑/↓ cursor  n/p page  / search  enter detail  esc back  q quit"
	if m.refresh != nil {
		statusText = " ↑/↓ cursor  n/p page  / search  r scrape  enter detail  esc back  q quit"
	}
	if m.errText != "" {
		statusText = " " + m.errText
	} else if m.status != "" {
		statusText = " " + m.status + "  |" + statusText
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return header + "\n" + pane + "\n" + statusBar
}

func (m browseModel) headerText() string {
	platform := string(m.req.Platform)
	if platform == "" {
		platform = "All platforms"
	}
	term := m.req.Term
	if term == "" {
		term = "*"
	}
	text := fmt.Sprintf("%s · %q · %s", platform, term, pageLabel(m.page))
	if m.loading {
		text += "  (loading...)"
	}
	return text
}

// pageLabel renders "1-50 of 120" style paging info.
func pageLabel(p query.Page) string {
	if p.Total == 0 || len(p.Jobs) == 0 {
		return fmt.Sprintf("0 of %d", p.Total)
	}
	return fmt.Sprintf("%d-%d of %d", p.Offset+1, p.Offset+len(p.Jobs), p.Total)
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	content := borderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	statusBar := statusBarStyle.Width(m.width).Render(" o open URL  esc/backspace back  ↑/↓ scroll  q quit")
	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	j := m.detailJob
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", j.Title)
	addField("Platform", string(j.Platform))
	addField("Budget", j.Budget)
	addField("ID", j.ExternalID)
	b.WriteByte('\n')
	addField("Posted", j.PostedAt)
	if !j.CreatedAt.IsZero() {
		addField("Stored", humanize.RelTime(j.CreatedAt, m.now(), "ago", "from now"))
	}
	b.WriteByte('\n')
	addField("URL", j.URL)

	if j.Description != "" {
		wrapWidth := max(m.width-8, 20)
		label := "── Description "
		fill := strings.Repeat("─", max(wrapWidth-len([]rune(label)), 3))
		b.WriteByte('\n')
		b.WriteString(descDividerStyle.Render(label+fill) + "\n\n")
		b.WriteString(descBodyStyle.Render(wordWrap(j.Description, wrapWidth)) + "\n")
	}

	if m.errText != "" {
		b.WriteByte('\n')
		b.WriteString(errorStyle.Render("⚠ "+m.errText) + "\n")
	}
	return b.String()
}

func renderJobs(jobs []model.Job, cursor int, now time.Time) string {
	if len(jobs) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		titleSt := jobTitleStyle
		subtitleSt := jobSubtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedJobTitleStyle
			subtitleSt = selectedJobSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(j.Title))
		b.WriteByte('\n')

		stored := "n/a"
		if !j.CreatedAt.IsZero() {
			stored = humanize.RelTime(j.CreatedAt, now, "ago", "from now")
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", j.Platform, j.Budget, stored)))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the browser. It returns wantQuit=true if the user pressed
// q/ctrl+c, false if they pressed esc to return to the picker.
func Run(opts Options) (bool, error) {
	p := tea.NewProgram(newBrowseModel(opts), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(browseModel)
	return final.wantQuit, nil
}
