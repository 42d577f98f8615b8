// Package tui implements the terminal chat interface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/application/agents"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/application/sessions"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/config"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway/protocol"
)

type pageType int

const (
	pageHome pageType = iota
	pageSession
)

// Options configures TUI startup.
type Options struct {
	Gateway gateway.Gateway
	Config  *config.Config
	Logger  *slog.Logger
	Agent   string
	Session string
	Version string
}

type chatLine struct {
	Role      string
	Content   string
	Timestamp time.Time
}

type sessionEntry struct {
	Key          string
	Channel      string
	Model        string
	MessageCount int
	UpdatedAt    time.Time
}

type bootMsg struct {
	Sessions []sessionEntry
	Healthy  bool
	Version  string
	Err      error
}

type assistantMsg struct {
	Reply    string
	Activity []string
	Files    []string
	Err      error
	Duration time.Duration
}

// Model holds TUI state. The gateway connection is established before
// the program starts; boot only loads the session index.
type Model struct {
	opts    Options
	cfg     *config.Config
	runner  *agents.Manager
	sessMgr *sessions.Manager

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	lines []chatLine

	sessions       []sessionEntry
	currentSession string

	width  int
	height int
	ready  bool

	page           pageType
	pending        bool
	reachable      bool
	gatewayVersion string
	lastError      string
	lastRTT        time.Duration
	messageQueue   []string
	interrupt      int
}

// NewModel creates the TUI model over an already connected gateway.
func NewModel(opts Options) Model {
	if strings.TrimSpace(opts.Agent) == "" {
		opts.Agent = "main"
	}
	if strings.TrimSpace(opts.Session) == "" {
		opts.Session = "default"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	ta := textarea.New()
	ta.Placeholder = "Say anything... Ask the agent to fix a TODO"
	ta.Focus()
	ta.CharLimit = 10000
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.Prompt = ""

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(getTheme().primary)

	return Model{
		opts:           opts,
		cfg:            cfg,
		runner:         agents.NewManager(opts.Gateway, opts.Logger),
		sessMgr:        sessions.NewManager(opts.Gateway, opts.Logger),
		textarea:       ta,
		viewport:       vp,
		spinner:        sp,
		currentSession: buildSessionKey(opts.Agent, opts.Session),
		page:           pageHome,
		messageQueue:   make([]string, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, loadBootCmd(m.opts.Gateway, m.sessMgr))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case bootMsg:
		m.reachable = msg.Healthy
		m.gatewayVersion = msg.Version
		if msg.Err != nil {
			m.lastError = msg.Err.Error()
		}
		if len(msg.Sessions) > 0 {
			m.sessions = msg.Sessions
		}
		return m, nil

	case assistantMsg:
		m.pending = false
		m.lastRTT = msg.Duration

		for _, act := range msg.Activity {
			m.appendLine("activity", act)
		}
		if msg.Err != nil {
			m.lastError = msg.Err.Error()
			m.appendLine("system", "Error: "+msg.Err.Error())
		} else {
			reply := strings.TrimSpace(msg.Reply)
			if reply == "" {
				reply = "(empty response)"
			}
			m.appendLine("assistant", reply)
			for _, f := range msg.Files {
				m.appendLine("system", "Generated: "+f)
			}
		}
		m.updateViewport()

		// Drain queued messages one at a time.
		if len(m.messageQueue) > 0 {
			next := m.messageQueue[0]
			m.messageQueue = m.messageQueue[1:]
			m.pending = true
			m.appendLine("user", next)
			m.updateViewport()
			cmds = append(cmds, sendMessageCmd(m.runner, m.currentSession, m.opts.Agent, next))
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if m.pending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyEsc:
			if m.pending {
				m.interrupt++
				if m.interrupt >= 2 {
					m.pending = false
					m.interrupt = 0
					m.appendLine("system", "Interrupted.")
					m.updateViewport()
				}
				return m, nil
			}
			return m, tea.Quit

		case tea.KeyEnter:
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" {
				return m, nil
			}
			m.textarea.Reset()
			m.textarea.SetHeight(1)
			m.lastError = ""
			m.interrupt = 0

			if m.page == pageHome {
				m.page = pageSession
			}

			if strings.HasPrefix(text, "/") {
				cmdName, args := parseCommand(text)
				if cmd := findCommand(cmdName); cmd != nil {
					result, err := cmd.Handler(&m, args)
					if err != nil {
						m.appendLine("system", "Error: "+err.Error())
					} else if result == "__QUIT__" {
						return m, tea.Quit
					} else if result == "__RELOAD__" {
						return m, loadBootCmd(m.opts.Gateway, m.sessMgr)
					} else if result != "" {
						m.appendLine("system", result)
					}
					m.updateViewport()
					return m, nil
				}
				m.appendLine("system", "Unknown command: "+cmdName)
				m.updateViewport()
				return m, nil
			}

			if m.pending {
				m.messageQueue = append(m.messageQueue, text)
				return m, nil
			}

			m.pending = true
			m.appendLine("user", text)
			m.updateViewport()
			cmds = append(cmds, sendMessageCmd(m.runner, m.currentSession, m.opts.Agent, text))
			cmds = append(cmds, m.spinner.Tick)
			return m, tea.Batch(cmds...)
		}
	}

	var tiCmd tea.Cmd
	m.textarea, tiCmd = m.textarea.Update(msg)
	cmds = append(cmds, tiCmd)

	if m.page == pageSession {
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	switch m.page {
	case pageSession:
		return m.renderSessionPage()
	default:
		return m.renderHomePage()
	}
}

func (m *Model) renderHomePage() string {
	theme := getTheme()
	var b strings.Builder

	topPadding := (m.height - 12) / 2
	if topPadding < 2 {
		topPadding = 2
	}
	b.WriteString(strings.Repeat("\n", topPadding))

	b.WriteString(renderLogo(m.width))
	b.WriteString("\n")

	inputWidth := min(75, m.width-4)
	padding := (m.width - inputWidth) / 2
	if padding < 0 {
		padding = 0
	}

	leftBorder := lipgloss.NewStyle().Foreground(theme.primary).Render("┃ ")
	b.WriteString(strings.Repeat(" ", padding) + leftBorder + m.textarea.View() + "\n")
	bottomBorder := lipgloss.NewStyle().Foreground(theme.primary).Render("╹")
	b.WriteString(strings.Repeat(" ", padding) + bottomBorder + "\n")

	status := "offline"
	if m.reachable {
		status = "connected"
		if m.gatewayVersion != "" {
			status += " " + m.gatewayVersion
		}
	}
	info := lipgloss.NewStyle().Foreground(theme.textMuted).Render(
		fmt.Sprintf("%s  %s  %s", renderMiniLogo(), m.opts.Agent, status))
	b.WriteString(strings.Repeat(" ", padding+2) + info + "\n")

	hints := lipgloss.NewStyle().Foreground(theme.textMuted).Render("/help commands  esc quit")
	b.WriteString(strings.Repeat(" ", padding+2) + hints + "\n")

	currentLines := strings.Count(b.String(), "\n") + 1
	remaining := m.height - currentLines - 2
	if remaining > 0 {
		b.WriteString(strings.Repeat("\n", remaining))
	}

	b.WriteString("\n" + m.renderFooter())

	return b.String()
}

func (m *Model) renderSessionPage() string {
	theme := getTheme()
	var b strings.Builder

	b.WriteString(m.renderSessionHeader())
	b.WriteString("\n")

	chatHeight := m.height - 7
	if chatHeight < 5 {
		chatHeight = 5
	}
	m.viewport.Height = chatHeight
	m.viewport.Width = m.width - 4
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(m.viewport.View()))
	b.WriteString("\n")

	leftBorder := lipgloss.NewStyle().Foreground(theme.primary).Render("┃ ")
	var inputContent string
	if m.pending {
		inputContent = m.spinner.View() + " "
		if len(m.messageQueue) > 0 {
			inputContent += fmt.Sprintf("(%d queued) ", len(m.messageQueue))
		}
	} else {
		inputContent = m.textarea.View()
	}
	b.WriteString("  " + leftBorder + inputContent + "\n")
	bottomBorder := lipgloss.NewStyle().Foreground(theme.primary).Render("╹")
	b.WriteString("  " + bottomBorder + "\n")

	b.WriteString(m.renderSessionFooter())

	return b.String()
}

func (m *Model) renderSessionHeader() string {
	theme := getTheme()

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.text).Render(
		"# " + lastSegment(m.currentSession))

	right := ""
	if m.lastRTT > 0 {
		right = m.lastRTT.Round(time.Millisecond).String()
	}
	rightStyled := lipgloss.NewStyle().Foreground(theme.textMuted).Render(right)

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(rightStyled) - 4
	if gap < 1 {
		gap = 1
	}

	content := title + strings.Repeat(" ", gap) + rightStyled
	leftBorder := lipgloss.NewStyle().Foreground(theme.border).Render("┃")

	return "  " + leftBorder + " " + content
}

func (m *Model) renderFooter() string {
	theme := getTheme()

	left := lipgloss.NewStyle().Foreground(theme.textMuted).Render(m.cfg.Gateway.URL)
	right := lipgloss.NewStyle().Foreground(theme.textMuted).Render(m.opts.Version)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return "  " + left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderSessionFooter() string {
	theme := getTheme()

	var leftParts []string
	if m.pending {
		active := lipgloss.NewStyle().
			Background(theme.primary).
			Foreground(lipgloss.Color("#000000")).
			Padding(0, 1).
			Render("ACTIVE")
		leftParts = append(leftParts, active)

		escHint := "esc "
		if m.interrupt > 0 {
			escHint += lipgloss.NewStyle().Foreground(theme.primary).Render("again to interrupt")
		} else {
			escHint += lipgloss.NewStyle().Foreground(theme.textMuted).Render("interrupt")
		}
		leftParts = append(leftParts, escHint)
	}
	left := strings.Join(leftParts, " ")

	hints := lipgloss.NewStyle().Foreground(theme.textMuted).Render("/help commands")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(hints) - 4
	if gap < 1 {
		gap = 1
	}

	return "  " + left + strings.Repeat(" ", gap) + hints
}

func (m *Model) resize() {
	m.viewport.Width = m.width - 4
	m.viewport.Height = m.height - 8
	m.textarea.SetWidth(min(70, m.width-10))
}

func (m *Model) appendLine(role, content string) {
	m.lines = append(m.lines, chatLine{
		Role:      role,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now(),
	})
}

func (m *Model) updateViewport() {
	theme := getTheme()
	var b strings.Builder

	for i, line := range m.lines {
		switch line.Role {
		case "user":
			border := lipgloss.NewStyle().Foreground(theme.primary).Render("┃")
			content := lipgloss.NewStyle().Foreground(theme.text).Render(line.Content)
			b.WriteString(border + " " + content)

		case "assistant":
			label := lipgloss.NewStyle().Foreground(theme.textMuted).Render("▶ " + m.opts.Agent)
			b.WriteString(label + "\n")
			content := lipgloss.NewStyle().Foreground(theme.text).Width(m.viewport.Width - 2).Render(line.Content)
			b.WriteString(content)

		case "activity":
			content := lipgloss.NewStyle().Foreground(theme.textMuted).Render("  " + line.Content)
			b.WriteString(content)

		case "system":
			content := lipgloss.NewStyle().Foreground(theme.textMuted).Italic(true).Render(line.Content)
			b.WriteString(content)
		}
		if i < len(m.lines)-1 {
			b.WriteString("\n\n")
		}
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) startNewSession() {
	m.lines = nil
	newKey := buildSessionKey(m.opts.Agent, fmt.Sprintf("session-%d", time.Now().Unix()%100000))
	m.currentSession = newKey
	m.page = pageHome
}

func loadBootCmd(gw gateway.Gateway, sessMgr *sessions.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		health := gw.Health(ctx)
		list, err := sessMgr.List(ctx)

		entries := make([]sessionEntry, 0, len(list))
		for _, s := range list {
			entries = append(entries, sessionEntry{
				Key:          s.Key,
				Channel:      s.Channel,
				Model:        s.Model,
				MessageCount: s.MessageCount,
				UpdatedAt:    time.UnixMilli(s.LastActivityAt),
			})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
		})
		return bootMsg{Sessions: entries, Healthy: health.Healthy, Version: health.Version, Err: err}
	}
}

func sendMessageCmd(runner *agents.Manager, sessionKey, agentID, message string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		var activity []string
		res, err := runner.Run(ctx, sessionKey, message, agents.RunOptions{
			AgentID: agentID,
			OnEvent: func(ev gateway.StreamEvent) {
				if ev.Type != protocol.EventToolCall {
					return
				}
				if name, ok := ev.Data["name"].(string); ok {
					activity = append(activity, "⚙ "+name)
				}
			},
		})
		if err != nil {
			return assistantMsg{Err: err, Activity: activity, Duration: time.Since(start)}
		}
		return assistantMsg{
			Reply:    res.Reply,
			Activity: activity,
			Files:    res.Files,
			Duration: time.Since(start),
		}
	}
}

func buildSessionKey(agentID, sessionName string) string {
	if strings.HasPrefix(sessionName, "agent:") {
		return sessionName
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		agentID = "main"
	}
	sessionName = strings.TrimSpace(sessionName)
	if sessionName == "" {
		sessionName = "default"
	}
	return fmt.Sprintf("agent:%s:%s", agentID, sessionName)
}

func lastSegment(s string) string {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 {
		return s
	}
	return parts[len(parts)-1]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Since(t)
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}

// Run starts the TUI over gw, which must already be connected.
func Run(opts Options) error {
	p := tea.NewProgram(
		NewModel(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
