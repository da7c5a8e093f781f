package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/quest-weaver/internal/handlers"
	"github.com/jwebster45206/quest-weaver/pkg/session"
)

const PlaceHolderText = "What do you do?"

// Focus order: the four story fields, then the command box.
const (
	fieldPrompt = iota
	fieldSetting
	fieldCharacter
	fieldPlot
	fieldCommand
	fieldCount
)

var storyFieldLabels = [...]string{
	fieldPrompt:    "Prompt",
	fieldSetting:   "Setting",
	fieldCharacter: "Characters",
	fieldPlot:      "Plot",
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api          *APIClient
	session      *session.Session
	storyInputs  []textinput.Model
	command      textarea.Model
	focus        int
	chatViewport viewport.Model
	metaViewport viewport.Model
	spinner      spinner.Model
	ready        bool
	width        int
	height       int

	// busy is set while a backend call is in flight; every action is disabled.
	busy      bool
	busyLabel string

	status    string
	statusErr bool

	showQuitModal bool

	copyToClipboard func(string) error
}

type resultMsg struct {
	result *session.Result
	err    error
}

type copiedMsg struct {
	err error
}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Width(12)

	focusedLabelStyle = labelStyle.
				Foreground(lipgloss.Color("205")).
				Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func NewConsoleUI(api *APIClient, s *session.Session) ConsoleUI {
	inputs := make([]textinput.Model, fieldCommand)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 500
		inputs[i] = ti
	}
	inputs[fieldPrompt].Placeholder = "A heist in a floating city..."
	inputs[fieldSetting].Placeholder = "optional"
	inputs[fieldCharacter].Placeholder = "optional"
	inputs[fieldPlot].Placeholder = "optional"
	inputs[fieldPrompt].Focus()

	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loadingStyle

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	return ConsoleUI{
		api:             api,
		session:         s,
		storyInputs:     inputs,
		command:         ta,
		focus:           fieldPrompt,
		chatViewport:    chatVp,
		metaViewport:    viewport.New(20, 20),
		spinner:         sp,
		copyToClipboard: clipboard.WriteAll,
	}
}

// renderLine styles one transcript line and wraps it to width.
func renderLine(l session.Line, width int) string {
	if width < 10 {
		width = 10
	}
	text := wordwrap.String(l.String(), width)
	switch l.Kind {
	case session.LinePlayer:
		return userStyle.Render(text)
	case session.LineNarrator:
		return narratorStyle.Render(text)
	case session.LineError:
		return errorStyle.Render(text)
	case session.LinePrompt:
		return promptStyle.Render(text)
	default:
		return systemStyle.Render(text)
	}
}

func writeMetadata(s *session.Session) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	content.WriteString("Session ID:\n")
	content.WriteString(s.ID.String()[:8] + "...\n\n")

	content.WriteString("Phase:\n")
	content.WriteString(string(s.Phase) + "\n\n")

	content.WriteString("Difficulty:\n")
	content.WriteString(fmt.Sprintf("%d / %d\n\n", s.Difficulty, session.MaxDifficulty))

	if s.Progress != "" {
		content.WriteString("Progress:\n")
		content.WriteString(s.Progress + "\n\n")
	}

	if s.LastReasoning != "" {
		content.WriteString("Last adjustment:\n")
		content.WriteString(s.LastReasoning + "\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Tab: Next field\n")
	content.WriteString("• Ctrl+G: Generate\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• Ctrl+Y: Copy\n")
	content.WriteString("• /win, /lose\n")
	content.WriteString("• Esc: Quit\n")

	return content.String()
}

// writeChatContent rebuilds the transcript for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	width := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("QUEST WEAVER") + "\n\n")
	for _, l := range m.session.Transcript {
		content.WriteString(renderLine(l, width) + "\n\n")
	}
	if m.busy {
		content.WriteString(m.spinner.View() + " " + loadingStyle.Render(m.busyLabel) + "\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
	m.metaViewport.SetContent(wordwrap.String(writeMetadata(m.session), m.metaViewport.Width))
}

func (m ConsoleUI) Init() tea.Cmd {
	return textinput.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.chatViewport, cmd = m.chatViewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.writeChatContent()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.writeChatContent()
		return m, cmd

	case resultMsg:
		m.busy = false
		m.busyLabel = ""
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else if msg.result != nil && msg.result.Session != nil {
			m.session = msg.result.Session
			switch {
			case msg.result.Failed:
				m.setStatus("The narrator stumbled. Try again.", true)
			case msg.result.Skipped:
				m.setStatus("Nothing to send.", false)
			default:
				m.setStatus("", false)
			}
		}
		m.writeChatContent()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.setStatus("Copy failed: "+msg.err.Error(), true)
		} else {
			m.setStatus("Transcript copied to clipboard.", false)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlY:
			return m, m.copyTranscript()
		case tea.KeyTab:
			return m, m.setFocus((m.focus + 1) % fieldCount)
		case tea.KeyShiftTab:
			return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		case tea.KeyCtrlG:
			return m.generate()
		case tea.KeyEnter:
			if m.focus == fieldCommand {
				return m.send()
			}
			return m.generate()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.chatViewport, cmd = m.chatViewport.Update(msg)
			return m, cmd
		}
		if m.busy {
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == fieldCommand {
		m.command, cmd = m.command.Update(msg)
	} else {
		m.storyInputs[m.focus], cmd = m.storyInputs[m.focus].Update(msg)
	}
	return m, cmd
}

func (m *ConsoleUI) layout() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = max(m.height-len(m.storyInputs)-9, 3)
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 2
	m.command.SetWidth(chatWidth - 4)
	for i := range m.storyInputs {
		m.storyInputs[i].Width = chatWidth - 18
	}
}

func (m *ConsoleUI) setFocus(field int) tea.Cmd {
	m.focus = field
	m.command.Blur()
	for i := range m.storyInputs {
		m.storyInputs[i].Blur()
	}
	if field == fieldCommand {
		return m.command.Focus()
	}
	return m.storyInputs[field].Focus()
}

func (m *ConsoleUI) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// storyRequest builds the Bootstrap request. Blank preferences are left nil.
func (m ConsoleUI) storyRequest() handlers.StoryRequest {
	optional := func(field int) *string {
		v := strings.TrimSpace(m.storyInputs[field].Value())
		if v == "" {
			return nil
		}
		return &v
	}
	return handlers.StoryRequest{
		Prompt:               strings.TrimSpace(m.storyInputs[fieldPrompt].Value()),
		SettingPreferences:   optional(fieldSetting),
		CharacterPreferences: optional(fieldCharacter),
		PlotPreferences:      optional(fieldPlot),
	}
}

func (m ConsoleUI) generate() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	req := m.storyRequest()
	if req.Prompt == "" {
		m.setStatus("Enter a story prompt first.", true)
		return m, m.setFocus(fieldPrompt)
	}

	m.startBusy("Weaving your story...")
	api, id := m.api, m.session.ID
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		result, err := api.GenerateStory(context.Background(), id, req)
		return resultMsg{result: result, err: err}
	})
}

func (m ConsoleUI) send() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	// Commands go to the server as typed. Trimming is only for slash detection.
	raw := m.command.Value()
	m.command.Reset()
	if input := strings.TrimSpace(raw); strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	m.startBusy("The narrator is thinking...")
	api, id := m.api, m.session.ID
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		result, err := api.SendCommand(context.Background(), id, raw)
		return resultMsg{result: result, err: err}
	})
}

// handleCommand runs a console slash command.
func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(input) {
	case "/win", "/lose":
		success := strings.EqualFold(input, "/win")
		m.startBusy("Rebalancing the challenge...")
		api, id := m.api, m.session.ID
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			result, err := api.AdjustDifficulty(context.Background(), id, success)
			return resultMsg{result: result, err: err}
		})
	case "/copy":
		return m, m.copyTranscript()
	case "/help":
		m.setStatus("Tab moves between fields. Ctrl+G generates the story. /win or /lose reports a challenge.", false)
		return m, nil
	default:
		m.setStatus("Unknown command: "+input, true)
		return m, nil
	}
}

func (m *ConsoleUI) startBusy(label string) {
	m.busy = true
	m.busyLabel = label
	m.setStatus("", false)
	m.writeChatContent()
}

func (m ConsoleUI) copyTranscript() tea.Cmd {
	text := m.session.RenderTranscript()
	copyFn := m.copyToClipboard
	return func() tea.Msg {
		return copiedMsg{err: copyFn(text)}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case resultMsg, spinner.TickMsg, copiedMsg:
		// Keep in-flight work flowing behind the modal.
		m.showQuitModal = false
		model, cmd := m.Update(msg)
		ui := model.(ConsoleUI)
		ui.showQuitModal = true
		return ui, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		}
		switch msg.String() {
		case "y", "Y":
			return m, tea.Quit
		case "n", "N", "esc":
			m.showQuitModal = false
			return m, nil
		}
	}
	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderStoryForm() string {
	var rows []string
	for i, in := range m.storyInputs {
		label := labelStyle
		if i == m.focus {
			label = focusedLabelStyle
		}
		rows = append(rows, label.Render(storyFieldLabels[i]+":")+" "+in.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m ConsoleUI) renderStatus() string {
	switch {
	case m.busy:
		return m.spinner.View() + " " + loadingStyle.Render("Working... controls are disabled")
	case m.status == "":
		return ""
	case m.statusErr:
		return errorStyle.Render(m.status)
	default:
		return promptStyle.Render(m.status)
	}
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6
	rule := separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1)))

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.renderStoryForm(),
			rule,
			m.chatViewport.View(),
			rule,
			m.command.View(),
			m.renderStatus(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 1).Render(m.metaViewport.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}
