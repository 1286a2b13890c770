package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/projectbackdoor/game-server/pkg/protocol"
)

const (
	NarratorName    = "Narrator"
	PlaceHolderText = "What do you do?"
)

// transcriptEntry is one line of the session transcript.
type transcriptEntry struct {
	speaker string // empty for narration
	text    string
	isUser  bool
	isError bool
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	conn         wsConn
	transcript   []transcriptEntry
	sceneID      string
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	sent         int

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

// wsConn is the slice of the websocket connection the UI needs.
type wsConn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
}

type serverMsg struct {
	out protocol.Outbound
	err error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

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
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, conn wsConn) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		conn:         conn,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		ready:        false,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.waitForServer(), textarea.Blink)
}

// waitForServer blocks on the next message from the game server.
func (m ConsoleUI) waitForServer() tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		var out protocol.Outbound
		if err := conn.ReadJSON(&out); err != nil {
			return serverMsg{err: err}
		}
		return serverMsg{out: out}
	}
}

func (m ConsoleUI) sendInput(input string) tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		payload, err := json.Marshal(protocol.ProcessInputPayload{InputText: input})
		if err != nil {
			return serverMsg{err: fmt.Errorf("failed to marshal input: %w", err)}
		}
		if err := conn.WriteJSON(protocol.Inbound{
			Command: protocol.CommandProcessInput,
			Payload: payload,
		}); err != nil {
			return serverMsg{err: fmt.Errorf("failed to send input: %w", err)}
		}
		return nil
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.sent++

			m.transcript = append(m.transcript, transcriptEntry{text: input, isUser: true})
			m.writeChatContent()
			m.metaViewport.SetContent(m.writeMetadata())

			return m, tea.Batch(m.sendInput(input), progressTick())
		}

	case serverMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.transcript = append(m.transcript, transcriptEntry{
				text:    "Connection lost: " + msg.err.Error(),
				isError: true,
			})
			m.writeChatContent()
			return m, nil
		}

		m.transcript = append(m.transcript, m.entryFor(msg.out))
		if msg.out.Type == protocol.TypeSceneChange {
			if id, ok := msg.out.Payload["new_scene_id"].(string); ok {
				m.sceneID = id
			}
		}
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, m.waitForServer()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// entryFor flattens an outbound message into a transcript entry.
func (m ConsoleUI) entryFor(out protocol.Outbound) transcriptEntry {
	str := func(key string) string {
		s, _ := out.Payload[key].(string)
		return s
	}

	switch out.Type {
	case protocol.TypeDescription:
		return transcriptEntry{text: str("description")}
	case protocol.TypeDialogue:
		return transcriptEntry{speaker: str("speaker"), text: str("line")}
	case protocol.TypeSceneChange:
		return transcriptEntry{text: str("new_description")}
	case protocol.TypeError:
		return transcriptEntry{text: str("message"), isError: true}
	default:
		return transcriptEntry{text: fmt.Sprintf("Unrecognized message type: %s", out.Type), isError: true}
	}
}

// lastNarration returns the most recent non-user transcript text, used
// by the /copy command.
func (m ConsoleUI) lastNarration() string {
	for i := len(m.transcript) - 1; i >= 0; i-- {
		entry := m.transcript[i]
		if !entry.isUser && !entry.isError {
			return entry.text
		}
	}
	return ""
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /copy - Copy the last response to the clipboard
• Ctrl+C - Quit game

How to play:
• Type your actions and press Enter
• "go north" (or just "n") moves between scenes
• Talk to characters, examine things, try stuff
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/copy":
		var note string
		if text := m.lastNarration(); text == "" {
			note = errorStyle.Render("Nothing to copy yet.")
		} else if err := clipboard.WriteAll(text); err != nil {
			note = errorStyle.Render("Copy failed: " + err.Error())
		} else {
			note = promptStyle.Render("Copied last response to clipboard.")
		}
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + note + "\n")
		m.chatViewport.GotoBottom()
	}

	m.textarea.Reset()
	return m, nil
}

// writeChatContent rebuilds the transcript for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 10 {
		chatWidth = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("PROJECT: BACKDOOR") + "\n\n")
	content.WriteString("Type your actions below to play.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, entry := range m.transcript {
		switch {
		case entry.isUser:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(entry.text, chatWidth-6) + "\n\n")
		case entry.isError:
			content.WriteString(errorStyle.Render(wordwrap.String(entry.text, chatWidth)) + "\n\n")
		case entry.speaker != "":
			line := speakerStyle.Render(displaySpeaker(entry.speaker)+": ") + wordwrap.String(entry.text, chatWidth-len(entry.speaker)-2)
			content.WriteString(line + "\n\n")
		default:
			line := narratorStyle.Render(NarratorName+": ") + wordwrap.String(entry.text, chatWidth-len(NarratorName)-2)
			content.WriteString(line + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// displaySpeaker trims the npc_ prefix for readability.
func displaySpeaker(speaker string) string {
	trimmed := strings.TrimPrefix(speaker, "npc_")
	return strings.ReplaceAll(trimmed, "_", " ")
}

func (m ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	content.WriteString("Server:\n")
	content.WriteString(m.config.ServerURL + "\n\n")

	content.WriteString("Scene:\n")
	if m.sceneID != "" {
		content.WriteString(m.sceneID + "\n\n")
	} else {
		content.WriteString("(starting scene)\n\n")
	}

	content.WriteString("Inputs sent:\n")
	content.WriteString(fmt.Sprintf("%d total\n\n", m.sent))

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /copy: Copy last\n")

	return content.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
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

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Connecting..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
