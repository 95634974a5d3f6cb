package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/accounts/abi"

	evmcaller "github.com/wippyai/evm-caller"
	"github.com/wippyai/evm-caller/contract"
	"github.com/wippyai/evm-caller/invoke"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	methodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	writeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectMethod modelState = iota
	stateInputArgs
	stateConfirmWrite
	stateCalling
	stateShowResult
)

type interactiveModel struct {
	err      error
	session  *evmcaller.Session
	contract *contract.Contract
	methods  []abi.Method
	inputs   []textinput.Model
	result   string
	selected int
	focusIdx int
	state    modelState
}

type callResultMsg struct {
	err     error
	outcome invoke.Outcome
	method  abi.Method
}

func newInteractiveModel(session *evmcaller.Session, contractName string) (*interactiveModel, error) {
	c, err := session.Contract(contractName)
	if err != nil {
		return nil, err
	}
	return &interactiveModel{
		session:  session,
		contract: c,
		methods:  c.Methods(contract.KindAll),
		state:    stateSelectMethod,
	}, nil
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state == stateSelectMethod || m.state == stateShowResult {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectMethod && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectMethod && m.selected < len(m.methods)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectMethod:
				method := m.methods[m.selected]
				m.prepareInputs(method)
				if len(m.inputs) == 0 {
					return m.advanceToCall(method)
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m.advanceToCall(m.methods[m.selected])

			case stateShowResult:
				m.state = stateSelectMethod
				m.result = ""
				m.err = nil
			}

		case "y", "Y":
			if m.state == stateConfirmWrite {
				m.state = stateCalling
				return m, m.callMethod
			}

		case "n", "N":
			if m.state == stateConfirmWrite {
				m.state = stateSelectMethod
				m.inputs = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs, stateConfirmWrite:
				m.state = stateSelectMethod
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectMethod
				m.result = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.err = msg.err
		if msg.err == nil {
			m.result = renderOutcome(msg.method, msg.outcome)
			if msg.outcome.Err != nil {
				m.err = msg.outcome.Err
			}
		}
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// advanceToCall routes through the write confirmation step when needed.
func (m *interactiveModel) advanceToCall(method abi.Method) (tea.Model, tea.Cmd) {
	if !invoke.IsRead(method) {
		m.state = stateConfirmWrite
		return m, nil
	}
	m.state = stateCalling
	return m, m.callMethod
}

func (m *interactiveModel) prepareInputs(method abi.Method) {
	m.inputs = make([]textinput.Model, len(method.Inputs))
	for i, arg := range method.Inputs {
		name := arg.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		ti := textinput.New()
		ti.Placeholder = arg.Type.String()
		ti.Prompt = name + ": "
		ti.Width = 60
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callMethod() tea.Msg {
	method := m.methods[m.selected]

	raw := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		raw[i] = input.Value()
	}

	outcome, err := m.session.Invoke(context.Background(), m.contract.Name, method.Name, raw)
	if err != nil {
		return callResultMsg{err: err, method: method}
	}
	return callResultMsg{outcome: outcome, method: method}
}

func renderOutcome(method abi.Method, outcome invoke.Outcome) string {
	switch outcome.Status {
	case invoke.StatusReadResult:
		if len(outcome.Values) == 0 {
			return "(no return values)"
		}
		parts := make([]string, len(outcome.Values))
		for i, v := range outcome.Values {
			parts[i] = formatValue(v)
		}
		return strings.Join(parts, "\n")
	case invoke.StatusWriteSubmitted:
		return "Submitted: " + outcome.TxHash.Hex()
	case invoke.StatusWriteConfirmed:
		s := "Confirmed: " + outcome.TxHash.Hex()
		if outcome.Receipt != nil {
			s += fmt.Sprintf("\nblock %s, gas used %d",
				outcome.Receipt.BlockNumber, outcome.Receipt.GasUsed)
		}
		return s
	case invoke.StatusWriteTimedOut:
		return "Timed out waiting for " + outcome.TxHash.Hex() +
			"\nThe transaction may still confirm later."
	default:
		return ""
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("EVM Caller"))
	b.WriteString(fmt.Sprintf(" %s @ %s (%s)\n\n",
		m.contract.Name, m.contract.Address.Hex(), m.session.ChainInfo.Name))

	switch m.state {
	case stateSelectMethod:
		b.WriteString("Select a method to call:\n\n")
		for i, method := range m.methods {
			line := m.formatMethod(method)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		method := m.methods[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", methodStyle.Render(method.Name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(method.Inputs[i].Type.String()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateConfirmWrite:
		method := m.methods[m.selected]
		b.WriteString(writeStyle.Render(fmt.Sprintf(
			"About to send %s as a transaction.", method.Sig)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("y confirm • n/esc back"))

	case stateCalling:
		b.WriteString("Calling " + methodStyle.Render(m.methods[m.selected].Name) + "...")

	case stateShowResult:
		method := m.methods[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", methodStyle.Render(method.Name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatMethod(method abi.Method) string {
	var params []string
	for i, arg := range method.Inputs {
		name := arg.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		params = append(params, name+": "+typeStyle.Render(arg.Type.String()))
	}
	var outputs []string
	for _, out := range method.Outputs {
		outputs = append(outputs, typeStyle.Render(out.Type.String()))
	}
	result := ""
	if len(outputs) > 0 {
		result = " -> " + strings.Join(outputs, ", ")
	}

	tag := methodStyle
	if !invoke.IsRead(method) {
		tag = writeStyle
	}
	return tag.Render(method.Name) + "(" + strings.Join(params, ", ") + ")" + result
}

func runInteractive(session *evmcaller.Session, contractName string) error {
	model, err := newInteractiveModel(session, contractName)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
