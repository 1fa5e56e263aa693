package model

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/smart715/jobsify/pkg/session"
	"github.com/smart715/jobsify/pkg/ui"
	v1 "github.com/smart715/jobsify/pkg/types/v1"
)

const fieldCharacterLimit = 256

// formModel is one text input per field of the open edit session.
type formModel struct {
	common     *commonModel
	fields     []session.Field
	inputs     []textinput.Model
	focus      int
	submitting bool
}

func newFormModel(common *commonModel, fields []session.Field, draft map[string]string) (formModel, tea.Cmd) {
	m := formModel{
		common: common,
		fields: fields,
		inputs: make([]textinput.Model, len(fields)),
	}
	for i, f := range fields {
		ti := textinput.New()
		ti.Prompt = "› "
		ti.PromptStyle = promptStyle
		ti.Cursor.Style = cursorStyle
		ti.Placeholder = placeholder(f)
		ti.CharLimit = fieldCharacterLimit
		ti.Width = max(10, common.width-30)
		ti.SetValue(draft[f.Name])
		ti.CursorEnd()
		m.inputs[i] = ti
	}
	return m, m.focusField(0)
}

func placeholder(f session.Field) string {
	switch f.Kind {
	case session.KindBool:
		return "yes / no"
	case session.KindDate:
		return "YYYY-MM-DD"
	case session.KindNumber:
		return "0"
	}
	return ""
}

func (m *formModel) focusField(i int) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	i = (i + len(m.inputs)) % len(m.inputs)
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.focus = i
	return m.inputs[i].Focus()
}

func (m *formModel) next() tea.Cmd { return m.focusField(m.focus + 1) }
func (m *formModel) prev() tea.Cmd { return m.focusField(m.focus - 1) }

// updateInput feeds msg to the focused input and reports the field whose
// value changed, if any.
func (m *formModel) updateInput(msg tea.Msg) (tea.Cmd, string, bool) {
	if len(m.inputs) == 0 {
		return nil, "", false
	}
	in := &m.inputs[m.focus]
	before := in.Value()
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	if in.Value() == before {
		return cmd, "", false
	}
	return cmd, m.fields[m.focus].Name, true
}

func (m *formModel) value(i int) string { return m.inputs[i].Value() }

func (m formModel) view(s session.Session[v1.Record], label string, spinner string) string {
	var b strings.Builder

	title := "New " + label
	if s.Mode == session.Editing {
		title = fmt.Sprintf("Edit %s %s", label, s.ID)
	}
	fmt.Fprintf(&b, "%s\n\n", logoView(title))

	// Field errors are shown next to their inputs, anything else on top.
	if s.Err != nil && len(s.Errors) == 0 {
		fmt.Fprintf(&b, "%s\n\n", ui.RedText(s.Message()))
	}

	for i, f := range m.fields {
		fmt.Fprintf(&b, "%s%s\n", ui.Label.Render(f.DisplayLabel()), m.inputs[i].View())
		if msg, ok := s.Errors[f.Name]; ok {
			fmt.Fprintf(&b, "%s\n", ui.FieldErr.Render(msg))
		}
	}

	if m.submitting {
		fmt.Fprintf(&b, "\n%s Saving…\n", spinner)
	}
	return b.String()
}
