package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/styles"
)

// FormField identifies a field of the search form.
type FormField int

const (
	FieldStart FormField = iota
	FieldEnd
	FieldToken
	FieldModel
	fieldCount
)

// AllTokens is the label of the "no token filter" option.
const AllTokens = "All tokens"

// SearchForm edits the statistics filters. Dates are typed, the token is
// picked from the loaded options with left/right.
type SearchForm struct {
	granularity models.Granularity
	focused     FormField

	start textinput.Model
	end   textinput.Model
	model textinput.Model

	tokens   []models.TokenOption
	tokenIdx int // 0 is AllTokens, i+1 is tokens[i]

	edited bool
	err    string
}

// NewSearchForm creates an empty search form.
func NewSearchForm() SearchForm {
	newInput := func(limit int) textinput.Model {
		in := textinput.New()
		in.CharLimit = limit
		in.Width = 24
		in.Prompt = ""
		return in
	}

	f := SearchForm{
		start: newInput(10),
		end:   newInput(10),
		model: newInput(100),
	}
	f.model.Placeholder = "any model"
	f.setPlaceholders()
	return f
}

func (f *SearchForm) setPlaceholders() {
	f.start.Placeholder = f.granularity.Layout()
	f.end.Placeholder = f.granularity.Layout()
}

// Load fills the form from a query. Token options must be set first so the
// selected token can be found.
func (f *SearchForm) Load(g models.Granularity, q models.Query) {
	f.granularity = g
	f.setPlaceholders()
	f.start.SetValue(q.StartDate)
	f.end.SetValue(q.EndDate)
	f.model.SetValue(q.ModelName)
	f.tokenIdx = 0
	for i, t := range f.tokens {
		if t.ID == q.TokenID {
			f.tokenIdx = i + 1
			break
		}
	}
	f.edited = false
	f.err = ""
}

// Edited reports whether a field changed since the last Load or ClearEdits.
func (f SearchForm) Edited() bool {
	return f.edited
}

// ClearEdits marks the current values as applied.
func (f *SearchForm) ClearEdits() {
	f.edited = false
}

// SetTokens replaces the token options, keeping the selection when possible.
func (f *SearchForm) SetTokens(tokens []models.TokenOption) {
	selected := f.SelectedToken()
	f.tokens = tokens
	f.tokenIdx = 0
	for i, t := range tokens {
		if t.ID == selected {
			f.tokenIdx = i + 1
			break
		}
	}
}

// SelectedToken returns the chosen token id, 0 for all tokens.
func (f SearchForm) SelectedToken() int {
	if f.tokenIdx <= 0 || f.tokenIdx > len(f.tokens) {
		return 0
	}
	return f.tokens[f.tokenIdx-1].ID
}

// Focused returns the focused field.
func (f SearchForm) Focused() FormField {
	return f.focused
}

// Focus focuses the first field.
func (f *SearchForm) Focus() tea.Cmd {
	f.focused = FieldStart
	f.err = ""
	f.updateFocus()
	return textinput.Blink
}

// Blur removes focus from every field.
func (f *SearchForm) Blur() {
	f.start.Blur()
	f.end.Blur()
	f.model.Blur()
}

// NextField moves focus forward, wrapping around.
func (f *SearchForm) NextField() {
	f.focused = (f.focused + 1) % fieldCount
	f.updateFocus()
}

// PrevField moves focus backward, wrapping around.
func (f *SearchForm) PrevField() {
	f.focused = (f.focused - 1 + fieldCount) % fieldCount
	f.updateFocus()
}

func (f *SearchForm) updateFocus() {
	f.Blur()
	switch f.focused {
	case FieldStart:
		f.start.Focus()
	case FieldEnd:
		f.end.Focus()
	case FieldModel:
		f.model.Focus()
	}
}

// Update forwards a message to the focused field. On the token field
// left/right cycle through the options.
func (f SearchForm) Update(msg tea.Msg) (SearchForm, tea.Cmd) {
	before := f.values()
	var cmd tea.Cmd
	switch f.focused {
	case FieldStart:
		f.start, cmd = f.start.Update(msg)
	case FieldEnd:
		f.end, cmd = f.end.Update(msg)
	case FieldModel:
		f.model, cmd = f.model.Update(msg)
	case FieldToken:
		if k, ok := msg.(tea.KeyMsg); ok {
			n := len(f.tokens) + 1
			switch k.String() {
			case "right", "l", " ":
				f.tokenIdx = (f.tokenIdx + 1) % n
			case "left", "h":
				f.tokenIdx = (f.tokenIdx - 1 + n) % n
			}
		}
	}
	if f.values() != before {
		f.edited = true
	}
	return f, cmd
}

type formValues struct {
	start, end, model string
	tokenIdx          int
}

func (f SearchForm) values() formValues {
	return formValues{f.start.Value(), f.end.Value(), f.model.Value(), f.tokenIdx}
}

// Query validates the form and builds the filters. Page fields are left
// for the caller.
func (f *SearchForm) Query() (models.Query, error) {
	start, err := models.ParsePeriod(f.granularity, f.start.Value())
	if err != nil {
		f.err = err.Error()
		return models.Query{}, err
	}
	end, err := models.ParsePeriod(f.granularity, f.end.Value())
	if err != nil {
		f.err = err.Error()
		return models.Query{}, err
	}
	if start != "" && end != "" && start > end {
		err = fmt.Errorf("start %s is after end %s", start, end)
		f.err = err.Error()
		return models.Query{}, err
	}

	f.err = ""
	return models.Query{
		StartDate: start,
		EndDate:   end,
		TokenID:   f.SelectedToken(),
		ModelName: strings.TrimSpace(f.model.Value()),
	}, nil
}

// View renders the form.
func (f SearchForm) View() string {
	tokenLabel := AllTokens
	if id := f.SelectedToken(); id > 0 {
		tokenLabel = f.tokens[f.tokenIdx-1].Name
		if tokenLabel == "" {
			tokenLabel = fmt.Sprintf("#%d", id)
		}
	}

	fields := []string{
		f.renderField(FieldStart, "Start "+f.granularity.String(), f.start.View()),
		f.renderField(FieldEnd, "End "+f.granularity.String(), f.end.View()),
		f.renderField(FieldToken, "Token", "‹ "+Truncate(tokenLabel, 20)+" ›"),
		f.renderField(FieldModel, "Model", f.model.View()),
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, fields...))
	b.WriteString("\n")
	if f.err != "" {
		b.WriteString(styles.ErrorTextStyle.Render(f.err))
	} else {
		b.WriteString(styles.HelpStyle.Render("tab next field · ←/→ pick token · enter search · esc close"))
	}
	return b.String()
}

func (f SearchForm) renderField(field FormField, label, input string) string {
	labelStyle, border := styles.BlurredStyle, styles.BlurredBorderStyle
	if f.focused == field {
		labelStyle, border = styles.FocusedStyle, styles.FocusedBorderStyle
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render(label),
		border.Width(26).Render(input),
	)
}
