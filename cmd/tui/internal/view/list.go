package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateForm
)

type formAction int

const (
	actionValidate formAction = iota
	actionReject
	actionReassign
)

func (a formAction) String() string {
	switch a {
	case actionValidate:
		return "Validate Document"
	case actionReject:
		return "Reject Document"
	default:
		return "Reassign Document"
	}
}

const pageSize = 25

type ListModel struct {
	session Session

	state listState
	table table.Model
	docs  []*document.Document
	total int
	form  *huh.Form

	statusFilterIdx int
	filter          document.ListFilter

	loading bool
	err     error
	status  string

	action     formAction
	formRecord string
	formValue  string
	formReason string
}

func NewListModel(session Session) ListModel {
	columns := []table.Column{
		{Title: "Received", Width: 12},
		{Title: "Status", Width: 15},
		{Title: "File", Width: 24},
		{Title: "Issuer", Width: 28},
		{Title: "Value", Width: 12},
		{Title: "Conf.", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ListModel{
		session: session,
		table:   t,
		filter:  document.ListFilter{Limit: pageSize},
	}
}

func (m ListModel) Title() string { return "Documents" }
func (m ListModel) ShortHelp() string {
	if m.state == listStateForm {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | s: status | [ ]: page | v: validate | x: reject | a: reassign | p: reprocess | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadDocsCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.docs = msg.page.Items
		m.total = msg.page.Total
		m.refreshTable()
		return m, nil

	case actionMsg:
		m.status = msg.describe()
		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()
		return m, m.loadDocsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateForm:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadDocsCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % (len(document.Statuses) + 1)
			m.filter.Status = nil
			if m.statusFilterIdx > 0 {
				m.filter.Status = new(document.Statuses[m.statusFilterIdx-1])
			}
			m.filter.Offset = 0
			return m, m.loadDocsCmd()
		case "]":
			if m.filter.Offset+pageSize < m.total {
				m.filter.Offset += pageSize
				return m, m.loadDocsCmd()
			}
		case "[":
			if m.filter.Offset > 0 {
				m.filter.Offset = max(0, m.filter.Offset-pageSize)
				return m, m.loadDocsCmd()
			}
		case "v":
			return m.enterForm(actionValidate)
		case "x":
			return m.enterForm(actionReject)
		case "a":
			return m.enterForm(actionReassign)
		case "p":
			if doc, ok := m.selected(); ok {
				m.status = "Reprocessing " + doc.Source.FileName + "..."
				return m, m.reprocessCmd(doc.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ListModel) selected() (*document.Document, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.docs) {
		return nil, false
	}

	return m.docs[idx], true
}

func (m ListModel) enterForm(action formAction) (tea.Model, tea.Cmd) {
	doc, ok := m.selected()
	if !ok {
		return m, nil
	}

	m.action = action
	m.formRecord = ""
	m.formValue = ""
	m.formReason = ""

	if doc.Match.FinancialRecordID != nil {
		m.formRecord = doc.Match.FinancialRecordID.String()
	}

	var fields []huh.Field

	switch action {
	case actionValidate, actionReassign:
		fields = append(fields,
			huh.NewInput().
				Key("record").
				Title("Financial record ID").
				Value(&m.formRecord).
				Validate(func(s string) error {
					if _, err := uuid.Parse(strings.TrimSpace(s)); err != nil {
						return errors.New("must be a record UUID")
					}
					return nil
				}),
		)
	}

	switch action {
	case actionValidate:
		fields = append(fields,
			huh.NewInput().
				Key("value").
				Title("Value override").
				Placeholder(FormatAmount(extractedValue(doc))).
				Value(&m.formValue).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
						return errors.New("must be a decimal value")
					}
					return nil
				}),
		)
	case actionReject:
		fields = append(fields,
			huh.NewText().
				Key("reason").
				Title("Reason").
				Value(&m.formReason).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("reason cannot be empty")
					}
					return nil
				}),
		)
	}

	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(45).WithShowHelp(false)

	m.state = listStateForm
	m.table.Blur()
	return m, m.form.Init()
}

func (m ListModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = listStateBrowse
			m.form = nil
			m.table.Focus()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.submitCmd()
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading documents...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	statusLabel := "All"
	if m.filter.Status != nil {
		statusLabel = string(*m.filter.Status)
	}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | Showing %d-%d of %d",
		activeStyle(statusLabel),
		min(m.filter.Offset+1, m.total),
		m.filter.Offset+len(m.docs),
		m.total,
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == listStateForm && m.form != nil {
		name := ""
		if doc, ok := m.selected(); ok {
			name = doc.Source.FileName
		}
		content = lipgloss.JoinHorizontal(lipgloss.Top, content,
			panel(m.action.String(), fmt.Sprintf("File: %s\n\n%s", name, m.form.View())))
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.docs))
	for _, doc := range m.docs {
		issuer := "-"
		if doc.Extracted != nil && doc.Extracted.IssuerName != "" {
			issuer = doc.Extracted.IssuerName
		}
		rows = append(rows, table.Row{
			FormatDate(&doc.Source.ReceivedAt),
			string(doc.Status),
			doc.Source.FileName,
			issuer,
			FormatAmount(extractedValue(doc)),
			FormatConfidence(doc.Match.Confidence),
		})
	}
	m.table.SetRows(rows)
}

func extractedValue(doc *document.Document) *decimal.Decimal {
	if doc.Confirmed != nil {
		return &doc.Confirmed.Value
	}

	if doc.Extracted != nil {
		return doc.Extracted.Value
	}

	return nil
}

// Messages

type loadListMsg struct {
	page *document.Page
	err  error
}

func (m ListModel) loadDocsCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		page, err := m.session.Service.List(ctx, m.session.TenantID, filter)
		return loadListMsg{page: page, err: err}
	}
}

type actionMsg struct {
	verb string
	doc  *document.Document
	err  error
}

func (a actionMsg) describe() string {
	if a.err != nil {
		return fmt.Sprintf("Failed to %s: %v", a.verb, a.err)
	}

	return fmt.Sprintf("%s: %s is now %s", a.verb, a.doc.Source.FileName, a.doc.Status)
}

func (m ListModel) submitCmd() tea.Cmd {
	doc, ok := m.selected()
	if !ok {
		return nil
	}

	var (
		s      = m.session
		action = m.action
		value  = strings.TrimSpace(m.formValue)
		reason = strings.TrimSpace(m.formReason)
	)

	var overrides document.FieldOverrides

	// Both inputs were checked by the form validators.
	recordID, _ := uuid.Parse(strings.TrimSpace(m.formRecord))

	if value != "" {
		overrides.Value = new(decimal.RequireFromString(value))
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		switch action {
		case actionValidate:
			updated, err := s.Service.Validate(ctx, s.TenantID, doc.ID, document.ValidateInput{
				FinancialRecordID: recordID,
				Overrides:         overrides,
				Actor:             s.Operator,
			})
			return actionMsg{verb: "validate", doc: updated, err: err}
		case actionReject:
			updated, err := s.Service.Reject(ctx, s.TenantID, doc.ID, reason, s.Operator)
			return actionMsg{verb: "reject", doc: updated, err: err}
		default:
			updated, err := s.Service.Reassign(ctx, s.TenantID, doc.ID, document.ReassignInput{
				FinancialRecordID: recordID,
				Actor:             s.Operator,
			})
			return actionMsg{verb: "reassign", doc: updated, err: err}
		}
	}
}

func (m ListModel) reprocessCmd(id uuid.UUID) tea.Cmd {
	s := m.session

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), extractTimeout)
		defer cancel()

		doc, err := s.Service.Reprocess(ctx, s.TenantID, id, s.Operator)
		if doc != nil && err != nil {
			err = fmt.Errorf("extraction still failing: %w", err)
		}
		return actionMsg{verb: "reprocess", doc: doc, err: err}
	}
}
