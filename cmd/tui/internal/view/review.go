package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
	"github.com/MrJamesThe3rd/nfrecon/internal/matching"
)

// ReviewModel walks the pending_review queue one document at a time, offering the
// ranked ledger candidates for each.
type ReviewModel struct {
	session Session

	state ReviewState

	queue      []*document.Document
	current    *document.Document
	candidates []matching.Candidate
	cursor     int

	reasonInput textinput.Model

	status     string
	loading    bool
	totalCount int
}

type ReviewState int

const (
	StateChoosing ReviewState = iota
	StateRejecting
)

func NewReviewModel(session Session) ReviewModel {
	ti := textinput.New()
	ti.Placeholder = "Reason"
	ti.Width = 50

	return ReviewModel{
		session:     session,
		reasonInput: ti,
		state:       StateChoosing,
		loading:     true,
	}
}

func (m ReviewModel) Init() tea.Cmd {
	return m.loadQueueCmd()
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		if m.state == StateRejecting {
			switch msg.Type {
			case tea.KeyEsc:
				m.state = StateChoosing
				m.reasonInput.Blur()
				return m, nil
			case tea.KeyEnter:
				reason := strings.TrimSpace(m.reasonInput.Value())
				if reason == "" {
					m.status = "Reason cannot be empty"
					return m, nil
				}
				m.loading = true
				return m, m.rejectCmd(reason)
			}

			m.reasonInput, cmd = m.reasonInput.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "esc":
			return m, Back
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.candidates)-1 {
				m.cursor++
			}
		case "enter":
			if m.current != nil && len(m.candidates) > 0 {
				m.loading = true
				return m, m.validateCmd(m.candidates[m.cursor])
			}
		case "x":
			if m.current != nil {
				m.state = StateRejecting
				m.reasonInput.SetValue("")
				m.reasonInput.Focus()
				return m, textinput.Blink
			}
		case "n":
			if m.current != nil {
				m.loading = true
				return m, m.nextCmd()
			}
		}

	case loadQueueMsg:
		if msg.err != nil {
			m.loading = false
			m.status = fmt.Sprintf("Error loading queue: %v", msg.err)
			break
		}

		m.queue = msg.docs
		m.totalCount = len(m.queue)

		return m, m.nextCmd()

	case nextDocMsg:
		m.loading = false
		m.state = StateChoosing
		m.cursor = 0
		m.current = msg.doc
		m.candidates = msg.candidates

		if len(m.queue) > 0 {
			m.queue = m.queue[1:]
		}

		switch {
		case msg.err != nil:
			m.status = fmt.Sprintf("Error loading candidates: %v", msg.err)
		case m.current == nil:
			m.status = "Review queue is empty."
		default:
			m.status = fmt.Sprintf("Reviewing %d/%d", m.totalCount-len(m.queue), m.totalCount)
		}

	case reviewResultMsg:
		if msg.err != nil {
			m.loading = false
			m.state = StateChoosing
			m.status = fmt.Sprintf("Error: %v", msg.err)
			break
		}

		return m, m.nextCmd()
	}

	return m, cmd
}

func (m ReviewModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading review queue...")
	}

	if m.current == nil {
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc to back)")
	}

	doc := m.current

	var info strings.Builder

	fmt.Fprintf(&info, "File:     %s\nReceived: %s\n", doc.Source.FileName, FormatDate(&doc.Source.ReceivedAt))

	if doc.Source.EmailSubject != nil {
		fmt.Fprintf(&info, "Subject:  %s\n", *doc.Source.EmailSubject)
	}

	switch {
	case doc.ExtractionFailed():
		fmt.Fprintf(&info, "\nExtraction failed: %s\n(reprocess it from the documents list)\n", doc.ExtractionError)
	case doc.Extracted != nil:
		fmt.Fprintf(&info, "\nIssuer:   %s (%s)\nNumber:   %s\nValue:    %s\nIssued:   %s\n",
			doc.Extracted.IssuerName,
			doc.Extracted.IssuerTaxID,
			doc.Extracted.InvoiceNumber,
			FormatAmount(doc.Extracted.Value),
			FormatDate(doc.Extracted.IssueDate),
		)
	}

	var list strings.Builder

	if len(m.candidates) == 0 {
		list.WriteString("No candidates. Validate from the documents list with a record ID.\n")
	}

	for i, c := range m.candidates {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}

		line := fmt.Sprintf("%s %-28s %12s  %s  %s",
			cursor,
			c.Record.CounterpartyName,
			c.Record.Amount.StringFixed(2),
			FormatDate(&c.Record.DueDate),
			FormatConfidence(c.Confidence),
		)
		if i == m.cursor {
			line = activeStyle(line)
		}

		list.WriteString(line + "\n")
	}

	content := fmt.Sprintf("%s\n\n%s\nCandidates:\n%s", m.status, info.String(), list.String())

	if m.state == StateRejecting {
		content += "\n" + panel("Reject Document", m.reasonInput.View()+"\n\n(Enter to reject, Esc to cancel)")
	} else {
		content += "\n(Enter: validate against selected | x: reject | n: skip | Esc: back)"
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

type loadQueueMsg struct {
	docs []*document.Document
	err  error
}

func (m ReviewModel) loadQueueCmd() tea.Cmd {
	s := m.session

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		page, err := s.Service.List(ctx, s.TenantID, document.ListFilter{
			Status: new(document.StatusPendingReview),
			Limit:  document.MaxPageSize,
		})
		if err != nil {
			return loadQueueMsg{err: err}
		}

		return loadQueueMsg{docs: page.Items}
	}
}

type nextDocMsg struct {
	doc        *document.Document
	candidates []matching.Candidate
	err        error
}

// nextCmd loads candidates for the head of the queue.
func (m ReviewModel) nextCmd() tea.Cmd {
	s := m.session

	var head *document.Document
	if len(m.queue) > 0 {
		head = m.queue[0]
	}

	return func() tea.Msg {
		if head == nil {
			return nextDocMsg{}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		candidates, err := s.Service.Candidates(ctx, s.TenantID, head.ID)

		return nextDocMsg{doc: head, candidates: candidates, err: err}
	}
}

type reviewResultMsg struct {
	err error
}

func (m ReviewModel) validateCmd(c matching.Candidate) tea.Cmd {
	s := m.session
	id := m.current.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := s.Service.Validate(ctx, s.TenantID, id, document.ValidateInput{
			FinancialRecordID: c.Record.ID,
			Actor:             s.Operator,
		})

		return reviewResultMsg{err: err}
	}
}

func (m ReviewModel) rejectCmd(reason string) tea.Cmd {
	s := m.session
	id := m.current.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := s.Service.Reject(ctx, s.TenantID, id, reason, s.Operator)

		return reviewResultMsg{err: err}
	}
}
