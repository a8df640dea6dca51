package view

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
	"github.com/MrJamesThe3rd/nfrecon/internal/inbound"
)

const ingestTimeout = 2 * time.Minute

type ingestState int

const (
	ingestStateFilePick ingestState = iota
	ingestStateIngesting
	ingestStateResult
)

type IngestModel struct {
	session Session

	state      ingestState
	filePicker filepicker.Model

	status string
	err    error
}

func NewIngestModel(session Session) IngestModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".pdf", ".xml", ".png", ".jpg", ".jpeg", ".eml"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return IngestModel{session: session, filePicker: fp}
}

func (m IngestModel) Title() string { return "Ingest Invoice" }

func (m IngestModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m IngestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			if m.state == ingestStateResult {
				m.state = ingestStateFilePick
				m.err = nil
				m.status = ""

				return m, nil
			}

			return m, Back
		}

	case ingestResultMsg:
		m.state = ingestStateResult
		m.err = msg.err
		m.status = msg.summary

		return m, nil
	}

	if m.state != ingestStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = ingestStateIngesting
		m.status = fmt.Sprintf("Ingesting %s...", path)

		return m, m.ingestCmd(path)
	}

	return m, cmd
}

func (m IngestModel) View() string {
	switch m.state {
	case ingestStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			"Select an invoice file or a saved .eml message:\n\n" + m.filePicker.View(),
		)
	case ingestStateIngesting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	}

	color := lipgloss.Color("46")
	if m.err != nil {
		color = lipgloss.Color("196")
	}

	return lipgloss.NewStyle().Padding(2).Render(
		lipgloss.NewStyle().Foreground(color).Render(m.status) + "\n\n(Esc to go back)",
	)
}

// Messages

type ingestResultMsg struct {
	summary string
	err     error
}

func (m IngestModel) ingestCmd(path string) tea.Cmd {
	s := m.session

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()

		if strings.EqualFold(filepath.Ext(path), ".eml") {
			return ingestMessage(ctx, s, path)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return ingestResultMsg{summary: fmt.Sprintf("Error: %v", err), err: err}
		}

		name := filepath.Base(path)

		doc, err := s.Service.Ingest(ctx, s.TenantID, document.IngestInput{
			FileName:    name,
			ContentType: inbound.DetectContentType(name, "", content),
			Content:     content,
		})

		return ingestResultMsg{summary: describeIngest(name, doc, err), err: err}
	}
}

func ingestMessage(ctx context.Context, s Session, path string) tea.Msg {
	f, err := os.Open(path)
	if err != nil {
		return ingestResultMsg{summary: fmt.Sprintf("Error: %v", err), err: err}
	}
	defer f.Close()

	msg, err := inbound.Parse(f)
	if err != nil {
		return ingestResultMsg{summary: fmt.Sprintf("Error: %v", err), err: err}
	}

	var (
		lines  []string
		failed error
	)

	for _, r := range inbound.IngestMessage(ctx, s.Service, s.TenantID, msg) {
		if r.Err != nil && !errors.Is(r.Err, document.ErrDuplicateDocument) {
			failed = r.Err
		}

		lines = append(lines, describeIngest(r.FileName, r.Document, r.Err))
	}

	return ingestResultMsg{summary: strings.Join(lines, "\n"), err: failed}
}

func describeIngest(name string, doc *document.Document, err error) string {
	var dup *document.DuplicateError

	switch {
	case errors.As(err, &dup):
		if dup.DocumentID == uuid.Nil {
			return fmt.Sprintf("%s: already ingested", name)
		}

		return fmt.Sprintf("%s: duplicate of %s", name, dup.DocumentID)
	case doc != nil && err != nil:
		return fmt.Sprintf("%s: stored as %s, extraction failed: %v", name, doc.Status, err)
	case err != nil:
		return fmt.Sprintf("%s: %v", name, err)
	}

	return fmt.Sprintf("%s: %s (confidence %s)", name, doc.Status, FormatConfidence(doc.Match.Confidence))
}
