package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
)

type StatsModel struct {
	session Session

	stats   *document.Stats
	loading bool
	err     error
}

func NewStatsModel(session Session) StatsModel {
	return StatsModel{session: session, loading: true}
}

func (m StatsModel) Init() tea.Cmd {
	return m.loadStatsCmd()
}

func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadStatsCmd()
		}
	case loadStatsMsg:
		m.loading = false
		m.stats = msg.stats
		m.err = msg.err
	}

	return m, nil
}

func (m StatsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading stats...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v\n\n(Esc to back)", m.err))
	}

	st := m.stats
	label := lipgloss.NewStyle().Width(24)

	rows := []struct {
		name  string
		count int
	}{
		{"Processing", st.Processing},
		{"Pending review", st.PendingReview},
		{"Auto matched", st.AutoMatched},
		{"Confirmed", st.Confirmed},
		{"Rejected", st.Rejected},
		{"Confirmed this month", st.ConfirmedThisMonth},
		{"Rejected this month", st.RejectedThisMonth},
	}

	body := ""
	for _, r := range rows {
		body += label.Render(r.name) + activeStyle(fmt.Sprintf("%d", r.count)) + "\n"
	}

	return lipgloss.NewStyle().Padding(2).Render(
		panel("Reconciliation", body) + "\n\n(r: refresh | Esc: back)",
	)
}

type loadStatsMsg struct {
	stats *document.Stats
	err   error
}

func (m StatsModel) loadStatsCmd() tea.Cmd {
	s := m.session

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		stats, err := s.Service.Stats(ctx, s.TenantID)
		return loadStatsMsg{stats: stats, err: err}
	}
}
