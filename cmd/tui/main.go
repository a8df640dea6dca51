package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/nfrecon/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/nfrecon/internal/blob"
	"github.com/MrJamesThe3rd/nfrecon/internal/config"
	"github.com/MrJamesThe3rd/nfrecon/internal/database"
	"github.com/MrJamesThe3rd/nfrecon/internal/document"
	documentStore "github.com/MrJamesThe3rd/nfrecon/internal/document/store"
	"github.com/MrJamesThe3rd/nfrecon/internal/extraction"
	"github.com/MrJamesThe3rd/nfrecon/internal/extraction/ocr"
	fingerprintStore "github.com/MrJamesThe3rd/nfrecon/internal/fingerprint/store"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/nfrecon/internal/ledger/store"
)

type model struct {
	session view.Session

	currentView View

	reviewView view.ReviewModel
	listView   view.ListModel
	statsView  view.StatsModel
	ingestView view.IngestModel
}

type View int

const (
	ViewMenu   View = 0
	ViewReview View = 1
	ViewList   View = 2
	ViewStats  View = 3
	ViewIngest View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	tenantID, err := uuid.Parse(cfg.TUI.TenantID)
	if err != nil {
		slog.Error("TUI_TENANT_ID must be a UUID", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	blobs, err := blob.NewLocal(cfg.Storage.LocalDir)
	if err != nil {
		slog.Error("failed to open document storage", "error", err)
		os.Exit(1)
	}

	docSvc := document.NewService(document.Deps{
		Repo:         documentStore.New(db),
		Fingerprints: fingerprintStore.New(db),
		Blobs:        blobs,
		Extractor:    extraction.NewAdapter(ocr.New(cfg.OCR.URL, cfg.OCR.Token), cfg.OCR.Timeout),
		Ledger:       ledger.NewService(ledgerStore.New(db)),
	})

	session := view.Session{Service: docSvc, TenantID: tenantID, Operator: cfg.TUI.Operator}

	return model{
		session:     session,
		currentView: ViewMenu,
		reviewView:  view.NewReviewModel(session),
		listView:    view.NewListModel(session),
		statsView:   view.NewStatsModel(session),
		ingestView:  view.NewIngestModel(session),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewReview
				m.reviewView = view.NewReviewModel(m.session)

				return m, m.reviewView.Init()
			case "2":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.session)

				return m, m.listView.Init()
			case "3":
				m.currentView = ViewStats
				m.statsView = view.NewStatsModel(m.session)

				return m, m.statsView.Init()
			case "4":
				m.currentView = ViewIngest
				m.ingestView = view.NewIngestModel(m.session)

				return m, m.ingestView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewReview:
		var newModel tea.Model
		newModel, cmd = m.reviewView.Update(msg)
		m.reviewView = newModel.(view.ReviewModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewStats:
		var newModel tea.Model
		newModel, cmd = m.statsView.Update(msg)
		m.statsView = newModel.(view.StatsModel)
	case ViewIngest:
		var newModel tea.Model
		newModel, cmd = m.ingestView.Update(msg)
		m.ingestView = newModel.(view.IngestModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"NF Reconciliation\n\n" +
				"1. Review Queue\n" +
				"2. Documents\n" +
				"3. Stats\n" +
				"4. Ingest Invoice\n\n" +
				"q. Quit",
		)
	case ViewReview:
		return m.reviewView.View()
	case ViewList:
		return m.listView.View()
	case ViewStats:
		return m.statsView.View()
	case ViewIngest:
		return m.ingestView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
