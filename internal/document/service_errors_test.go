package document_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
	"github.com/MrJamesThe3rd/nfrecon/internal/extraction"
	"github.com/MrJamesThe3rd/nfrecon/internal/fingerprint"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
)

func pendingDoc() *document.Document {
	return &document.Document{
		ID:        uuid.New(),
		TenantID:  tenant,
		Version:   3,
		Status:    document.StatusPendingReview,
		Extracted: &document.Extraction{Fields: extraction.Fields{InvoiceNumber: "1"}},
	}
}

func TestService_Validate_RepositoryFailures(t *testing.T) {
	rec := auroraRecord()

	type testCase struct {
		name      string
		setupMock func(repo *document.MockRepository, l *document.MockLedger, doc *document.Document)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "GetFails",
			setupMock: func(repo *document.MockRepository, _ *document.MockLedger, _ *document.Document) {
				repo.EXPECT().Get(gomock.Any(), tenant, gomock.Any()).Return(nil, errors.New("db down"))
			},
		},
		{
			name: "NotFound",
			setupMock: func(repo *document.MockRepository, _ *document.MockLedger, _ *document.Document) {
				repo.EXPECT().Get(gomock.Any(), tenant, gomock.Any()).Return(nil, document.ErrNotFound)
			},
			wantErr: document.ErrNotFound,
		},
		{
			name: "StaleVersion",
			setupMock: func(repo *document.MockRepository, l *document.MockLedger, doc *document.Document) {
				repo.EXPECT().Get(gomock.Any(), tenant, doc.ID).Return(doc, nil)
				l.EXPECT().GetRecord(gomock.Any(), tenant, rec.ID).Return(&rec, nil)
				repo.EXPECT().FindConfirmedByRecord(gomock.Any(), tenant, rec.ID).Return(nil, document.ErrNotFound)
				repo.EXPECT().Update(gomock.Any(), doc, gomock.Any()).Return(document.ErrStale)
				repo.EXPECT().
					AppendAudit(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, e *document.AuditEntry) error {
						assert.Equal(t, document.EventTransitionFailed, e.Event)
						assert.Equal(t, document.StatusPendingReview, e.FromStatus)
						return nil
					})
			},
			wantErr: document.ErrInvalidTransition,
		},
		{
			name: "LostRaceForRecord",
			setupMock: func(repo *document.MockRepository, l *document.MockLedger, doc *document.Document) {
				repo.EXPECT().Get(gomock.Any(), tenant, doc.ID).Return(doc, nil)
				l.EXPECT().GetRecord(gomock.Any(), tenant, rec.ID).Return(&rec, nil)
				repo.EXPECT().FindConfirmedByRecord(gomock.Any(), tenant, rec.ID).Return(nil, document.ErrNotFound)
				repo.EXPECT().Update(gomock.Any(), doc, gomock.Any()).Return(document.ErrAlreadyLinked)
				repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantErr: document.ErrAlreadyLinked,
		},
		{
			name: "LedgerFails",
			setupMock: func(repo *document.MockRepository, l *document.MockLedger, doc *document.Document) {
				repo.EXPECT().Get(gomock.Any(), tenant, doc.ID).Return(doc, nil)
				l.EXPECT().GetRecord(gomock.Any(), tenant, rec.ID).Return(nil, errors.New("timeout"))
				repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "RecordMissing",
			setupMock: func(repo *document.MockRepository, l *document.MockLedger, doc *document.Document) {
				repo.EXPECT().Get(gomock.Any(), tenant, doc.ID).Return(doc, nil)
				l.EXPECT().GetRecord(gomock.Any(), tenant, rec.ID).Return(nil, ledger.ErrNotFound)
				repo.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantErr: document.ErrRecordNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := document.NewMockRepository(ctrl)
			l := document.NewMockLedger(ctrl)
			doc := pendingDoc()

			tt.setupMock(repo, l, doc)

			svc := document.NewService(document.Deps{Repo: repo, Ledger: l, Fingerprints: fingerprint.NewMemory()})

			got, err := svc.Validate(context.Background(), tenant, doc.ID, document.ValidateInput{
				FinancialRecordID: rec.ID,
				Actor:             "ana",
			})
			require.Error(t, err)
			assert.Nil(t, got)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestService_Ingest_ReleasesFingerprintWhenCreateFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := document.NewMockRepository(ctrl)
	repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	h := newHarness(t)
	registry := fingerprint.NewMemory()

	svc := document.NewService(document.Deps{
		Repo:         repo,
		Fingerprints: registry,
		Blobs:        blobStore(t),
		Extractor:    document.NewMockExtractor(ctrl),
		Ledger:       h.ledger,
	})

	_, err := svc.Ingest(context.Background(), tenant, document.IngestInput{FileName: "nf.pdf", Content: []byte("nf-1")})
	require.Error(t, err)

	require.NoError(t, registry.Reserve(context.Background(), tenant, fingerprint.Compute([]byte("nf-1")), uuid.New()))
}

func TestService_Ingest_PersistsRoutingAfterCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())

	extractor := document.NewMockExtractor(ctrl)
	extractor.EXPECT().
		Extract(gomock.Any(), []byte("nf-1"), "application/pdf").
		DoAndReturn(func(ctx context.Context, _ []byte, _ string) (extraction.Fields, error) {
			cancel()
			return extraction.Fields{}, ctx.Err()
		})

	h := newHarness(t)

	svc := document.NewService(document.Deps{
		Repo:         h.repo,
		Fingerprints: fingerprint.NewMemory(),
		Blobs:        blobStore(t),
		Extractor:    extractor,
		Ledger:       h.ledger,
	})

	doc, err := svc.Ingest(ctx, tenant, document.IngestInput{
		FileName:    "nf.pdf",
		ContentType: "application/pdf",
		Content:     []byte("nf-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, document.StatusPendingReview, doc.Status)
	assert.True(t, doc.ExtractionFailed())

	stored, err := h.repo.Get(context.Background(), tenant, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusPendingReview, stored.Status)
}

// contendedRegistry gives up the way the store and redis registries do when the
// holder keeps disappearing between attempts.
type contendedRegistry struct{}

func (contendedRegistry) Reserve(context.Context, uuid.UUID, string, uuid.UUID) error {
	return fmt.Errorf("reserving fingerprint: %w", fingerprint.ErrReserved)
}

func (contendedRegistry) Release(context.Context, uuid.UUID, string) error {
	return nil
}

func TestService_Ingest_ReservedWithoutHolder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newHarness(t)

	svc := document.NewService(document.Deps{
		Repo:         document.NewMockRepository(ctrl),
		Fingerprints: contendedRegistry{},
		Blobs:        blobStore(t),
		Extractor:    document.NewMockExtractor(ctrl),
		Ledger:       h.ledger,
	})

	doc, err := svc.Ingest(context.Background(), tenant, document.IngestInput{FileName: "nf.pdf", Content: []byte("nf-1")})
	assert.Nil(t, doc)
	require.ErrorIs(t, err, document.ErrDuplicateDocument)

	var dup *document.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, uuid.Nil, dup.DocumentID)
}
