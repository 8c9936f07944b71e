// Package export produces the de-identified outputs of a resolution run: the
// entity table, the per-record resolution table, and anonymized record
// copies.  No raw identifying value ever leaves this package — identifying
// fields are replaced by pseudonym tokens, and the mapping store is the only
// way back.
package export

import (
	"context"
	"sort"

	"github.com/clearlens/resolve/internal/domain/entity"
	"github.com/clearlens/resolve/internal/domain/pseudonym"
	"github.com/clearlens/resolve/internal/domain/record"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/prometheus"
	"github.com/clearlens/resolve/pkg/errors"
	"github.com/clearlens/resolve/pkg/types/common"
)

// EntityRow is one line of the exported entity table.  The canonical name is
// deliberately absent: the entity is represented by its name pseudonym, and
// the mapping store is the only inverse.
type EntityRow struct {
	BusinessID  common.BusinessID  `json:"business_id"`
	NameToken   string             `json:"name_token"`
	AccountType entity.AccountType `json:"account_type"`
	MemberCount int                `json:"member_count"`
}

// ResolutionRow links one source record to its Business ID.
type ResolutionRow struct {
	RecordID   common.RecordID   `json:"record_id"`
	BusinessID common.BusinessID `json:"business_id"`
}

// AnonymizedRecord is a record copy with every identifying field replaced by
// its entity-level pseudonym.  A field absent on the source record stays
// empty rather than receiving a token, so absence remains observable.
type AnonymizedRecord struct {
	RecordID   common.RecordID   `json:"record_id"`
	BusinessID common.BusinessID `json:"business_id"`
	NameToken  string            `json:"name_token,omitempty"`
	EmailToken string            `json:"email_token,omitempty"`
	PhoneToken string            `json:"phone_token,omitempty"`
}

// Export is the complete de-identified output set for one run.
type Export struct {
	Entities    []EntityRow        `json:"entities"`
	Resolutions []ResolutionRow    `json:"resolutions"`
	Records     []AnonymizedRecord `json:"records"`
}

// Service assembles exports.  It holds the only reference to the pseudonym
// mapper outside the anonymization stage itself.
type Service struct {
	mapper  *pseudonym.Mapper
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

func NewService(mapper *pseudonym.Mapper, logger logging.Logger, metrics *prometheus.AppMetrics) *Service {
	return &Service{
		mapper:  mapper,
		logger:  logger.Named("export"),
		metrics: metrics,
	}
}

// Build produces the export for a finished run.  records is the raw batch the
// run resolved; entities and assignments come from its Result.  A mapping
// store failure aborts the export — and only the export: the resolution
// output this was built from remains valid.
func (s *Service) Build(
	ctx context.Context,
	records []record.RawIdentityRecord,
	entities []entity.BusinessEntity,
	assignments map[common.RecordID]entity.PriorAssignment,
) (*Export, error) {
	out := &Export{
		Entities:    make([]EntityRow, 0, len(entities)),
		Resolutions: make([]ResolutionRow, 0, len(assignments)),
	}

	for _, e := range entities {
		nameToken, err := s.token(ctx, e.BusinessID, common.FieldName)
		if err != nil {
			return nil, err
		}
		out.Entities = append(out.Entities, EntityRow{
			BusinessID:  e.BusinessID,
			NameToken:   nameToken,
			AccountType: e.AccountType,
			MemberCount: len(e.Members),
		})
	}

	for _, rec := range records {
		pa, ok := assignments[rec.ID]
		if !ok {
			continue // skipped during resolution
		}
		out.Resolutions = append(out.Resolutions, ResolutionRow{
			RecordID:   rec.ID,
			BusinessID: pa.BusinessID,
		})

		anon, err := s.anonymize(ctx, rec, pa.BusinessID)
		if err != nil {
			return nil, err
		}
		out.Records = append(out.Records, anon)
	}

	sort.Slice(out.Resolutions, func(i, j int) bool {
		return out.Resolutions[i].RecordID.Less(out.Resolutions[j].RecordID)
	})
	sort.Slice(out.Records, func(i, j int) bool {
		return out.Records[i].RecordID.Less(out.Records[j].RecordID)
	})

	s.logger.Info("export built",
		logging.Int("entities", len(out.Entities)),
		logging.Int("records", len(out.Records)))
	return out, nil
}

// anonymize replaces each present identifying field with its entity-level
// pseudonym.  All members of one entity share the same token per field kind,
// so exported records of the same business stay linkable.
func (s *Service) anonymize(ctx context.Context, rec record.RawIdentityRecord, businessID common.BusinessID) (AnonymizedRecord, error) {
	anon := AnonymizedRecord{RecordID: rec.ID, BusinessID: businessID}

	var err error
	if rec.RawName != "" {
		if anon.NameToken, err = s.token(ctx, businessID, common.FieldName); err != nil {
			return AnonymizedRecord{}, err
		}
	}
	if rec.RawEmail != "" {
		if anon.EmailToken, err = s.token(ctx, businessID, common.FieldEmail); err != nil {
			return AnonymizedRecord{}, err
		}
	}
	if rec.RawPhone != "" {
		if anon.PhoneToken, err = s.token(ctx, businessID, common.FieldPhone); err != nil {
			return AnonymizedRecord{}, err
		}
	}
	return anon, nil
}

func (s *Service) token(ctx context.Context, businessID common.BusinessID, kind common.FieldKind) (string, error) {
	s.metrics.PseudonymLookupsTotal.WithLabelValues(kind.String()).Inc()
	token, err := s.mapper.Pseudonym(ctx, businessID, kind)
	if err != nil {
		if errors.IsCode(err, errors.CodeMappingStoreUnavailable) || errors.IsCode(err, errors.CodePseudonymFailed) {
			return "", errors.Wrap(err, errors.CodeExportFailed, "anonymized export aborted")
		}
		return "", err
	}
	return token, nil
}
