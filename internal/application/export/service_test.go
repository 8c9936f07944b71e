package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearlens/resolve/internal/domain/entity"
	"github.com/clearlens/resolve/internal/domain/pseudonym"
	"github.com/clearlens/resolve/internal/domain/record"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/logging"
	"github.com/clearlens/resolve/internal/infrastructure/monitoring/prometheus"
	"github.com/clearlens/resolve/pkg/errors"
	"github.com/clearlens/resolve/pkg/types/common"
)

// failingStore simulates a mapping-store outage.
type failingStore struct{}

func (failingStore) Get(context.Context, pseudonym.Key) (string, error) {
	return "", errors.New(errors.CodeMappingStoreUnavailable, "store down")
}

func (failingStore) Upsert(context.Context, pseudonym.Key, string) (string, error) {
	return "", errors.New(errors.CodeMappingStoreUnavailable, "store down")
}

func newTestService(store pseudonym.Store) *Service {
	return NewService(pseudonym.NewMapper(store), logging.NewNopLogger(), prometheus.NewNopMetrics())
}

type fixture struct {
	records     []record.RawIdentityRecord
	entities    []entity.BusinessEntity
	assignments map[common.RecordID]entity.PriorAssignment
}

func TestBuildExport(t *testing.T) {
	f := twoRecordFixture()
	svc := newTestService(pseudonym.NewMemoryStore())

	out, err := svc.Build(context.Background(), f.records, f.entities, f.assignments)
	require.NoError(t, err)

	require.Len(t, out.Entities, 1)
	require.Len(t, out.Resolutions, 2)
	require.Len(t, out.Records, 2)

	ent := out.Entities[0]
	assert.NotEmpty(t, ent.NameToken)
	assert.Equal(t, 2, ent.MemberCount)

	for _, row := range out.Resolutions {
		assert.Equal(t, ent.BusinessID, row.BusinessID)
	}
}

func TestBuildNeverLeaksRawValues(t *testing.T) {
	f := twoRecordFixture()
	svc := newTestService(pseudonym.NewMemoryStore())

	out, err := svc.Build(context.Background(), f.records, f.entities, f.assignments)
	require.NoError(t, err)

	raw := []string{"Lakeside", "lakeside", "orders@lakesideopt.com", "5551234567"}
	for _, rec := range out.Records {
		for _, v := range raw {
			assert.False(t, strings.Contains(rec.NameToken, v), "name token leaks %q", v)
			assert.False(t, strings.Contains(rec.EmailToken, v), "email token leaks %q", v)
			assert.False(t, strings.Contains(rec.PhoneToken, v), "phone token leaks %q", v)
		}
	}
	for _, ent := range out.Entities {
		for _, v := range raw {
			assert.False(t, strings.Contains(ent.NameToken, v), "entity token leaks %q", v)
		}
	}
}

func TestBuildSameEntitySharesTokens(t *testing.T) {
	f := twoRecordFixture()
	svc := newTestService(pseudonym.NewMemoryStore())

	out, err := svc.Build(context.Background(), f.records, f.entities, f.assignments)
	require.NoError(t, err)

	require.Len(t, out.Records, 2)
	// Both records carry a name, so both get the entity's name token.
	assert.Equal(t, out.Records[0].NameToken, out.Records[1].NameToken)
	assert.Equal(t, out.Entities[0].NameToken, out.Records[0].NameToken)
}

func TestBuildAbsentFieldsStayEmpty(t *testing.T) {
	f := twoRecordFixture()
	svc := newTestService(pseudonym.NewMemoryStore())

	out, err := svc.Build(context.Background(), f.records, f.entities, f.assignments)
	require.NoError(t, err)

	// Only the first record has an email and a phone.
	assert.NotEmpty(t, out.Records[0].EmailToken)
	assert.NotEmpty(t, out.Records[0].PhoneToken)
	assert.Empty(t, out.Records[1].EmailToken)
	assert.Empty(t, out.Records[1].PhoneToken)
}

func TestBuildExcludesUnresolvedRecords(t *testing.T) {
	f := twoRecordFixture()
	// A record that resolution skipped has no assignment.
	f.records = append(f.records, record.RawIdentityRecord{
		ID: common.RecordID{Source: common.SourceSales, Row: 99},
	})
	svc := newTestService(pseudonym.NewMemoryStore())

	out, err := svc.Build(context.Background(), f.records, f.entities, f.assignments)
	require.NoError(t, err)
	assert.Len(t, out.Records, 2)
	assert.Len(t, out.Resolutions, 2)
}

func TestBuildStableAcrossRuns(t *testing.T) {
	f := twoRecordFixture()
	store := pseudonym.NewMemoryStore()
	svc := newTestService(store)

	first, err := svc.Build(context.Background(), f.records, f.entities, f.assignments)
	require.NoError(t, err)
	second, err := svc.Build(context.Background(), f.records, f.entities, f.assignments)
	require.NoError(t, err)

	assert.Equal(t, first.Entities[0].NameToken, second.Entities[0].NameToken)
	assert.Equal(t, first.Records[0].EmailToken, second.Records[0].EmailToken)
}

func TestBuildFailsWhenMappingStoreUnavailable(t *testing.T) {
	f := twoRecordFixture()
	svc := newTestService(failingStore{})

	_, err := svc.Build(context.Background(), f.records, f.entities, f.assignments)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeExportFailed))
}

// twoRecordFixture builds one resolved entity with two member records: the
// first carries all three identifying fields, the second only a name.
func twoRecordFixture() fixture {
	a := common.RecordID{Source: common.SourceCustomer, Row: 1}
	b := common.RecordID{Source: common.SourceSales, Row: 1}
	id := common.NewBusinessID()

	return fixture{
		records: []record.RawIdentityRecord{
			{ID: a, RawName: "Lakeside Optical", RawEmail: "orders@lakesideopt.com", RawPhone: "5551234567"},
			{ID: b, RawName: "LAKESIDE OPTICAL"},
		},
		entities: []entity.BusinessEntity{{
			BusinessID:    id,
			Members:       []common.RecordID{a, b},
			CanonicalName: "lakeside opt",
		}},
		assignments: map[common.RecordID]entity.PriorAssignment{
			a: {BusinessID: id, AssignedAt: time.Now()},
			b: {BusinessID: id, AssignedAt: time.Now()},
		},
	}
}
