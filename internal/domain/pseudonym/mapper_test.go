package pseudonym

import (
	"context"
	"sync"
	"testing"

	"github.com/clearlens/resolve/pkg/errors"
	"github.com/clearlens/resolve/pkg/types/common"
)

func TestPseudonymStableAcrossCalls(t *testing.T) {
	m := NewMapper(NewMemoryStore())
	id := common.NewBusinessID()

	first, err := m.Pseudonym(context.Background(), id, common.FieldName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == "" {
		t.Fatal("expected a non-empty token")
	}
	second, err := m.Pseudonym(context.Background(), id, common.FieldName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("same key must yield the same token: %q vs %q", first, second)
	}
}

func TestPseudonymIndependentPerFieldKind(t *testing.T) {
	m := NewMapper(NewMemoryStore())
	id := common.NewBusinessID()

	name, _ := m.Pseudonym(context.Background(), id, common.FieldName)
	email, _ := m.Pseudonym(context.Background(), id, common.FieldEmail)
	phone, _ := m.Pseudonym(context.Background(), id, common.FieldPhone)

	if name == email || name == phone || email == phone {
		t.Errorf("field kinds must get independent tokens: %q %q %q", name, email, phone)
	}
}

func TestPseudonymIndependentPerEntity(t *testing.T) {
	m := NewMapper(NewMemoryStore())

	a, _ := m.Pseudonym(context.Background(), common.NewBusinessID(), common.FieldName)
	b, _ := m.Pseudonym(context.Background(), common.NewBusinessID(), common.FieldName)
	if a == b {
		t.Error("distinct entities must not share tokens")
	}
}

func TestPseudonymNeverEchoesInput(t *testing.T) {
	m := NewMapper(NewMemoryStore())
	id := common.NewBusinessID()

	token, _ := m.Pseudonym(context.Background(), id, common.FieldEmail)
	if token == id.String() {
		t.Error("token must not be the business id itself")
	}
}

func TestPseudonymRejectsBadInput(t *testing.T) {
	m := NewMapper(NewMemoryStore())

	if _, err := m.Pseudonym(context.Background(), "", common.FieldName); !errors.IsCode(err, errors.CodeInvalidParam) {
		t.Errorf("empty business id: expected CodeInvalidParam, got %v", err)
	}
	if _, err := m.Pseudonym(context.Background(), common.NewBusinessID(), "ssn"); !errors.IsCode(err, errors.CodeInvalidParam) {
		t.Errorf("unknown field kind: expected CodeInvalidParam, got %v", err)
	}
}

func TestPseudonymConcurrentCreationConverges(t *testing.T) {
	m := NewMapper(NewMemoryStore())
	id := common.NewBusinessID()

	const callers = 16
	tokens := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := m.Pseudonym(context.Background(), id, common.FieldPhone)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if tokens[i] != tokens[0] {
			t.Fatalf("caller %d got %q, caller 0 got %q; at-most-one token per key", i, tokens[i], tokens[0])
		}
	}
}

func TestMemoryStoreUpsertKeepsFirstWriter(t *testing.T) {
	s := NewMemoryStore()
	key := Key{BusinessID: common.NewBusinessID(), FieldKind: common.FieldName}

	won, err := s.Upsert(context.Background(), key, "alpha")
	if err != nil || won != "alpha" {
		t.Fatalf("first upsert: got (%q, %v)", won, err)
	}
	lost, err := s.Upsert(context.Background(), key, "beta")
	if err != nil || lost != "alpha" {
		t.Errorf("second upsert must return the incumbent: got (%q, %v)", lost, err)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 stored mapping, got %d", s.Len())
	}
}

func TestMemoryStoreGetMiss(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), Key{BusinessID: common.NewBusinessID(), FieldKind: common.FieldName})
	if !errors.IsCode(err, errors.CodeMappingNotFound) {
		t.Errorf("miss must be CodeMappingNotFound, got %v", err)
	}
}
