package ops

import (
	"context"
	"errors"
	"fmt"
	"testing"

	crumbserr "github.com/hpungsan/crumbs/internal/errors"
	"github.com/hpungsan/crumbs/internal/store"
	"github.com/hpungsan/crumbs/internal/store/memory"
)

func TestListDomain(t *testing.T) {
	out, err := ListDomain(context.Background(), scenarioStore(), ListInput{Domain: " a.com "})
	if err != nil {
		t.Fatalf("ListDomain() error = %v", err)
	}
	if out.Domain != "a.com" {
		t.Errorf("Domain = %q, want trimmed a.com", out.Domain)
	}
	if len(out.Items) != 2 || out.Items[0].Name != "sid" {
		t.Errorf("Items = %+v", out.Items)
	}
	if out.Pagination.Total != 2 || out.Pagination.Limit != DefaultListLimit || out.Pagination.HasMore {
		t.Errorf("Pagination = %+v", out.Pagination)
	}
}

func TestListDomain_Pagination(t *testing.T) {
	st := memory.New()
	for i := range 7 {
		st.Add(rec("big.com", fmt.Sprintf("c%d", i), false, false))
	}

	out, err := ListDomain(context.Background(), st, ListInput{Domain: "big.com", Limit: 3, Offset: 3})
	if err != nil {
		t.Fatalf("ListDomain() error = %v", err)
	}
	if len(out.Items) != 3 || out.Items[0].Name != "c3" || !out.Pagination.HasMore {
		t.Errorf("page = %+v, pagination %+v", out.Items, out.Pagination)
	}
}

func TestListDomain_EmptyDomain(t *testing.T) {
	_, err := ListDomain(context.Background(), scenarioStore(), ListInput{Domain: "  "})
	if !crumbserr.Is(err, crumbserr.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestListDomain_NoCookies(t *testing.T) {
	out, err := ListDomain(context.Background(), scenarioStore(), ListInput{Domain: "none.com"})
	if err != nil {
		t.Fatalf("ListDomain() error = %v", err)
	}
	if out.Items == nil || len(out.Items) != 0 {
		t.Errorf("Items = %#v, want empty non-nil", out.Items)
	}
}

func TestListDomain_StoreErrors(t *testing.T) {
	st := scenarioStore()
	st.ListErr = fmt.Errorf("%w: closed", store.ErrUnavailable)
	out, err := ListDomain(context.Background(), st, ListInput{Domain: "a.com"})
	if err != nil || len(out.Items) != 0 {
		t.Errorf("unavailable store: out = %+v, err = %v, want empty", out, err)
	}

	st.ListErr = errors.New("locked")
	_, err = ListDomain(context.Background(), st, ListInput{Domain: "a.com"})
	if !crumbserr.Is(err, crumbserr.ErrInternal) {
		t.Errorf("err = %v, want INTERNAL", err)
	}

	out, err = ListDomain(context.Background(), nil, ListInput{Domain: "a.com"})
	if err != nil || len(out.Items) != 0 {
		t.Errorf("nil store: out = %+v, err = %v", out, err)
	}
}
