package profile

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	memkv "github.com/aashkara-band/site-api/internal/adapters/memory/kvstore"
	noopkv "github.com/aashkara-band/site-api/internal/adapters/noop/kvstore"
)

const testKey = "bandConfig"

func newTestService(t *testing.T) (*Service, *memkv.Store) {
	t.Helper()
	store := memkv.NewStore()
	return NewService(store, testKey, DefaultProfile(Overrides{}), zerolog.Nop()), store
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}
func (failingStore) Put(context.Context, string, string) error { return errors.New("disk on fire") }

func TestResolve_NoOverrideReturnsDefaults(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	got := svc.Resolve(context.Background())
	if !reflect.DeepEqual(got, DefaultProfile(Overrides{})) {
		t.Fatalf("Resolve()=%+v, want defaults", got)
	}
}

func TestResolve_MissingProjectsBackfilledFromDefaults(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"absent": `{"name":"Old Band","contact":{"email":"a@b.c","phone":"1"},"members":[]}`,
		"null":   `{"name":"Old Band","contact":{"email":"a@b.c","phone":"1"},"members":[],"projects":null}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			svc, store := newTestService(t)
			if err := store.Put(context.Background(), testKey, raw); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got := svc.Resolve(context.Background())
			if got.Name != "Old Band" {
				t.Fatalf("override not applied: %+v", got)
			}
			if !reflect.DeepEqual(got.Projects, svc.Defaults().Projects) {
				t.Fatalf("projects=%+v, want defaults", got.Projects)
			}
		})
	}
}

func TestResolve_EmptyProjectsListIsKept(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	_ = store.Put(context.Background(), testKey, `{"schemaVersion":1,"name":"B","contact":{"email":"e","phone":"p"},"projects":[]}`)

	got := svc.Resolve(context.Background())
	if got.Projects == nil || len(got.Projects) != 0 {
		t.Fatalf("projects=%#v, want empty non-nil", got.Projects)
	}
}

func TestResolve_OverrideReplacesWholesale(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	_ = store.Put(context.Background(), testKey, `{"name":"B","contact":{"email":"e@x","phone":"9"},"members":[{"name":"Solo","role":"All","bio":""}]}`)

	got := svc.Resolve(context.Background())
	if len(got.Members) != 1 || got.Members[0].Name != "Solo" {
		t.Fatalf("members=%+v", got.Members)
	}
	// Fields absent from the override are not merged in from defaults.
	if got.Tagline != "" || got.Social.Instagram != "" {
		t.Fatalf("unexpected merge: tagline=%q instagram=%q", got.Tagline, got.Social.Instagram)
	}
}

func TestResolve_FallsBackOnBadRecords(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"invalid json":   `{"name":`,
		"not an object":  `[1,2,3]`,
		"json null":      `null`,
		"future version": `{"schemaVersion":99,"name":"Future"}`,
		"wrong types":    `{"name":42}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			svc, store := newTestService(t)
			_ = store.Put(context.Background(), testKey, raw)
			if got := svc.Resolve(context.Background()); !reflect.DeepEqual(got, svc.Defaults()) {
				t.Fatalf("Resolve()=%+v, want defaults", got)
			}
		})
	}
}

func TestResolve_StorageErrorReturnsDefaults(t *testing.T) {
	t.Parallel()

	svc := NewService(failingStore{}, testKey, DefaultProfile(Overrides{}), zerolog.Nop())
	if got := svc.Resolve(context.Background()); !reflect.DeepEqual(got, svc.Defaults()) {
		t.Fatalf("Resolve()=%+v, want defaults", got)
	}
}

func TestResolve_NoopStoreNeverPersists(t *testing.T) {
	t.Parallel()

	svc := NewService(noopkv.NewStore(), testKey, DefaultProfile(Overrides{}), zerolog.Nop())
	p := svc.Defaults()
	p.Name = "Changed"
	if err := svc.Persist(context.Background(), p); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if got := svc.Resolve(context.Background()); got.Name != "Aashkara" {
		t.Fatalf("name=%q, want defaults", got.Name)
	}
}

func TestResolve_EmptyRequiredFieldsBackfilled(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	_ = store.Put(context.Background(), testKey, `{"schemaVersion":1,"name":"","tagline":"T","contact":{"email":"","phone":""},"projects":[]}`)

	got := svc.Resolve(context.Background())
	if missing := got.MissingRequired(); len(missing) != 0 {
		t.Fatalf("missing required=%v", missing)
	}
	if got.Tagline != "T" {
		t.Fatalf("tagline=%q", got.Tagline)
	}
}

func TestPersist_RoundTripAndIdempotent(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	p := svc.Defaults()
	p.Name = "Renamed"
	p.Members = p.Members[:1]

	if err := svc.Persist(ctx, p); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	first, _, _ := store.Get(ctx, testKey)
	if err := svc.Persist(ctx, p); err != nil {
		t.Fatalf("Persist again: %v", err)
	}
	second, _, _ := store.Get(ctx, testKey)
	if first != second {
		t.Fatalf("persisting the same profile changed the record:\n%s\n%s", first, second)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(first), &rec); err != nil {
		t.Fatalf("stored record is not JSON: %v", err)
	}
	if rec["schemaVersion"] != float64(CurrentSchemaVersion) {
		t.Fatalf("schemaVersion=%v", rec["schemaVersion"])
	}

	if got := svc.Resolve(ctx); !reflect.DeepEqual(got, p) {
		t.Fatalf("Resolve()=%+v, want %+v", got, p)
	}
}

func TestPersist_StorageError(t *testing.T) {
	t.Parallel()

	svc := NewService(failingStore{}, testKey, DefaultProfile(Overrides{}), zerolog.Nop())
	err := svc.Persist(context.Background(), svc.Defaults())
	if err == nil || !strings.Contains(err.Error(), "persist profile") {
		t.Fatalf("err=%v", err)
	}
}

func TestDefaults_ReturnsCopy(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	d := svc.Defaults()
	d.Members[0].Name = "mutated"
	if svc.Defaults().Members[0].Name == "mutated" {
		t.Fatalf("Defaults leaked internal slice")
	}
}

func TestDefaultProfile_Overrides(t *testing.T) {
	t.Parallel()

	p := DefaultProfile(Overrides{Name: "Other", Phone: "+1 555"})
	if p.Name != "Other" || p.Contact.Phone != "+1 555" {
		t.Fatalf("overrides not applied: %+v", p)
	}
	if p.Contact.Email != "aashkaraband@gmail.com" || p.Tagline != "Rock the Night Away" {
		t.Fatalf("defaults lost: %+v", p)
	}
	if len(p.Members) != 4 || len(p.Projects) != 2 {
		t.Fatalf("members=%d projects=%d", len(p.Members), len(p.Projects))
	}
}
