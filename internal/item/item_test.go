package item

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	mdwerror "github.com/msto63/itemdb/foundation/core/error"
	"github.com/msto63/itemdb/internal/boundary"
	"github.com/msto63/itemdb/internal/dberr"
	"github.com/msto63/itemdb/internal/session"
	"github.com/msto63/itemdb/internal/txscope"
)

var epoch = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db      *sql.DB
	clock   *clockwork.FakeClock
	repo    *Repository
	service *Service
	factory session.Factory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := session.Open(session.Config{Driver: session.DriverSQLite, Path: filepath.Join(t.TempDir(), "items.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(context.Background(), db, DialectSQLite); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	clock := clockwork.NewFakeClockAt(epoch)
	factory := session.NewSQLFactory(db, nil)
	repo := NewRepository(boundary.New(), clock, DialectSQLite)

	return &fixture{
		db:      db,
		clock:   clock,
		repo:    repo,
		service: NewService(txscope.New(factory), repo),
		factory: factory,
	}
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()

	var n int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func codeOf(err error) mdwerror.Code {
	var domainErr *dberr.Error
	if errors.As(err, &domainErr) {
		return domainErr.Code()
	}
	return ""
}

func strPtr(s string) *string { return &s }

func TestService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, CreateParams{Name: "widget", Description: "a widget"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 || created.Version != 1 {
		t.Errorf("Create() = %+v, want an id and version 1", created)
	}

	got, err := f.service.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "widget" || got.Description != "a widget" {
		t.Errorf("Get() = %+v", got)
	}
	if !got.CreatedAt.Equal(epoch) || !got.UpdatedAt.Equal(epoch) {
		t.Errorf("timestamps = %v/%v, want %v", got.CreatedAt, got.UpdatedAt, epoch)
	}
}

func TestService_GetMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Get(context.Background(), 42)

	if codeOf(err) != mdwerror.CodeDBNotFound {
		t.Fatalf("Get() error = %v, want DB_NOT_FOUND", err)
	}
	domainErr := err.(*dberr.Error)
	if domainErr.Message() != "Item not found (ID: 42)" {
		t.Errorf("Message() = %v", domainErr.Message())
	}
	if domainErr.Operation() != "get_item" {
		t.Errorf("Operation() = %v, want get_item", domainErr.Operation())
	}
}

func TestService_DuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.Create(ctx, CreateParams{Name: "widget"}); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	_, err := f.service.Create(ctx, CreateParams{Name: "widget"})

	if codeOf(err) != mdwerror.CodeDBConstraint {
		t.Fatalf("Create() error = %v, want DB_CONSTRAINT", err)
	}
	if c, _ := err.(*dberr.Error).Detail("constraint"); c != "UNIQUE" {
		t.Errorf("constraint = %v, want UNIQUE", c)
	}
	if got := f.count(t); got != 1 {
		t.Errorf("rows = %v, want 1", got)
	}
}

func TestService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.service.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("List() = %v, want empty", empty)
	}

	for _, name := range []string{"a", "b", "c"} {
		if _, err := f.service.Create(ctx, CreateParams{Name: name}); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	items, err := f.service.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("List() returned %d items, want 3", len(items))
	}
	for i, name := range []string{"a", "b", "c"} {
		if items[i].Name != name {
			t.Errorf("items[%d].Name = %v, want %v", i, items[i].Name, name)
		}
	}
}

func TestService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, _ := f.service.Create(ctx, CreateParams{Name: "widget", Description: "old"})
	f.clock.Advance(time.Minute)

	updated, err := f.service.Update(ctx, UpdateParams{ID: created.ID, Description: strPtr("new"), Version: 1})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Version != 2 || updated.Name != "widget" || updated.Description != "new" {
		t.Errorf("Update() = %+v", updated)
	}

	got, _ := f.service.Get(ctx, created.ID)
	if got.Version != 2 || got.Description != "new" {
		t.Errorf("stored item = %+v", got)
	}
	if !got.UpdatedAt.Equal(epoch.Add(time.Minute)) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, epoch.Add(time.Minute))
	}
}

func TestService_UpdateStaleVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, _ := f.service.Create(ctx, CreateParams{Name: "widget", Description: "old"})
	if _, err := f.service.Update(ctx, UpdateParams{ID: created.ID, Name: strPtr("gadget")}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	_, err := f.service.Update(ctx, UpdateParams{ID: created.ID, Description: strPtr("lost update"), Version: 1})

	if !errors.Is(err, dberr.ErrOptimisticLock) {
		t.Fatalf("Update() error = %v, want optimistic lock", err)
	}
	if !errors.Is(err, session.ErrStaleData) {
		t.Error("ErrStaleData is not the cause")
	}
	got, _ := f.service.Get(ctx, created.ID)
	if got.Description != "old" || got.Version != 2 {
		t.Errorf("stored item = %+v, want unchanged", got)
	}
}

func TestService_UpdateMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), UpdateParams{ID: 9, Name: strPtr("x")})

	if codeOf(err) != mdwerror.CodeDBNotFound {
		t.Errorf("Update() error = %v, want DB_NOT_FOUND", err)
	}
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, _ := f.service.Create(ctx, CreateParams{Name: "widget"})
	if err := f.service.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := f.count(t); got != 0 {
		t.Errorf("rows = %v, want 0", got)
	}

	err := f.service.Delete(ctx, created.ID)
	if codeOf(err) != mdwerror.CodeDBNotFound {
		t.Errorf("second Delete() error = %v, want DB_NOT_FOUND", err)
	}
}

func TestRepository_FailureRollsBackSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.factory.NewSession(ctx)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	if _, err := f.repo.Create(ctx, sess, CreateParams{Name: "widget"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err = f.repo.Create(ctx, sess, CreateParams{Name: "widget"})
	if codeOf(err) != mdwerror.CodeDBConstraint {
		t.Fatalf("Create() error = %v, want DB_CONSTRAINT", err)
	}
	if sess.InTransaction() {
		t.Error("boundary left the transaction active")
	}
	sess.Close()

	if got := f.count(t); got != 0 {
		t.Errorf("rows = %v, want 0 after rollback", got)
	}
}

func TestRepository_NoSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.Get(context.Background(), nil, 1)

	if !errors.Is(err, dberr.ErrNoSession) {
		t.Errorf("Get() error = %v, want ErrNoSession", err)
	}
}

func TestDialect(t *testing.T) {
	tests := []struct {
		driver string
		want   Dialect
	}{
		{"sqlite3", DialectSQLite},
		{"", DialectSQLite},
		{"pgx", DialectPostgres},
		{"postgres", DialectPostgres},
		{"mysql", DialectMySQL},
	}
	for _, tt := range tests {
		if got := DialectFor(tt.driver); got != tt.want {
			t.Errorf("DialectFor(%q) = %v, want %v", tt.driver, got, tt.want)
		}
	}

	query := `UPDATE items SET name = ? WHERE id = ? AND version = ?`
	if got := DialectPostgres.rebind(query); got != `UPDATE items SET name = $1 WHERE id = $2 AND version = $3` {
		t.Errorf("rebind() = %v", got)
	}
	if got := DialectMySQL.rebind(query); got != query {
		t.Errorf("rebind() = %v, want unchanged", got)
	}
}

func TestMigrate_UnknownDialect(t *testing.T) {
	f := newFixture(t)

	if err := Migrate(context.Background(), f.db, Dialect("oracle")); err == nil {
		t.Error("Migrate() error = nil, want error")
	}
}
