package txscope

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	mdwerror "github.com/msto63/itemdb/foundation/core/error"
	mdwlog "github.com/msto63/itemdb/foundation/core/log"
	"github.com/msto63/itemdb/internal/boundary"
	"github.com/msto63/itemdb/internal/dberr"
	"github.com/msto63/itemdb/internal/metrics"
	"github.com/msto63/itemdb/internal/session"
	"github.com/msto63/itemdb/internal/session/sessiontest"
)

type calls struct {
	commits, rollbacks, closes int
}

func checkCalls(t *testing.T, sess *sessiontest.Fake, want calls) {
	t.Helper()

	got := calls{sess.Commits, sess.Rollbacks, sess.Closes}
	if got != want {
		t.Errorf("commits/rollbacks/closes = %+v, want %+v", got, want)
	}
}

func textLogger(buf *bytes.Buffer) *mdwlog.Logger {
	return mdwlog.NewWithConfig(mdwlog.Config{Level: mdwlog.LevelDebug, Format: mdwlog.FormatText, Output: buf})
}

func TestWithin_Success(t *testing.T) {
	sess := sessiontest.New()
	scope := New(sessiontest.Factory(sess))

	err := scope.Within(context.Background(), func(session.Session) error { return nil })

	if err != nil {
		t.Fatalf("Within() error = %v", err)
	}
	checkCalls(t, sess, calls{commits: 1, closes: 1})
}

func TestWithin_Failure(t *testing.T) {
	var buf bytes.Buffer
	sess := sessiontest.New()
	scope := New(sessiontest.Factory(sess), WithLogger(textLogger(&buf)))
	failure := errors.New("insert failed")

	err := scope.Within(context.Background(), func(session.Session) error { return failure })

	if err != failure {
		t.Errorf("Within() error = %v, want the original failure", err)
	}
	checkCalls(t, sess, calls{rollbacks: 1, closes: 1})
	if !strings.Contains(buf.String(), "transaction rolled back due to error") {
		t.Errorf("log missing rollback warning:\n%s", buf.String())
	}
}

func TestWithin_CommitFailure(t *testing.T) {
	var buf bytes.Buffer
	sess := sessiontest.New()
	sess.CommitErr = errors.New("could not serialize access")
	scope := New(sessiontest.Factory(sess), WithLogger(textLogger(&buf)))

	err := scope.Within(context.Background(), func(session.Session) error { return nil })

	if err != sess.CommitErr {
		t.Errorf("Within() error = %v, want the commit error", err)
	}
	checkCalls(t, sess, calls{commits: 1, rollbacks: 1, closes: 1})
	if !strings.Contains(buf.String(), "commit failed, rolled back") {
		t.Errorf("log missing commit failure:\n%s", buf.String())
	}
}

func TestWithin_RollbackAlreadyDone(t *testing.T) {
	sess := sessiontest.New()
	scope := New(sessiontest.Factory(sess))

	scope.Within(context.Background(), func(s session.Session) error {
		s.Rollback()
		return errors.New("failed")
	})

	checkCalls(t, sess, calls{rollbacks: 1, closes: 1})
}

func TestWithin_Panic(t *testing.T) {
	sess := sessiontest.New()
	scope := New(sessiontest.Factory(sess))

	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("recover() = %v, want boom", r)
		}
		checkCalls(t, sess, calls{rollbacks: 1, closes: 1})
	}()

	scope.Within(context.Background(), func(session.Session) error { panic("boom") })
}

func TestWithin_PanicDuringCommitClosesOnce(t *testing.T) {
	sess := sessiontest.New()
	sess.CommitPanic = "driver crashed"
	scope := New(sessiontest.Factory(sess))

	defer func() {
		if r := recover(); r != "driver crashed" {
			t.Errorf("recover() = %v, want driver crashed", r)
		}
		checkCalls(t, sess, calls{commits: 1, closes: 1})
	}()

	scope.Within(context.Background(), func(session.Session) error { return nil })
}

func TestWithin_FactoryReturnsNilSession(t *testing.T) {
	scope := New(session.FactoryFunc(func(ctx context.Context) (session.Session, error) {
		return nil, nil
	}))
	called := false

	err := scope.Within(context.Background(), func(session.Session) error {
		called = true
		return nil
	})

	if !errors.Is(err, dberr.ErrNoSession) {
		t.Errorf("Within() error = %v, want ErrNoSession", err)
	}
	if called {
		t.Error("fn ran without a session")
	}
}

func TestWithin_EnterFailure(t *testing.T) {
	scope := New(sessiontest.Factory())
	called := false

	err := scope.Within(context.Background(), func(session.Session) error {
		called = true
		return nil
	})

	if err == nil {
		t.Error("Within() error = nil, want acquisition error")
	}
	if called {
		t.Error("fn ran without a session")
	}
}

func TestExit_CloseErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	sess := sessiontest.New()
	sess.CloseErr = errors.New("close failed")
	scope := New(sessiontest.Factory(sess), WithLogger(textLogger(&buf)))

	got, err := scope.Enter(context.Background())
	if err != nil {
		t.Fatalf("Enter() error = %v", err)
	}
	if err := scope.Exit(got, nil); err != nil {
		t.Errorf("Exit() error = %v, want nil", err)
	}
	if !strings.Contains(buf.String(), "failed to close session") {
		t.Errorf("log missing close failure:\n%s", buf.String())
	}
}

var getItem = boundary.Op{Name: "get_item", Resource: "Item"}

func TestDo_Success(t *testing.T) {
	sess := sessiontest.New()
	reg := prometheus.NewRegistry()
	observer := metrics.NewPrometheus(reg)
	scope := New(sessiontest.Factory(sess), WithObserver(observer))

	got, err := Do(context.Background(), scope, boundary.New(), getItem, int64(1),
		func(ctx context.Context, s session.Session, id int64) (string, error) {
			return "widget", nil
		})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "widget" {
		t.Errorf("Do() = %v, want widget", got)
	}
	checkCalls(t, sess, calls{commits: 1, closes: 1})

	lines, _ := metrics.Summary(reg)
	if len(lines) != 1 || lines[0] != "itemdb_commits_total 1" {
		t.Errorf("Summary() = %v", lines)
	}
}

func TestDo_FailureRollsBackOnce(t *testing.T) {
	sess := sessiontest.New()
	scope := New(sessiontest.Factory(sess))

	_, err := Do(context.Background(), scope, boundary.New(), getItem, int64(42),
		func(ctx context.Context, s session.Session, id int64) (string, error) {
			return "", sql.ErrNoRows
		})

	if !errors.Is(err, dberr.ErrNotFound) {
		t.Fatalf("Do() error = %v, want not found", err)
	}
	if err.(*dberr.Error).Message() != "Item not found (ID: 42)" {
		t.Errorf("Message() = %v", err.(*dberr.Error).Message())
	}
	checkCalls(t, sess, calls{rollbacks: 1, closes: 1})
}

func TestDo_CommitFailureIsClassified(t *testing.T) {
	sess := sessiontest.New()
	sess.CommitErr = errors.New("server closed the connection unexpectedly")
	scope := New(sessiontest.Factory(sess))

	_, err := Do(context.Background(), scope, boundary.New(), getItem, int64(1),
		func(ctx context.Context, s session.Session, id int64) (string, error) {
			return "widget", nil
		})

	var domainErr *dberr.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("Do() error = %v, want *dberr.Error", err)
	}
	if domainErr.Code() != mdwerror.CodeDBConnection {
		t.Errorf("Code() = %v, want DB_CONNECTION", domainErr.Code())
	}
	if domainErr.Operation() != "get_item" {
		t.Errorf("Operation() = %v, want get_item", domainErr.Operation())
	}
	if !errors.Is(err, sess.CommitErr) {
		t.Error("commit error is not the cause")
	}
	checkCalls(t, sess, calls{commits: 1, rollbacks: 1, closes: 1})
}
