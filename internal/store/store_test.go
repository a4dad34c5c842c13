package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestRecordAndRecent(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var want []Run
	for i, engine := range []string{"cpu", "gpu", "cpu"} {
		r, err := s.Record(ctx, Run{
			Backend:    "fallback",
			Engine:     engine,
			Width:      800,
			Height:     600,
			Iterations: 10,
			Elapsed:    time.Duration(i+1) * time.Millisecond,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if r.ID == "" {
			t.Fatal("Record() did not assign an ID")
		}
		want = append([]Run{r}, want...)
	}

	got, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recent() mismatch (-want +got):\n%s", diff)
	}

	got, err = s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Engine != "cpu" || got[1].Engine != "gpu" {
		t.Errorf("Recent(2) = %+v", got)
	}
}

func TestRecordKeepsExplicitID(t *testing.T) {
	s, _ := openTemp(t)
	r, err := s.Record(context.Background(), Run{ID: "fixed", Backend: "native", Engine: "gpu", Width: 1, Height: 1})
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != "fixed" || r.CreatedAt.IsZero() {
		t.Errorf("Record() = %+v", r)
	}
	if _, err := s.Record(context.Background(), r); err == nil {
		t.Error("duplicate ID accepted")
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()
	if _, err := s.Record(ctx, Run{Backend: "native", Engine: "gpu", Width: 4, Height: 4, Iterations: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	again, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	runs, err := again.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Engine != "gpu" {
		t.Errorf("after reopen Recent() = %+v", runs)
	}
}

func TestClosedStore(t *testing.T) {
	s, _ := openTemp(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if _, err := s.Record(context.Background(), Run{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Record() after Close = %v, want ErrClosed", err)
	}
	if _, err := s.Recent(context.Background(), 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Recent() after Close = %v, want ErrClosed", err)
	}
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Error("Open(\"\") succeeded")
	}
}
