package csvrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/muscatbay/meterbalance/internal/domain"
	"github.com/muscatbay/meterbalance/internal/engine"
	"github.com/muscatbay/meterbalance/internal/repo"
)

func TestNewFallback_LoadsEveryUtility(t *testing.T) {
	t.Parallel()

	r, err := NewFallback()
	if err != nil {
		t.Fatalf("NewFallback: %v", err)
	}
	if got, want := len(r.Utilities()), 3; got != want {
		t.Fatalf("utilities=%v want %d", r.Utilities(), want)
	}

	water, err := r.Load(context.Background(), domain.Water)
	if err != nil {
		t.Fatalf("Load water: %v", err)
	}
	if got, want := len(water.Zones), 7; got != want {
		t.Fatalf("zones=%d want %d", got, want)
	}
	if got, want := len(engine.AtLevel(water.Meters, domain.LevelL1)), 1; got != want {
		t.Fatalf("L1 meters=%d want %d", got, want)
	}
	if got, want := len(engine.OrderedMonths(water.Meters)), 13; got != want {
		t.Fatalf("months=%d want %d", got, want)
	}
	d44, ok := water.MeterByAccount("4300178")
	if !ok || !d44.BulkReaggregator {
		t.Fatalf("D-44 building bulk=%+v ok=%v", d44, ok)
	}
	if _, ok := water.Zone("Zone_03_(A)"); !ok {
		t.Fatalf("Zone_03_(A) not configured")
	}

	stp, err := r.Load(context.Background(), domain.STP)
	if err != nil {
		t.Fatalf("Load stp: %v", err)
	}
	if got, want := len(stp.Meters), 3; got != want {
		t.Fatalf("stp series=%d want %d", got, want)
	}
	if len(stp.Zones) != 0 {
		t.Fatalf("zones attached to stp catalog")
	}
}

func TestNewFromDir_PartialAndMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	body := "account,label,level,Jan-25\n1,main,L1,100\n2,broken,L1,x\n"
	if err := os.WriteFile(filepath.Join(dir, CatalogFile(domain.Water)), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := NewFromDir(dir)
	if err == nil {
		t.Fatalf("expected partial parse error")
	}
	if r == nil {
		t.Fatalf("expected repository despite partial parse")
	}
	c, err := r.Load(context.Background(), domain.Water)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := len(c.Meters), 1; got != want {
		t.Fatalf("meters=%d want %d", got, want)
	}

	if _, err := r.Load(context.Background(), domain.Electricity); !errors.Is(err, repo.ErrCatalogNotFound) {
		t.Fatalf("Load electricity err=%v want ErrCatalogNotFound", err)
	}
}

func TestNewFromDir_Empty(t *testing.T) {
	t.Parallel()

	if _, err := NewFromDir(t.TempDir()); !errors.Is(err, repo.ErrCatalogNotFound) {
		t.Fatalf("err=%v want ErrCatalogNotFound", err)
	}
}

func TestNewFromDir_DuplicateAccounts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	body := "account,label,level,Jan-25\n1,a,L3,1\n1,b,L3,2\n"
	if err := os.WriteFile(filepath.Join(dir, CatalogFile(domain.Water)), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFromDir(dir); err == nil {
		t.Fatalf("expected duplicate account error")
	}
}

func TestRepo_LoadReturnsCopy(t *testing.T) {
	t.Parallel()

	r := New(domain.Catalog{
		Utility: domain.Electricity,
		Meters:  []domain.Meter{{AccountNumber: "R1", Label: "Pump"}},
	})

	c, err := r.Load(context.Background(), domain.Electricity)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Meters[0].Label = "changed"

	again, _ := r.Load(context.Background(), domain.Electricity)
	if got, want := again.Meters[0].Label, "Pump"; got != want {
		t.Fatalf("label=%q want %q", got, want)
	}
}

func TestRepo_LoadHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Load(ctx, domain.Water); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}
