package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mkSnapshotDir(t *testing.T, destRoot string, date time.Time, baseName string) {
	t.Helper()
	dayPath := filepath.Join(destRoot, date.Format("2006"), date.Format("01"), date.Format("02"))
	if err := os.MkdirAll(filepath.Join(dayPath, baseName), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
}

func TestDiscoverFindsAllSnapshotsNewestFirst(t *testing.T) {
	root := t.TempDir()
	mkSnapshotDir(t, root, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "host")
	mkSnapshotDir(t, root, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "host")
	mkSnapshotDir(t, root, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), "host")

	snapshots, err := Discover(root, "host")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snapshots))
	}
	if !snapshots[0].Date.After(snapshots[1].Date) || !snapshots[1].Date.After(snapshots[2].Date) {
		t.Errorf("expected newest-first order, got %v", snapshots)
	}
}

func TestDiscoverSkipsMismatchedBaseName(t *testing.T) {
	root := t.TempDir()
	mkSnapshotDir(t, root, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "other-host")

	snapshots, err := Discover(root, "host")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(snapshots) != 0 {
		t.Errorf("expected no snapshots for a mismatched base name, got %v", snapshots)
	}
}

func TestDiscoverEmptyDestRoot(t *testing.T) {
	root := t.TempDir()
	snapshots, err := Discover(filepath.Join(root, "missing"), "host")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if snapshots != nil {
		t.Errorf("expected nil for a missing dest root, got %v", snapshots)
	}
}

func daySnapshot(daysAgo int) Snapshot {
	base := time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC)
	return Snapshot{Path: "/dest/x", Date: base.AddDate(0, 0, -daysAgo)}
}

func TestApplyKeepsMostRecentDailyOutright(t *testing.T) {
	var snaps []Snapshot
	for i := 0; i < 10; i++ {
		snaps = append(snaps, daySnapshot(i))
	}
	keep, remove := Apply(snaps, Policy{KeepDaily: 5})
	if len(keep) != 5 {
		t.Errorf("got %d kept, want 5", len(keep))
	}
	if len(remove) != 5 {
		t.Errorf("got %d removed, want 5", len(remove))
	}
}

func TestApplyKeepsOneSnapshotPerWeekAfterDaily(t *testing.T) {
	var snaps []Snapshot
	for i := 0; i < 30; i++ {
		snaps = append(snaps, daySnapshot(i))
	}
	keep, _ := Apply(snaps, Policy{KeepDaily: 3, KeepWeekly: 4})
	if len(keep) != 7 {
		t.Errorf("got %d kept, want 3 daily + 4 weekly = 7, got keep=%v", len(keep), keep)
	}
}

func TestApplyWithNoPolicyKeepsNothing(t *testing.T) {
	snaps := []Snapshot{daySnapshot(0), daySnapshot(1)}
	keep, remove := Apply(snaps, Policy{})
	if len(keep) != 0 {
		t.Errorf("expected nothing kept with an all-zero policy, got %v", keep)
	}
	if len(remove) != 2 {
		t.Errorf("expected everything removed with an all-zero policy, got %v", remove)
	}
}

func TestRemoveDeletesDirectories(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "2026", "01", "01")
	if err := os.MkdirAll(filepath.Join(target, "host"), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	errs := Remove([]Snapshot{{Path: target}})
	if len(errs) != 0 {
		t.Fatalf("Remove: %v", errs)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("expected the snapshot directory to be removed")
	}
}
