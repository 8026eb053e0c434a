package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/dataset"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestStore() *Store {
	return NewWithClock(fixedClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)})
}

func rows(n int) []dataset.Record {
	out := make([]dataset.Record, n)
	for i := range out {
		r := dataset.NewRecord()
		r.Set("n", dataset.Number(float64(i)))
		out[i] = r
	}
	return out
}

func TestDefaults(t *testing.T) {
	s := newTestStore()

	r := s.Report()
	if r.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", r.Title, DefaultTitle)
	}
	if r.Date != "2026-03-14" {
		t.Errorf("Date = %q, want %q", r.Date, "2026-03-14")
	}
	if len(r.Charts) != 0 {
		t.Errorf("Charts = %d, want 0", len(r.Charts))
	}
	for _, slot := range dataset.Slots {
		if _, ok := s.Dataset(slot); ok {
			t.Errorf("slot %s populated at start", slot)
		}
		if got := s.UploadStatus(slot).Status; got != StatusEmpty {
			t.Errorf("upload status %s = %q, want empty", slot, got)
		}
	}
	if s.ReadyForCharts() {
		t.Error("ReadyForCharts() = true on an empty store")
	}
}

func TestSetDataset_ReplacesWholesale(t *testing.T) {
	s := newTestStore()

	s.SetDataset(dataset.Keywords, rows(3))
	s.SetDataset(dataset.Keywords, rows(1))

	got, ok := s.Dataset(dataset.Keywords)
	if !ok {
		t.Fatal("keywords not populated")
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
	if up := s.Uploaded(); len(up) != 1 || up[0] != dataset.Keywords {
		t.Errorf("Uploaded() = %v, want [keywords]", up)
	}
}

func TestSetDataset_UnknownSlotIgnored(t *testing.T) {
	s := newTestStore()
	calls := 0
	s.Subscribe(func(Snapshot) { calls++ })

	s.SetDataset(dataset.Slot("nope"), rows(2))

	if calls != 0 {
		t.Errorf("observers notified %d times for ignored write", calls)
	}
	if len(s.Uploaded()) != 0 {
		t.Errorf("Uploaded() = %v, want none", s.Uploaded())
	}
}

func TestSetDataset_CopiesInput(t *testing.T) {
	s := newTestStore()
	in := rows(1)
	s.SetDataset(dataset.Keywords, in)
	in[0].Set("n", dataset.Number(42))

	got, _ := s.Dataset(dataset.Keywords)
	v, _ := got[0].Get("n")
	if f, _ := v.Float(); f != 0 {
		t.Errorf("stored value changed through caller's slice: %v", f)
	}
}

func TestAddChartDefinitions_Replaces(t *testing.T) {
	s := newTestStore()
	s.AddChartDefinitions([]chart.Definition{{ID: "a"}, {ID: "b"}})
	s.AddChartDefinitions([]chart.Definition{{ID: "c"}})

	charts := s.Charts()
	if len(charts) != 1 || charts[0].ID != "c" {
		t.Errorf("Charts() = %+v, want [c]", charts)
	}
}

func TestUpdateReportMetadata_ShallowMerge(t *testing.T) {
	s := newTestStore()
	s.AddChartDefinitions([]chart.Definition{{ID: "a"}})

	title := "Q1 Social"
	s.UpdateReportMetadata(ReportPatch{Title: &title})

	r := s.Report()
	if r.Title != "Q1 Social" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.Date != "2026-03-14" {
		t.Errorf("Date changed to %q", r.Date)
	}
	if len(r.Charts) != 1 {
		t.Errorf("Charts touched by metadata update: %d", len(r.Charts))
	}
}

func TestClearAll_RestoresDefaultsAndIsIdempotent(t *testing.T) {
	s := newTestStore()
	for _, slot := range dataset.Slots {
		s.SetDataset(slot, rows(2))
		s.SetUploadStatus(slot, "f.csv", StatusSuccess)
	}
	title := "Edited"
	s.UpdateReportMetadata(ReportPatch{Title: &title})
	s.AddChartDefinitions([]chart.Definition{{ID: "a"}})
	if !s.ReadyForCharts() {
		t.Fatal("ReadyForCharts() = false with every slot populated")
	}

	fresh := newTestStore().Snapshot()
	for i := 0; i < 3; i++ {
		s.ClearAll()
		snap := s.Snapshot()
		for _, slot := range dataset.Slots {
			if snap.Datasets[slot] != nil {
				t.Errorf("pass %d: slot %s not cleared", i, slot)
			}
			if snap.Uploads[slot] != fresh.Uploads[slot] {
				t.Errorf("pass %d: upload status %s = %+v", i, slot, snap.Uploads[slot])
			}
		}
		if snap.Report.Title != fresh.Report.Title || snap.Report.Date != fresh.Report.Date {
			t.Errorf("pass %d: report = %+v, want %+v", i, snap.Report, fresh.Report)
		}
		if len(snap.Report.Charts) != 0 {
			t.Errorf("pass %d: charts not cleared", i)
		}
		if len(snap.Uploaded) != 0 {
			t.Errorf("pass %d: uploaded list not cleared", i)
		}
	}
}

func TestSubscribe_SeesCommittedState(t *testing.T) {
	s := newTestStore()
	var seen []int
	cancel := s.Subscribe(func(snap Snapshot) {
		seen = append(seen, len(snap.Report.Charts))
	})

	s.AddChartDefinitions([]chart.Definition{{ID: "a"}})
	s.AddChartDefinitions([]chart.Definition{{ID: "a"}, {ID: "b"}})
	cancel()
	s.ClearAll()

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("observer saw %v, want [1 2]", seen)
	}
}

func TestAppendChartDefinitions_ConcurrentAppendsAreKept(t *testing.T) {
	s := newTestStore()
	s.AddChartDefinitions([]chart.Definition{{ID: "first"}})

	var (
		mu      sync.Mutex
		lastSeq uint64
		ordered = true
		final   int
	)
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if snap.Seq <= lastSeq {
			ordered = false
		}
		lastSeq = snap.Seq
		final = len(snap.Report.Charts)
	})

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AppendChartDefinitions(chart.Definition{ID: fmt.Sprintf("c%d", i)})
		}(i)
	}
	wg.Wait()

	charts := s.Charts()
	if len(charts) != n+1 || charts[0].ID != "first" {
		t.Fatalf("store holds %d charts (first %q), want %d starting with first", len(charts), charts[0].ID, n+1)
	}
	seen := make(map[string]bool, len(charts))
	for _, c := range charts {
		seen[c.ID] = true
	}
	if len(seen) != n+1 {
		t.Errorf("chart ids not unique: %d distinct", len(seen))
	}

	mu.Lock()
	defer mu.Unlock()
	if !ordered {
		t.Error("observer saw a snapshot older than one already delivered")
	}
	if final != n+1 {
		t.Errorf("last delivered snapshot has %d charts, want %d", final, n+1)
	}
}

func TestSnapshotSeqIncreasesPerCommit(t *testing.T) {
	s := newTestStore()
	before := s.Snapshot().Seq
	s.SetDataset(dataset.Keywords, rows(1))
	s.ClearAll()
	if got := s.Snapshot().Seq; got != before+2 {
		t.Errorf("Seq = %d, want %d", got, before+2)
	}
}

func TestStoreSatisfiesBuilderSource(t *testing.T) {
	s := newTestStore()
	rec := dataset.NewRecord()
	rec.Set("Month", dataset.String("Jan"))
	rec.Set("Sales", dataset.Number(10))
	s.SetDataset(dataset.CombinedSources, []dataset.Record{rec})

	b := chart.NewBuilder(s)
	def, err := b.Create(chart.Selection{Slot: dataset.CombinedSources, X: 0, Y: 1, Kind: chart.Bar})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if charts := s.Charts(); len(charts) != 1 || charts[0].ID != def.ID {
		t.Errorf("store charts = %+v", charts)
	}
}
