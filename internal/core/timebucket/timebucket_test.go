package timebucket

import (
	"math/rand"
	"reflect"
	"testing"
	"time"
)

type record struct {
	name      string
	createdAt time.Time
}

func createdAt(r record) time.Time { return r.createdAt }

func names(g Group[record]) []string {
	out := make([]string, 0, len(g.Items))
	for _, r := range g.Items {
		out = append(out, r.name)
	}
	return out
}

// 2025-06-15 14:30 local
var now = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
var today = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want Bucket
	}{
		{"now", now, Today},
		{"local midnight today", today, Today},
		{"one nanosecond before midnight", today.Add(-time.Nanosecond), Yesterday},
		{"one day ago", now.AddDate(0, 0, -1), Yesterday},
		{"three days ago", now.AddDate(0, 0, -3), Last7Days},
		{"six days ago", now.AddDate(0, 0, -6), Last7Days},
		{"exactly 7 days before midnight", today.AddDate(0, 0, -7), Last30Days},
		{"ten days ago", now.AddDate(0, 0, -10), Last30Days},
		{"exactly 30 days before midnight", today.AddDate(0, 0, -30), Last6Months},
		{"forty days ago", now.AddDate(0, 0, -40), Last6Months},
		{"exactly 6 months before midnight", today.AddDate(0, -6, 0), Last1Year},
		{"two hundred days ago", now.AddDate(0, 0, -200), Last1Year},
		{"exactly 1 year before midnight", today.AddDate(-1, 0, 0), Last2Years},
		{"five hundred days ago", now.AddDate(0, 0, -500), Last2Years},
		{"nine hundred days ago", now.AddDate(0, 0, -900), Last3Years},
		{"exactly 3 years before midnight", today.AddDate(-3, 0, 0), Older},
		{"ten years ago", now.AddDate(-10, 0, 0), Older},
		{"tomorrow falls through to the 7 day rule", now.AddDate(0, 0, 1), Last7Days},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.at, now); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.at, got, tt.want)
			}
		})
	}
}

func TestClassifyUsesLocationOfNow(t *testing.T) {
	hanoi := time.FixedZone("ICT", 7*60*60)
	localNow := time.Date(2025, 6, 15, 1, 0, 0, 0, hanoi)

	// 18:30 UTC on the 14th is 01:30 on the 15th in Hanoi
	at := time.Date(2025, 6, 14, 18, 30, 0, 0, time.UTC)
	if got := Classify(at, localNow); got != Today {
		t.Errorf("Classify() = %q, want Today", got)
	}

	// 16:59 UTC on the 14th is 23:59 on the 14th in Hanoi
	at = time.Date(2025, 6, 14, 16, 59, 0, 0, time.UTC)
	if got := Classify(at, localNow); got != Yesterday {
		t.Errorf("Classify() = %q, want Yesterday", got)
	}
}

func TestGroupByTimePeriods_Example(t *testing.T) {
	in := []record{
		{"A", now},
		{"B", now.AddDate(0, 0, -1)},
		{"C", now.AddDate(0, 0, -10)},
		{"D", now.AddDate(0, 0, -40)},
	}

	got := GroupByTimePeriods(in, createdAt, now)

	want := map[Bucket][]string{
		Today:       {"A"},
		Yesterday:   {"B"},
		Last30Days:  {"C"},
		Last6Months: {"D"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d groups, want %d: %+v", len(got), len(want), got)
	}
	for _, g := range got {
		if !reflect.DeepEqual(names(g), want[g.Bucket]) {
			t.Errorf("bucket %q = %v, want %v", g.Bucket, names(g), want[g.Bucket])
		}
	}

	var order []Bucket
	for _, g := range got {
		order = append(order, g.Bucket)
	}
	wantOrder := []Bucket{Today, Yesterday, Last30Days, Last6Months}
	if !reflect.DeepEqual(order, wantOrder) {
		t.Errorf("bucket order = %v, want %v", order, wantOrder)
	}
}

func TestGroupByTimePeriods_StablePartition(t *testing.T) {
	in := []record{
		{"old-1", now.AddDate(0, 0, -12)},
		{"today-1", now.Add(-time.Hour)},
		{"old-2", now.AddDate(0, 0, -20)},
		{"today-2", now.Add(-3 * time.Hour)},
		{"today-3", today},
	}

	got := GroupByTimePeriods(in, createdAt, now)
	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	if want := []string{"today-1", "today-2", "today-3"}; !reflect.DeepEqual(names(got[0]), want) {
		t.Errorf("Today = %v, want %v (input order, not sorted)", names(got[0]), want)
	}
	if want := []string{"old-1", "old-2"}; !reflect.DeepEqual(names(got[1]), want) {
		t.Errorf("Last 30 days = %v, want %v", names(got[1]), want)
	}
}

func TestGroupByTimePeriods_Empty(t *testing.T) {
	if got := GroupByTimePeriods(nil, createdAt, now); len(got) != 0 {
		t.Errorf("expected no groups, got %+v", got)
	}
}

func TestGroupByTimePeriods_TotalCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	in := make([]record, 500)
	for i := range in {
		offset := time.Duration(rng.Int63n(int64(5 * 365 * 24 * time.Hour)))
		in[i] = record{name: string(rune('a'+i%26)) + time.Duration(i).String(), createdAt: now.Add(-offset)}
	}

	groups := GroupByTimePeriods(in, createdAt, now)

	seen := make(map[string]int)
	total := 0
	for _, g := range groups {
		if len(g.Items) == 0 {
			t.Errorf("empty bucket %q returned", g.Bucket)
		}
		for _, r := range g.Items {
			seen[r.name]++
			total++
			if b := Classify(r.createdAt, now); b != g.Bucket {
				t.Errorf("%s placed in %q but classifies as %q", r.name, g.Bucket, b)
			}
		}
	}
	if total != len(in) {
		t.Errorf("grouped %d items, want %d", total, len(in))
	}
	for _, r := range in {
		if seen[r.name] != 1 {
			t.Errorf("%s appears %d times", r.name, seen[r.name])
		}
	}
}
