// Package timebucket groups timestamped records into named recency buckets
// ("Today", "Yesterday", "Last 7 days", ...) relative to the local date.
//
// Comparisons are made on dates truncated to local midnight and are strict:
// a record dated exactly on a cutoff goes to the next-older bucket (exactly
// 7 days ago is "Last 30 days", not "Last 7 days").
package timebucket

import "time"

// Bucket is the display name of a recency group
type Bucket string

const (
	Today       Bucket = "Today"
	Yesterday   Bucket = "Yesterday"
	Last7Days   Bucket = "Last 7 days"
	Last30Days  Bucket = "Last 30 days"
	Last6Months Bucket = "Last 6 months"
	Last1Year   Bucket = "Last 1 year"
	Last2Years  Bucket = "Last 2 years"
	Last3Years  Bucket = "Last 3 years"
	Older       Bucket = "Older"
)

// Order is the fixed display order of buckets
var Order = []Bucket{
	Today,
	Yesterday,
	Last7Days,
	Last30Days,
	Last6Months,
	Last1Year,
	Last2Years,
	Last3Years,
	Older,
}

// Group is one non-empty bucket and its members in input order
type Group[T any] struct {
	Bucket Bucket
	Items  []T
}

// cutoffs are the local-midnight boundaries derived from "now"
type cutoffs struct {
	loc       *time.Location
	today     time.Time
	yesterday time.Time
	days7     time.Time
	days30    time.Time
	months6   time.Time
	years1    time.Time
	years2    time.Time
	years3    time.Time
}

func newCutoffs(now time.Time) cutoffs {
	loc := now.Location()
	today := midnight(now, loc)
	return cutoffs{
		loc:       loc,
		today:     today,
		yesterday: today.AddDate(0, 0, -1),
		days7:     today.AddDate(0, 0, -7),
		days30:    today.AddDate(0, 0, -30),
		months6:   today.AddDate(0, -6, 0),
		years1:    today.AddDate(-1, 0, 0),
		years2:    today.AddDate(-2, 0, 0),
		years3:    today.AddDate(-3, 0, 0),
	}
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// classify applies the rules in order; the first match wins
func (c cutoffs) classify(createdAt time.Time) Bucket {
	d := midnight(createdAt, c.loc)
	switch {
	case d.Equal(c.today):
		return Today
	case d.Equal(c.yesterday):
		return Yesterday
	case d.After(c.days7):
		return Last7Days
	case d.After(c.days30):
		return Last30Days
	case d.After(c.months6):
		return Last6Months
	case d.After(c.years1):
		return Last1Year
	case d.After(c.years2):
		return Last2Years
	case d.After(c.years3):
		return Last3Years
	default:
		return Older
	}
}

// Classify returns the bucket for a single timestamp relative to now.
// The local date of now's location is used for truncation.
func Classify(createdAt, now time.Time) Bucket {
	return newCutoffs(now).classify(createdAt)
}

// GroupByTimePeriods partitions items into buckets in Order. Each bucket keeps
// the input's relative order and empty buckets are omitted.
func GroupByTimePeriods[T any](items []T, createdAt func(T) time.Time, now time.Time) []Group[T] {
	c := newCutoffs(now)

	members := make(map[Bucket][]T, len(Order))
	for _, item := range items {
		b := c.classify(createdAt(item))
		members[b] = append(members[b], item)
	}

	groups := make([]Group[T], 0, len(members))
	for _, b := range Order {
		if len(members[b]) == 0 {
			continue
		}
		groups = append(groups, Group[T]{Bucket: b, Items: members[b]})
	}
	return groups
}
