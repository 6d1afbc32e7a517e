package core

import "sort"

const (
	// DetailSummary keeps per-dimension totals only (month/year views).
	DetailSummary DetailLevel = "summary"
	// DetailDetailed additionally retains individual amounts and notes
	// (daily view). The asymmetry keeps month/year responses small.
	DetailDetailed DetailLevel = "detailed"
)

// DetailLevel selects how much per-record data a bucket group retains.
type DetailLevel string

// GroupTotal accumulates one secondary dimension (category or transaction
// kind) within a bucket. Amounts and Notes are populated only at
// DetailDetailed.
type GroupTotal struct {
	Dimension string    `json:"dimension"`
	Total     float64   `json:"total_amount"`
	Amounts   []float64 `json:"amounts,omitempty"`
	Notes     []string  `json:"notes,omitempty"`
}

// Bucket is one time window with its grouped totals. Groups appear in
// first-seen order, buckets in ascending chronological order.
type Bucket struct {
	Key    string       `json:"period"`
	Groups []GroupTotal `json:"groups"`
}

type entry struct {
	key    string
	dim    string
	amount float64
	note   string
}

// GroupExpenses buckets expense records by granularity and category.
// An empty record set yields an empty bucket sequence, never an error.
func GroupExpenses(records []ExpenseRecord, g Granularity, detail DetailLevel) []Bucket {
	entries := make([]entry, len(records))
	for i, r := range records {
		entries[i] = entry{
			key:    g.Key(r.Date),
			dim:    string(r.Category),
			amount: r.Amount.InexactFloat64(),
			note:   r.Note,
		}
	}
	return groupEntries(entries, detail)
}

// GroupLendRecords buckets lend/return records by granularity and
// transaction kind.
func GroupLendRecords(records []LendRecord, g Granularity, detail DetailLevel) []Bucket {
	entries := make([]entry, len(records))
	for i, r := range records {
		entries[i] = entry{
			key:    g.Key(r.Date),
			dim:    string(r.Kind),
			amount: r.Amount.InexactFloat64(),
			note:   r.Note,
		}
	}
	return groupEntries(entries, detail)
}

func groupEntries(entries []entry, detail DetailLevel) []Bucket {
	buckets := make(map[string]*Bucket)
	groupIdx := make(map[string]map[string]int)
	var keys []string

	for _, e := range entries {
		b, ok := buckets[e.key]
		if !ok {
			b = &Bucket{Key: e.key}
			buckets[e.key] = b
			groupIdx[e.key] = make(map[string]int)
			keys = append(keys, e.key)
		}

		idx, ok := groupIdx[e.key][e.dim]
		if !ok {
			idx = len(b.Groups)
			b.Groups = append(b.Groups, GroupTotal{Dimension: e.dim})
			groupIdx[e.key][e.dim] = idx
		}

		g := &b.Groups[idx]
		g.Total += e.amount
		if detail == DetailDetailed {
			g.Amounts = append(g.Amounts, e.amount)
			g.Notes = append(g.Notes, e.note)
		}
	}

	// Zero-padded keys sort chronologically as strings.
	sort.Strings(keys)

	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		for i := range b.Groups {
			b.Groups[i].Total = Round2(b.Groups[i].Total)
		}
		out = append(out, *b)
	}
	return out
}

// Chart is the flattened category-total shape consumed by chart endpoints.
type Chart struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// FlattenChart collapses bucketed totals into one category-total pair per
// dimension across the whole filtered range. The collapse across periods is
// deliberate: chart endpoints show range-wide category weight, not a series.
func FlattenChart(buckets []Bucket) Chart {
	idx := make(map[string]int)
	chart := Chart{Labels: []string{}, Values: []float64{}}
	for _, b := range buckets {
		for _, g := range b.Groups {
			i, ok := idx[g.Dimension]
			if !ok {
				i = len(chart.Labels)
				idx[g.Dimension] = i
				chart.Labels = append(chart.Labels, g.Dimension)
				chart.Values = append(chart.Values, 0)
			}
			chart.Values[i] += g.Total
		}
	}
	for i := range chart.Values {
		chart.Values[i] = Round2(chart.Values[i])
	}
	return chart
}
