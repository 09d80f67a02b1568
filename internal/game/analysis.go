package game

import (
	"time"
)

// AnalysisKind names an analysis predicate.
type AnalysisKind string

const (
	AnalysisSupplierAnomaly AnalysisKind = "supplier_anomaly"
	AnalysisTimingGap       AnalysisKind = "timing_gap"
	AnalysisShareThreshold  AnalysisKind = "share_threshold"
)

// Analysis is a predicate over the structured data of collected evidence. Implementations must be pure so that
// re-running an analysis on unchanged evidence gives the same answer.
type Analysis interface {
	Kind() AnalysisKind
	passes(data []EvidenceData) bool
}

// SupplierAnomaly passes when some supplier's invoices total more than MinTotal and more than
// MinMissingReceiptRatio of them lack a receipt.
type SupplierAnomaly struct {
	MinTotal               float64
	MinMissingReceiptRatio float64
}

func (SupplierAnomaly) Kind() AnalysisKind { return AnalysisSupplierAnomaly }

func (a SupplierAnomaly) passes(data []EvidenceData) bool {
	type tally struct {
		total          float64
		count, missing int
	}
	suppliers := map[string]*tally{}
	for _, d := range data {
		for _, inv := range d.Invoices {
			s, ok := suppliers[inv.Supplier]
			if !ok {
				s = &tally{}
				suppliers[inv.Supplier] = s
			}
			s.total += inv.Amount
			s.count++
			if !inv.HasReceipt {
				s.missing++
			}
		}
	}
	for _, s := range suppliers {
		if s.total > a.MinTotal && float64(s.missing)/float64(s.count) > a.MinMissingReceiptRatio {
			return true
		}
	}
	return false
}

// TimingGap passes when the event labeled To happened no earlier than From and at most MaxGap after it.
type TimingGap struct {
	From   string
	To     string
	MaxGap time.Duration
}

func (TimingGap) Kind() AnalysisKind { return AnalysisTimingGap }

func (a TimingGap) passes(data []EvidenceData) bool {
	var from, to time.Time
	var hasFrom, hasTo bool
	for _, d := range data {
		for _, ev := range d.Timeline {
			switch ev.Label {
			case a.From:
				from, hasFrom = ev.At, true
			case a.To:
				to, hasTo = ev.At, true
			}
		}
	}
	if !hasFrom || !hasTo {
		return false
	}
	gap := to.Sub(from)
	return gap >= 0 && gap <= a.MaxGap
}

// ShareThreshold passes when Project receives more than MinShare of all allocated money.
type ShareThreshold struct {
	Project  string
	MinShare float64
}

func (ShareThreshold) Kind() AnalysisKind { return AnalysisShareThreshold }

func (a ShareThreshold) passes(data []EvidenceData) bool {
	var total, project float64
	for _, d := range data {
		for _, alloc := range d.Allocations {
			total += alloc.Amount
			if alloc.Project == a.Project {
				project += alloc.Amount
			}
		}
	}
	if total <= 0 {
		return false
	}
	return project/total > a.MinShare
}
