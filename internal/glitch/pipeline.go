package glitch

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/bliphunter/internal/monitoring"
	"github.com/banshee-data/bliphunter/internal/trigger"
)

// Source supplies the triggers for one run.
type Source interface {
	FetchTriggers(ctx context.Context) ([]trigger.Trigger, error)
}

// Candidate is one cluster reduced to its representative trigger.
type Candidate struct {
	Representative trigger.Trigger
	Cluster        Cluster
	Index          int // position of the cluster in discovery order
	Class          Classification
	MedianNewSNR   float64
	Verdict        Verdict
	Reasons        []Reason
}

// Result is the outcome of a run. Every cluster appears in exactly one of
// Accepted or Rejected.
type Result struct {
	Triggers int
	Clusters []Cluster
	Accepted []Candidate
	Rejected []Candidate
}

// Summary holds run totals for logging and the catalog.
type Summary struct {
	Triggers        int
	Clusters        int
	Accepted        int
	Rejected        int
	LongGlitches    int
	MeanClusterSize float64
}

// Summary computes totals over the result.
func (r *Result) Summary() Summary {
	s := Summary{
		Triggers: r.Triggers,
		Clusters: len(r.Clusters),
		Accepted: len(r.Accepted),
		Rejected: len(r.Rejected),
	}
	sizes := make([]float64, len(r.Clusters))
	for i, c := range r.Clusters {
		sizes[i] = float64(c.Len())
	}
	if len(sizes) > 0 {
		s.MeanClusterSize = stat.Mean(sizes, nil)
	}
	for _, c := range r.Rejected {
		if c.Class == LongGlitch {
			s.LongGlitches++
		}
	}
	return s
}

// Classify clusters triggers and partitions the clusters into accepted
// blips and rejected glitches.
//
// Rejected keeps clusters turned away by routing first, then candidates
// that failed a cut, each group in discovery order. With p.SortByTime both
// lists are instead ordered by representative time.
func Classify(triggers []trigger.Trigger, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	clusters, err := ClusterByGap(triggers, p.GapThreshold)
	if err != nil {
		return nil, err
	}

	router := NewRouter(p)
	res := &Result{Triggers: len(triggers), Clusters: clusters}
	var cut []Candidate
	for i, c := range clusters {
		rep, _ := Representative(c)
		route := router.Route(c)
		cand := Candidate{
			Representative: rep,
			Cluster:        c,
			Index:          i,
			Class:          route.Class,
			MedianNewSNR:   route.MedianNewSNR,
		}
		if !route.Candidate {
			cand.Verdict = Rejected
			cand.Reasons = []Reason{route.Reason}
			res.Rejected = append(res.Rejected, cand)
			continue
		}
		if reasons := p.Cuts.Evaluate(rep); len(reasons) > 0 {
			cand.Verdict = Rejected
			cand.Reasons = reasons
			cut = append(cut, cand)
			continue
		}
		cand.Verdict = Accepted
		res.Accepted = append(res.Accepted, cand)
	}
	res.Rejected = append(res.Rejected, cut...)

	if p.SortByTime {
		sortCandidates(res.Accepted)
		sortCandidates(res.Rejected)
	}
	return res, nil
}

// Run fetches triggers from src and classifies them.
func Run(ctx context.Context, src Source, p Params) (*Result, error) {
	triggers, err := src.FetchTriggers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch triggers: %w", err)
	}
	monitoring.Logf("classifying %d triggers (strategy=%s gap=%gs)", len(triggers), p.Strategy, p.GapThreshold)

	res, err := Classify(triggers, p)
	if err != nil {
		return nil, err
	}
	s := res.Summary()
	monitoring.Logf("%d clusters: %d accepted, %d rejected (%d long glitches)", s.Clusters, s.Accepted, s.Rejected, s.LongGlitches)
	return res, nil
}

func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Representative.Time < cands[j].Representative.Time
	})
}
