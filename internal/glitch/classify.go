package glitch

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Classification tags a cluster by duration.
type Classification int

const (
	Blip Classification = iota
	LongGlitch
)

func (c Classification) String() string {
	switch c {
	case Blip:
		return "blip"
	case LongGlitch:
		return "long_glitch"
	default:
		return fmt.Sprintf("Classification(%d)", int(c))
	}
}

// ClassifyDuration returns Blip when the cluster spans at most maxSpan
// seconds. A single-trigger cluster is always a Blip.
func ClassifyDuration(c Cluster, maxSpan float64) Classification {
	if c.Span() <= maxSpan || c.Len() == 1 {
		return Blip
	}
	return LongGlitch
}

// MedianNewSNR is the median newSNR over every trigger in the cluster. For
// an even count it is the mean of the two middle values.
func MedianNewSNR(c Cluster) float64 {
	vals := c.NewSNRs()
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return stat.Mean(vals[n/2-1:n/2+1], nil)
}

// Routing is the outcome of routing one cluster.
type Routing struct {
	Class        Classification
	MedianNewSNR float64
	// Candidate is false when the cluster is rejected without looking at its
	// representative; Reason then says why.
	Candidate bool
	Reason    Reason
}

// Router decides per cluster whether it is a blip candidate.
type Router interface {
	Route(c Cluster) Routing
}

// DurationRouter passes clusters no longer than MaxSpan.
type DurationRouter struct {
	MaxSpan float64
}

func (r DurationRouter) Route(c Cluster) Routing {
	class := ClassifyDuration(c, r.MaxSpan)
	out := Routing{Class: class, MedianNewSNR: MedianNewSNR(c), Candidate: class == Blip}
	if !out.Candidate {
		out.Reason = ReasonLongGlitch
	}
	return out
}

// MedianRouter treats every cluster as a blip candidate unless its median
// newSNR is below MinMedian.
type MedianRouter struct {
	MinMedian float64
}

func (r MedianRouter) Route(c Cluster) Routing {
	med := MedianNewSNR(c)
	out := Routing{Class: Blip, MedianNewSNR: med, Candidate: med >= r.MinMedian}
	if !out.Candidate {
		out.Reason = ReasonMedianNewSNRBelowMin
	}
	return out
}

// NewRouter returns the router for p.Strategy.
func NewRouter(p Params) Router {
	if p.Strategy == RouteByMedian {
		return MedianRouter{MinMedian: p.MinMedianNewSNR}
	}
	return DurationRouter{MaxSpan: p.DurationThreshold}
}
