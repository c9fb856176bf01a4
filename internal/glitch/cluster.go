package glitch

import (
	"errors"
	"sort"

	"github.com/banshee-data/bliphunter/internal/trigger"
)

// ErrEmptyInput is returned when there are no triggers to cluster.
var ErrEmptyInput = errors.New("no triggers to classify")

// Cluster is a non-empty run of time-sorted triggers in which every
// consecutive pair is closer than the gap threshold.
type Cluster struct {
	Triggers []trigger.Trigger
}

// Len returns the number of triggers in the cluster.
func (c Cluster) Len() int { return len(c.Triggers) }

// Start returns the time of the first trigger.
func (c Cluster) Start() float64 { return c.Triggers[0].Time }

// End returns the time of the last trigger.
func (c Cluster) End() float64 { return c.Triggers[len(c.Triggers)-1].Time }

// Span is End - Start; zero for a single trigger.
func (c Cluster) Span() float64 { return c.End() - c.Start() }

// NewSNRs returns the newSNR of every trigger in cluster order.
func (c Cluster) NewSNRs() []float64 {
	out := make([]float64, len(c.Triggers))
	for i, t := range c.Triggers {
		out[i] = t.NewSNR
	}
	return out
}

// SortByTime returns a copy of triggers in ascending time order. Equal times
// keep their input order.
func SortByTime(triggers []trigger.Trigger) []trigger.Trigger {
	sorted := make([]trigger.Trigger, len(triggers))
	copy(sorted, triggers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})
	return sorted
}

// ClusterByGap sorts triggers by time and splits them wherever two
// neighbours are at least gap seconds apart. Every trigger lands in exactly
// one cluster and clusters are returned in start-time order.
func ClusterByGap(triggers []trigger.Trigger, gap float64) ([]Cluster, error) {
	if len(triggers) == 0 {
		return nil, ErrEmptyInput
	}
	sorted := SortByTime(triggers)

	var clusters []Cluster
	start := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time-sorted[i-1].Time < gap {
			continue
		}
		clusters = append(clusters, Cluster{Triggers: sorted[start:i:i]})
		start = i
	}
	clusters = append(clusters, Cluster{Triggers: sorted[start:]})
	return clusters, nil
}
