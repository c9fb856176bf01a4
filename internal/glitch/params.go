package glitch

import (
	"fmt"
	"math"
	"strings"
)

// Strategy selects how a cluster is routed before the representative cuts.
type Strategy int

const (
	// RouteByDuration rejects clusters longer than Params.DurationThreshold.
	RouteByDuration Strategy = iota
	// RouteByMedian rejects clusters whose median newSNR is below
	// Params.MinMedianNewSNR. No duration classification is done.
	RouteByMedian
)

func (s Strategy) String() string {
	switch s {
	case RouteByDuration:
		return "duration"
	case RouteByMedian:
		return "median"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts the names returned by Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "duration":
		return RouteByDuration, nil
	case "median":
		return RouteByMedian, nil
	default:
		return 0, fmt.Errorf("unknown routing strategy %q (want duration or median)", s)
	}
}

// Cuts are the representative quality cuts. A representative is rejected
// when any cut fires. A threshold of +Inf disables the corresponding cut.
type Cuts struct {
	MaxSNR          float64
	MinSNR          float64
	MinNewSNR       float64
	MaxChisq        float64 // raw chi-squared
	MaxReducedChisq float64
}

// Params configures one classification run.
type Params struct {
	GapThreshold      float64 // seconds; consecutive triggers closer than this share a cluster
	DurationThreshold float64 // seconds; RouteByDuration only
	MinMedianNewSNR   float64 // RouteByMedian only
	Strategy          Strategy
	Cuts              Cuts
	// SortByTime orders both output lists by representative time. When false
	// the lists keep cluster discovery order.
	SortByTime bool
}

// RawPreset returns the thresholds used on raw pycbc_inspiral triggers.
// The 0.3 s gap keeps close double blips apart so the duration cut does not
// merge them into one longer glitch.
func RawPreset() Params {
	return Params{
		GapThreshold:      0.3,
		DurationThreshold: 0.1,
		Strategy:          RouteByDuration,
		Cuts: Cuts{
			MaxSNR:          150,
			MinSNR:          7.5,
			MinNewSNR:       5,
			MaxChisq:        2500,
			MaxReducedChisq: math.Inf(1),
		},
	}
}

// VetoedPreset returns the thresholds used on pre-vetoed, bank-cut triggers.
func VetoedPreset() Params {
	return Params{
		GapThreshold:      0.1,
		DurationThreshold: math.Inf(1),
		MinMedianNewSNR:   5,
		Strategy:          RouteByMedian,
		Cuts: Cuts{
			MaxSNR:          150,
			MinSNR:          7.5,
			MinNewSNR:       6,
			MaxChisq:        math.Inf(1),
			MaxReducedChisq: 200,
		},
		SortByTime: true,
	}
}

// Validate checks that the parameters describe a usable run.
func (p Params) Validate() error {
	if !(p.GapThreshold > 0) || math.IsInf(p.GapThreshold, 0) {
		return fmt.Errorf("gap threshold must be positive and finite, got %v", p.GapThreshold)
	}
	switch p.Strategy {
	case RouteByDuration:
		if math.IsNaN(p.DurationThreshold) || p.DurationThreshold < 0 {
			return fmt.Errorf("duration threshold must be non-negative, got %v", p.DurationThreshold)
		}
	case RouteByMedian:
		if math.IsNaN(p.MinMedianNewSNR) {
			return fmt.Errorf("median newSNR threshold must be a number")
		}
	default:
		return fmt.Errorf("unknown routing strategy %v", p.Strategy)
	}
	if p.Cuts.MinSNR > p.Cuts.MaxSNR {
		return fmt.Errorf("snr cut range is empty: min %v > max %v", p.Cuts.MinSNR, p.Cuts.MaxSNR)
	}
	for name, v := range map[string]float64{
		"max_snr":           p.Cuts.MaxSNR,
		"min_snr":           p.Cuts.MinSNR,
		"min_newsnr":        p.Cuts.MinNewSNR,
		"max_chisq":         p.Cuts.MaxChisq,
		"max_reduced_chisq": p.Cuts.MaxReducedChisq,
	} {
		if math.IsNaN(v) {
			return fmt.Errorf("cut %s must be a number", name)
		}
	}
	return nil
}
