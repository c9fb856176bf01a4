package glitch

import (
	"fmt"

	"github.com/banshee-data/bliphunter/internal/trigger"
)

// Reason names the rule that rejected a candidate.
type Reason string

const (
	ReasonLongGlitch           Reason = "long_glitch"
	ReasonMedianNewSNRBelowMin Reason = "median_newsnr_below_min"
	ReasonSNRAboveMax          Reason = "snr_above_max"
	ReasonSNRBelowMin          Reason = "snr_below_min"
	ReasonNewSNRBelowMin       Reason = "newsnr_below_min"
	ReasonChisqAboveMax        Reason = "chisq_above_max"
	ReasonReducedChisqAboveMax Reason = "reduced_chisq_above_max"
)

// Verdict is the final decision on a candidate.
type Verdict int

const (
	Accepted Verdict = iota
	Rejected
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Evaluate runs every cut against t and returns the reasons of all that
// fired, in a fixed order. An empty result means t passes.
func (c Cuts) Evaluate(t trigger.Trigger) []Reason {
	var reasons []Reason
	if t.SNR > c.MaxSNR {
		reasons = append(reasons, ReasonSNRAboveMax)
	}
	if t.SNR < c.MinSNR {
		reasons = append(reasons, ReasonSNRBelowMin)
	}
	if t.NewSNR < c.MinNewSNR {
		reasons = append(reasons, ReasonNewSNRBelowMin)
	}
	if t.Chisq > c.MaxChisq {
		reasons = append(reasons, ReasonChisqAboveMax)
	}
	if t.ReducedChisq > c.MaxReducedChisq {
		reasons = append(reasons, ReasonReducedChisqAboveMax)
	}
	return reasons
}
