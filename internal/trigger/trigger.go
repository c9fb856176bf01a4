// Package trigger defines the single-detector trigger record consumed by the
// glitch classifier, together with the chi-squared reduction and re-weighted
// SNR (newSNR) statistic derived from it.
package trigger

import (
	"fmt"
	"math"
)

// Re-weighting exponents used by pycbc_inspiral's newsnr statistic.
const (
	newSNRQ = 6.0
	newSNRN = 2.0
)

// Trigger is one matched-filter trigger from a single detector. Triggers are
// produced by a source and never modified afterwards.
type Trigger struct {
	Detector     string  // interferometer id, e.g. "H1"
	Time         float64 // GPS end time in seconds
	SNR          float64
	Chisq        float64 // raw chi-squared; zero when the source only has the reduced value
	ChisqDOF     int     // chisq_dof as written by the search; zero when unknown
	ReducedChisq float64
	NewSNR       float64
	TemplateID   string // empty when the source carries no template id
}

// HasChisq reports whether the raw chi-squared is known for this trigger.
func (t Trigger) HasChisq() bool {
	return t.ChisqDOF > 0
}

// String returns a short human readable form used in log lines.
func (t Trigger) String() string {
	return fmt.Sprintf("%s@%.6f snr=%.3f newsnr=%.3f rchisq=%.3f", t.Detector, t.Time, t.SNR, t.NewSNR, t.ReducedChisq)
}

// EffectiveDOF converts the chisq_dof column (number of chi-squared bins)
// into degrees of freedom: 2*bins - 2.
func EffectiveDOF(chisqDOF int) int {
	return 2*chisqDOF - 2
}

// ReducedChisq divides chisq by the effective degrees of freedom. It fails
// when the bin count yields no degrees of freedom.
func ReducedChisq(chisq float64, chisqDOF int) (float64, error) {
	dof := EffectiveDOF(chisqDOF)
	if dof <= 0 {
		return 0, fmt.Errorf("%w: chisq_dof=%d gives %d degrees of freedom", ErrBadDOF, chisqDOF, dof)
	}
	return chisq / float64(dof), nil
}

// NewSNR down-weights snr by the reduced chi-squared. Triggers with
// reducedChisq <= 1 keep their SNR unchanged.
func NewSNR(snr, reducedChisq float64) float64 {
	if reducedChisq <= 1 {
		return snr
	}
	return snr * math.Pow(0.5*(1+math.Pow(reducedChisq, newSNRQ/newSNRN)), -1/newSNRQ)
}

// FromRaw builds a trigger from raw search output, deriving the reduced
// chi-squared and newSNR.
func FromRaw(detector string, time, snr, chisq float64, chisqDOF int) (Trigger, error) {
	rchisq, err := ReducedChisq(chisq, chisqDOF)
	if err != nil {
		return Trigger{}, err
	}
	return Trigger{
		Detector:     detector,
		Time:         time,
		SNR:          snr,
		Chisq:        chisq,
		ChisqDOF:     chisqDOF,
		ReducedChisq: rchisq,
		NewSNR:       NewSNR(snr, rchisq),
	}, nil
}

// FromVetoed builds a trigger from a pre-filtered record that already carries
// the reduced chi-squared and newSNR.
func FromVetoed(detector string, time, snr, reducedChisq, newSNR float64) Trigger {
	return Trigger{
		Detector:     detector,
		Time:         time,
		SNR:          snr,
		ReducedChisq: reducedChisq,
		NewSNR:       newSNR,
	}
}
