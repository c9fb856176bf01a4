package glitch

import (
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/bliphunter/internal/trigger"
)

// Representative returns the trigger with the highest newSNR in the cluster
// and its index. The earliest trigger wins a tie.
func Representative(c Cluster) (trigger.Trigger, int) {
	idx := floats.MaxIdx(c.NewSNRs())
	return c.Triggers[idx], idx
}
