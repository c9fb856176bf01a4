package glitch

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/bliphunter/internal/trigger"
)

// at returns a trigger at time t with the given newSNR and passing values
// for everything else.
func at(t, newSNR float64) trigger.Trigger {
	return trigger.Trigger{Detector: "H1", Time: t, SNR: 10, NewSNR: newSNR, ReducedChisq: 1}
}

func times(c Cluster) []float64 {
	out := make([]float64, c.Len())
	for i, t := range c.Triggers {
		out[i] = t.Time
	}
	return out
}

func TestClusterByGap_Scenario(t *testing.T) {
	clusters, err := ClusterByGap([]trigger.Trigger{at(0.5, 6), at(0.0, 6), at(0.05, 6)}, 0.3)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	assert.Equal(t, []float64{0.0, 0.05}, times(clusters[0]))
	assert.Equal(t, []float64{0.5}, times(clusters[1]))
	assert.InDelta(t, 0.05, clusters[0].Span(), 1e-12)
	assert.Equal(t, 0.0, clusters[1].Span())
	assert.Equal(t, Blip, ClassifyDuration(clusters[0], 0.1))
	assert.Equal(t, Blip, ClassifyDuration(clusters[1], 0.1))
}

func TestClusterByGap_Empty(t *testing.T) {
	_, err := ClusterByGap(nil, 0.3)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestClusterByGap_Single(t *testing.T) {
	clusters, err := ClusterByGap([]trigger.Trigger{at(42, 7)}, 0.3)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, 1, clusters[0].Len())
}

func TestClusterByGap_TrailingSingletonKept(t *testing.T) {
	clusters, err := ClusterByGap([]trigger.Trigger{at(0, 6), at(0.1, 6), at(5, 6)}, 0.3)
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, []float64{5}, times(clusters[1]))
}

func TestClusterByGap_GapEqualToThresholdSplits(t *testing.T) {
	clusters, err := ClusterByGap([]trigger.Trigger{at(1.0, 6), at(1.5, 6)}, 0.5)
	require.NoError(t, err)
	assert.Len(t, clusters, 2)
}

func TestClusterByGap_EqualTimesKeepInputOrder(t *testing.T) {
	a := at(3, 6)
	a.TemplateID = "a"
	b := at(3, 6)
	b.TemplateID = "b"

	clusters, err := ClusterByGap([]trigger.Trigger{b, a}, 0.3)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "b", clusters[0].Triggers[0].TemplateID)
	assert.Equal(t, "a", clusters[0].Triggers[1].TemplateID)
}

func TestClusterByGap_DoesNotReorderInput(t *testing.T) {
	in := []trigger.Trigger{at(2, 6), at(1, 6)}
	_, err := ClusterByGap(in, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 2.0, in[0].Time)
}

func TestClusterByGap_PartitionAndGapInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		gap := 0.05 + rng.Float64()*0.5
		n := 1 + rng.Intn(200)
		in := make([]trigger.Trigger, n)
		for i := range in {
			in[i] = at(rng.Float64()*20, rng.Float64()*10)
		}

		clusters, err := ClusterByGap(in, gap)
		require.NoError(t, err)

		var flat []trigger.Trigger
		for ci, c := range clusters {
			require.NotZero(t, c.Len())
			for i := 1; i < c.Len(); i++ {
				assert.Less(t, c.Triggers[i].Time-c.Triggers[i-1].Time, gap)
			}
			if ci > 0 {
				assert.GreaterOrEqual(t, c.Start()-clusters[ci-1].End(), gap)
			}
			flat = append(flat, c.Triggers...)
		}
		if diff := cmp.Diff(SortByTime(in), flat); diff != "" {
			t.Fatalf("round %d: clusters do not partition the input (-want +got):\n%s", round, diff)
		}
	}
}
