package report

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/bliphunter/internal/fsutil"
	"github.com/banshee-data/bliphunter/internal/glitch"
	"github.com/banshee-data/bliphunter/internal/monitoring"
	"github.com/banshee-data/bliphunter/internal/trigger"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func cand(t trigger.Trigger) glitch.Candidate {
	return glitch.Candidate{Representative: t}
}

func TestFormatLine(t *testing.T) {
	trig := trigger.Trigger{Time: 1126259462.4, SNR: 12.5, NewSNR: 8.25, Chisq: 40, ReducedChisq: 1.3333333}

	assert.Equal(t, "1126259462.400000 12.500000 8.250000 40.000000 1.333333 \n", FormatRaw.Line(trig))
	assert.Equal(t, "1126259462.400000 12.500000 8.250000 1.333333 \n", FormatVetoed.Line(trig))
}

func TestAppend_PreservesExistingContent(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("blips.txt", []byte("old line \n"), 0644))

	err := Append(mfs, "blips.txt", FormatVetoed, []glitch.Candidate{
		cand(trigger.Trigger{Time: 1, SNR: 9, NewSNR: 7, ReducedChisq: 1}),
	})
	require.NoError(t, err)

	data, _ := mfs.ReadFile("blips.txt")
	assert.Equal(t, "old line \n1.000000 9.000000 7.000000 1.000000 \n", string(data))
}

func TestAppend_EmptyListCreatesFile(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, Append(mfs, "rejected.txt", FormatRaw, nil))
	assert.True(t, mfs.Exists("rejected.txt"))
}

func TestAppend_WriteFailureSurfaces(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.LimitWrites(10)

	err := Append(mfs, "blips.txt", FormatRaw, []glitch.Candidate{
		cand(trigger.Trigger{Time: 1, SNR: 9}),
		cand(trigger.Trigger{Time: 2, SNR: 9}),
	})
	assert.ErrorIs(t, err, fsutil.ErrWriteLimit)

	data, _ := mfs.ReadFile("blips.txt")
	assert.Len(t, data, 10, "partial output stays on disk")
}

func TestWriter_WriteResult(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{
		FS:           fsutil.OSFileSystem{},
		Format:       FormatRaw,
		BlipsPath:    filepath.Join(dir, "blips.txt"),
		RejectedPath: filepath.Join(dir, "rejected.txt"),
	}
	res := &glitch.Result{
		Accepted: []glitch.Candidate{cand(trigger.Trigger{Time: 5, SNR: 9, NewSNR: 7, Chisq: 30, ReducedChisq: 1})},
		Rejected: []glitch.Candidate{
			cand(trigger.Trigger{Time: 1, SNR: 200, NewSNR: 10, Chisq: 10, ReducedChisq: 0.3}),
			cand(trigger.Trigger{Time: 3, SNR: 8, NewSNR: 5.5, Chisq: 3000, ReducedChisq: 100}),
		},
	}

	// Two runs: the files are append-only logs.
	require.NoError(t, w.WriteResult(res))
	require.NoError(t, w.WriteResult(res))

	blips, err := ReadFile(w.FS, w.BlipsPath, FormatRaw)
	require.NoError(t, err)
	assert.Len(t, blips, 2)

	rejected, err := ReadFile(w.FS, w.RejectedPath, FormatRaw)
	require.NoError(t, err)
	require.Len(t, rejected, 4)
	assert.Equal(t, Record{Time: 3, SNR: 8, NewSNR: 5.5, Chisq: 3000, ReducedChisq: 100}, rejected[1])
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, format := range []Format{FormatRaw, FormatVetoed} {
		mfs := fsutil.NewMemoryFileSystem()
		var cands []glitch.Candidate
		var want []Record
		for i := 0; i < 25; i++ {
			trig := trigger.Trigger{
				Time:         1126259000 + rng.Float64()*1000,
				SNR:          7.5 + rng.Float64()*100,
				NewSNR:       5 + rng.Float64()*10,
				Chisq:        rng.Float64() * 2500,
				ReducedChisq: rng.Float64() * 200,
			}
			cands = append(cands, cand(trig))
			rec := Record{Time: trig.Time, SNR: trig.SNR, NewSNR: trig.NewSNR, Chisq: trig.Chisq, ReducedChisq: trig.ReducedChisq}
			if format == FormatVetoed {
				rec.Chisq = 0
			}
			want = append(want, rec)
		}

		require.NoError(t, Append(mfs, "out.txt", format, cands))
		got, err := ReadFile(mfs, "out.txt", format)
		require.NoError(t, err)

		// %f keeps six decimal places.
		if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
			t.Errorf("format %d round trip mismatch (-want +got):\n%s", format, diff)
		}
	}
}

func TestReadFile_Malformed(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	_ = mfs.WriteFile("short.txt", []byte("1.0 2.0 3.0 \n"), 0644)
	_ = mfs.WriteFile("nan.txt", []byte("1.0 x 3.0 4.0 \n"), 0644)

	_, err := ReadFile(mfs, "short.txt", FormatRaw)
	var mre *trigger.MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, 1, mre.Record)

	_, err = ReadFile(mfs, "nan.txt", FormatVetoed)
	assert.True(t, errors.As(err, &mre))

	_, err = ReadFile(mfs, "missing.txt", FormatVetoed)
	assert.Error(t, err)
}
