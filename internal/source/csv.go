// Package source reads triggers from trigger files and applies the veto
// segment and template bank cuts that precede clustering.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/bliphunter/internal/fsutil"
	"github.com/banshee-data/bliphunter/internal/monitoring"
	"github.com/banshee-data/bliphunter/internal/trigger"
)

// Column names follow the pycbc_inspiral HDF dataset names.
const (
	ColDetector     = "ifo"
	ColTime         = "end_time"
	ColSNR          = "snr"
	ColChisq        = "chisq"
	ColChisqDOF     = "chisq_dof"
	ColReducedChisq = "reduced_chisq"
	ColNewSNR       = "newsnr"
	ColTemplateID   = "template_id"
)

// Form says which statistics a trigger file carries.
type Form int

const (
	// Raw files carry chisq and chisq_dof; reduced chisq and newSNR are derived.
	Raw Form = iota
	// Vetoed files carry reduced_chisq and newsnr computed upstream.
	Vetoed
)

func (f Form) String() string {
	if f == Vetoed {
		return "vetoed"
	}
	return "raw"
}

func (f Form) required() []string {
	if f == Vetoed {
		return []string{ColTime, ColSNR, ColReducedChisq, ColNewSNR}
	}
	return []string{ColTime, ColSNR, ColChisq, ColChisqDOF}
}

// CSVSource reads triggers from a CSV file with a header row. Lines starting
// with '#' are comments and unknown columns are ignored.
type CSVSource struct {
	FS   fsutil.FileSystem
	Path string
	Form Form
	// Detector selects the ifo to read. When empty the first ifo in the file
	// is used.
	Detector string
}

// FetchTriggers parses the whole file.
func (s *CSVSource) FetchTriggers(ctx context.Context) ([]trigger.Trigger, error) {
	f, err := s.FS.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open trigger file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read trigger header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range s.Form.required() {
		if _, ok := cols[name]; !ok {
			line, _ := r.FieldPos(0)
			return nil, &trigger.MalformedRecordError{Source: s.Path, Record: line, Field: name, Err: trigger.ErrMissingField}
		}
	}

	detector := s.Detector
	var out []trigger.Trigger
	var skipped int
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trigger file: %w", err)
		}
		line, _ := r.FieldPos(0)
		row := csvRow{rec: rec, cols: cols, source: s.Path, line: line}

		ifo := row.str(ColDetector)
		if detector == "" {
			detector = ifo
		}
		if ifo != "" && ifo != detector {
			skipped++
			continue
		}

		t, err := row.trigger(s.Form, detector)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	monitoring.Logf("read %d %s triggers for %q from %s (%d from other detectors skipped)", len(out), s.Form, detector, s.Path, skipped)
	return out, nil
}

type csvRow struct {
	rec    []string
	cols   map[string]int
	source string
	line   int
}

func (r csvRow) str(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r csvRow) malformed(col string, err error) error {
	return &trigger.MalformedRecordError{Source: r.source, Record: r.line, Field: col, Err: err}
}

func (r csvRow) float(col string) (float64, error) {
	s := r.str(col)
	if s == "" {
		return 0, r.malformed(col, trigger.ErrMissingField)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, r.malformed(col, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, r.malformed(col, fmt.Errorf("value %q is not finite", s))
	}
	return v, nil
}

func (r csvRow) trigger(form Form, detector string) (trigger.Trigger, error) {
	tm, err := r.float(ColTime)
	if err != nil {
		return trigger.Trigger{}, err
	}
	snr, err := r.float(ColSNR)
	if err != nil {
		return trigger.Trigger{}, err
	}

	var t trigger.Trigger
	switch form {
	case Vetoed:
		rchisq, err := r.float(ColReducedChisq)
		if err != nil {
			return trigger.Trigger{}, err
		}
		nsnr, err := r.float(ColNewSNR)
		if err != nil {
			return trigger.Trigger{}, err
		}
		t = trigger.FromVetoed(detector, tm, snr, rchisq, nsnr)
	default:
		chisq, err := r.float(ColChisq)
		if err != nil {
			return trigger.Trigger{}, err
		}
		dofStr := r.str(ColChisqDOF)
		if dofStr == "" {
			return trigger.Trigger{}, r.malformed(ColChisqDOF, trigger.ErrMissingField)
		}
		dof, err := strconv.Atoi(dofStr)
		if err != nil {
			// Some writers store the bin count as a float.
			f, ferr := strconv.ParseFloat(dofStr, 64)
			if ferr != nil || f != math.Trunc(f) {
				return trigger.Trigger{}, r.malformed(ColChisqDOF, err)
			}
			dof = int(f)
		}
		t, err = trigger.FromRaw(detector, tm, snr, chisq, dof)
		if err != nil {
			return trigger.Trigger{}, r.malformed(ColChisqDOF, err)
		}
	}
	t.TemplateID = r.str(ColTemplateID)
	return t, nil
}
