// Package report appends classified glitches to the plain-text blip and
// rejected-glitch lists and reads those lists back.
package report

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/bliphunter/internal/fsutil"
	"github.com/banshee-data/bliphunter/internal/glitch"
	"github.com/banshee-data/bliphunter/internal/monitoring"
	"github.com/banshee-data/bliphunter/internal/trigger"
)

// Format selects the columns written per line.
type Format int

const (
	// FormatRaw writes: time snr newsnr chisq reduced_chisq
	FormatRaw Format = iota
	// FormatVetoed writes: time snr newsnr reduced_chisq
	FormatVetoed
)

// Fields returns the number of columns per line.
func (f Format) Fields() int {
	if f == FormatVetoed {
		return 4
	}
	return 5
}

// Line formats one representative. Every field is followed by a space and
// the line ends with a newline.
func (f Format) Line(t trigger.Trigger) string {
	if f == FormatVetoed {
		return fmt.Sprintf("%.6f %f %f %f \n", t.Time, t.SNR, t.NewSNR, t.ReducedChisq)
	}
	return fmt.Sprintf("%f %f %f %f %f \n", t.Time, t.SNR, t.NewSNR, t.Chisq, t.ReducedChisq)
}

// Record is one parsed report line. Chisq is zero for FormatVetoed.
type Record struct {
	Time         float64
	SNR          float64
	NewSNR       float64
	Chisq        float64
	ReducedChisq float64
}

// Append writes the representatives of cands to path in one append-mode
// open. The file is closed even when a write fails; lines already written
// stay in the file.
func Append(fsys fsutil.FileSystem, path string, format Format, cands []glitch.Candidate) (err error) {
	w, err := fsys.OpenAppend(path)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", path, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(w)
	for _, c := range cands {
		if _, err := bw.WriteString(format.Line(c.Representative)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Writer appends a run's accepted and rejected lists to their files.
type Writer struct {
	FS           fsutil.FileSystem
	Format       Format
	BlipsPath    string
	RejectedPath string
}

// WriteResult appends res.Accepted to BlipsPath and res.Rejected to
// RejectedPath.
func (w *Writer) WriteResult(res *glitch.Result) error {
	if err := Append(w.FS, w.BlipsPath, w.Format, res.Accepted); err != nil {
		return err
	}
	if err := Append(w.FS, w.RejectedPath, w.Format, res.Rejected); err != nil {
		return err
	}
	monitoring.Logf("appended %d blips to %s and %d rejected glitches to %s",
		len(res.Accepted), w.BlipsPath, len(res.Rejected), w.RejectedPath)
	return nil
}

// ReadFile parses every line of a report file written in format.
func ReadFile(fsys fsutil.FileSystem, path string, format Format) ([]Record, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var out []Record
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != format.Fields() {
			return nil, &trigger.MalformedRecordError{Source: path, Record: line, Err: fmt.Errorf("want %d fields, got %d", format.Fields(), len(fields))}
		}
		vals := make([]float64, len(fields))
		for i, f := range fields {
			if vals[i], err = strconv.ParseFloat(f, 64); err != nil {
				return nil, &trigger.MalformedRecordError{Source: path, Record: line, Err: err}
			}
		}
		rec := Record{Time: vals[0], SNR: vals[1], NewSNR: vals[2]}
		if format == FormatVetoed {
			rec.ReducedChisq = vals[3]
		} else {
			rec.Chisq, rec.ReducedChisq = vals[3], vals[4]
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return out, nil
}
