package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/bliphunter/internal/fsutil"
	"github.com/banshee-data/bliphunter/internal/glitch"
	"github.com/banshee-data/bliphunter/internal/monitoring"
	"github.com/banshee-data/bliphunter/internal/trigger"
)

// Segment is a half-open GPS time interval [Start, End).
type Segment struct {
	Start float64
	End   float64
}

// Segments is a sorted, merged list of veto segments.
type Segments []Segment

// NewSegments sorts and merges overlapping or touching segments.
func NewSegments(segs []Segment) Segments {
	sorted := make([]Segment, len(segs))
	copy(sorted, segs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out Segments
	for _, s := range sorted {
		if n := len(out); n > 0 && s.Start <= out[n-1].End {
			if s.End > out[n-1].End {
				out[n-1].End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// Contains reports whether t falls inside any segment.
func (s Segments) Contains(t float64) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i].End > t })
	return i < len(s) && s[i].Start <= t
}

// LoadSegments reads a veto file of "start end" pairs, one per line.
// Blank lines and lines starting with '#' are ignored; commas are accepted
// as separators.
func LoadSegments(fsys fsutil.FileSystem, path string) (Segments, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read veto file: %w", err)
	}

	var segs []Segment
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
		if len(fields) < 2 {
			return nil, &trigger.MalformedRecordError{Source: path, Record: line, Err: fmt.Errorf("want start and end, got %q", text)}
		}
		start, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, &trigger.MalformedRecordError{Source: path, Record: line, Field: "start", Err: err}
		}
		end, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, &trigger.MalformedRecordError{Source: path, Record: line, Field: "end", Err: err}
		}
		if end < start {
			return nil, &trigger.MalformedRecordError{Source: path, Record: line, Err: fmt.Errorf("segment ends before it starts: %v < %v", end, start)}
		}
		segs = append(segs, Segment{Start: start, End: end})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan veto file: %w", err)
	}
	return NewSegments(segs), nil
}

// VetoFilter drops triggers that fall inside a veto segment.
type VetoFilter struct {
	Source   glitch.Source
	Segments Segments
}

func (v *VetoFilter) FetchTriggers(ctx context.Context) ([]trigger.Trigger, error) {
	in, err := v.Source.FetchTriggers(ctx)
	if err != nil {
		return nil, err
	}
	out := in[:0:0]
	for _, t := range in {
		if !v.Segments.Contains(t.Time) {
			out = append(out, t)
		}
	}
	monitoring.Logf("veto segments removed %d of %d triggers", len(in)-len(out), len(in))
	return out, nil
}
