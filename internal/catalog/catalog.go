// Package catalog stores classification runs and their glitches in a
// SQLite database, and serves stored triggers as a classification source.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/bliphunter/internal/glitch"
)

type Catalog struct {
	*sql.DB
}

// Open opens (creating if needed) the catalog at path and migrates it to
// the latest schema.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	c := &Catalog{db}
	if err := c.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// IsCatalogPath reports whether path names a SQLite catalog rather than a
// trigger file.
func IsCatalogPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Run describes one classification run.
type Run struct {
	ID         uuid.UUID
	StartedAt  time.Time
	Variant    string
	SourcePath string
	Detector   string
	Version    string
	Params     glitch.Params
	Summary    glitch.Summary
}

// Glitch is one stored representative.
type Glitch struct {
	RunID          uuid.UUID
	ClusterIndex   int
	Detector       string
	Time           float64
	SNR            float64
	NewSNR         float64
	Chisq          float64
	ReducedChisq   float64
	TemplateID     string
	ClusterSize    int
	ClusterStart   float64
	ClusterEnd     float64
	MedianNewSNR   float64
	Classification string
	Verdict        string
	Reasons        []string
}

// RecordRun stores run and every candidate of res in one transaction. A
// zero run.ID is replaced by a fresh UUID; the stored id is returned.
func (c *Catalog) RecordRun(ctx context.Context, run Run, res *glitch.Result) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Summary = res.Summary()

	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	p := run.Params
	_, err = tx.ExecContext(ctx, `INSERT INTO runs (
			run_id, started_unix, variant, source_path, detector, version,
			strategy, gap_threshold, duration_threshold, min_median_newsnr, cuts,
			trigger_count, cluster_count, accepted_count, rejected_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), float64(run.StartedAt.UnixNano())/1e9, run.Variant, run.SourcePath, run.Detector, run.Version,
		p.Strategy.String(), p.GapThreshold, finite(p.DurationThreshold), finite(p.MinMedianNewSNR), formatCuts(p.Cuts),
		run.Summary.Triggers, run.Summary.Clusters, run.Summary.Accepted, run.Summary.Rejected,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO glitches (
			run_id, cluster_index, detector, end_time, snr, newsnr, chisq, reduced_chisq,
			template_id, cluster_size, cluster_start, cluster_end, median_newsnr,
			classification, verdict, reasons
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return uuid.Nil, err
	}
	defer stmt.Close()

	for _, list := range [][]glitch.Candidate{res.Accepted, res.Rejected} {
		for _, cand := range list {
			rep := cand.Representative
			reasons := make([]string, len(cand.Reasons))
			for i, r := range cand.Reasons {
				reasons[i] = string(r)
			}
			if _, err := stmt.ExecContext(ctx,
				run.ID.String(), cand.Index, rep.Detector, rep.Time, rep.SNR, rep.NewSNR, rep.Chisq, rep.ReducedChisq,
				rep.TemplateID, cand.Cluster.Len(), cand.Cluster.Start(), cand.Cluster.End(), cand.MedianNewSNR,
				cand.Class.String(), cand.Verdict.String(), strings.Join(reasons, ","),
			); err != nil {
				return uuid.Nil, fmt.Errorf("insert glitch %d: %w", cand.Index, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return run.ID, nil
}

// Runs lists stored runs, newest first.
func (c *Catalog) Runs(ctx context.Context) ([]Run, error) {
	rows, err := c.QueryContext(ctx, `SELECT run_id, started_unix, variant, source_path, detector, version,
			strategy, gap_threshold, duration_threshold, min_median_newsnr,
			trigger_count, cluster_count, accepted_count, rejected_count
		FROM runs ORDER BY started_unix DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			id        string
			started   float64
			strategy  string
			duration  sql.NullFloat64
			minMedian sql.NullFloat64
		)
		if err := rows.Scan(&id, &started, &r.Variant, &r.SourcePath, &r.Detector, &r.Version,
			&strategy, &r.Params.GapThreshold, &duration, &minMedian,
			&r.Summary.Triggers, &r.Summary.Clusters, &r.Summary.Accepted, &r.Summary.Rejected,
		); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		if r.Params.Strategy, err = glitch.ParseStrategy(strategy); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(0, int64(started*1e9))
		r.Params.DurationThreshold = orInf(duration)
		r.Params.MinMedianNewSNR = orInf(minMedian)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Glitches returns the stored representatives of a run in cluster order.
func (c *Catalog) Glitches(ctx context.Context, runID uuid.UUID) ([]Glitch, error) {
	rows, err := c.QueryContext(ctx, `SELECT cluster_index, detector, end_time, snr, newsnr, chisq, reduced_chisq,
			template_id, cluster_size, cluster_start, cluster_end, median_newsnr,
			classification, verdict, reasons
		FROM glitches WHERE run_id = ? ORDER BY cluster_index`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Glitch
	for rows.Next() {
		g := Glitch{RunID: runID}
		var reasons string
		if err := rows.Scan(&g.ClusterIndex, &g.Detector, &g.Time, &g.SNR, &g.NewSNR, &g.Chisq, &g.ReducedChisq,
			&g.TemplateID, &g.ClusterSize, &g.ClusterStart, &g.ClusterEnd, &g.MedianNewSNR,
			&g.Classification, &g.Verdict, &reasons,
		); err != nil {
			return nil, err
		}
		if reasons != "" {
			g.Reasons = strings.Split(reasons, ",")
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func finite(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orInf(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.Inf(1)
	}
	return v.Float64
}

func formatCuts(c glitch.Cuts) string {
	return fmt.Sprintf("max_snr=%g min_snr=%g min_newsnr=%g max_chisq=%g max_reduced_chisq=%g",
		c.MaxSNR, c.MinSNR, c.MinNewSNR, c.MaxChisq, c.MaxReducedChisq)
}
