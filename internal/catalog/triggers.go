package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/bliphunter/internal/monitoring"
	"github.com/banshee-data/bliphunter/internal/trigger"
)

// InsertTriggers stores triggers in the triggers table in one transaction
// and returns the number inserted.
func (c *Catalog) InsertTriggers(ctx context.Context, triggers []trigger.Trigger) (int, error) {
	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO triggers (
			ifo, end_time, snr, chisq, chisq_dof, reduced_chisq, newsnr, template_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, t := range triggers {
		if _, err := stmt.ExecContext(ctx, t.Detector, t.Time, t.SNR, t.Chisq, t.ChisqDOF, t.ReducedChisq, t.NewSNR, t.TemplateID); err != nil {
			return 0, fmt.Errorf("insert trigger %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(triggers), nil
}

// TriggerSource reads triggers for one detector from a catalog.
type TriggerSource struct {
	Catalog *Catalog
	// Detector selects the ifo. When empty the ifo of the first stored
	// trigger is used.
	Detector string
}

// FetchTriggers returns the detector's triggers in insertion order.
func (s *TriggerSource) FetchTriggers(ctx context.Context) ([]trigger.Trigger, error) {
	detector := s.Detector
	if detector == "" {
		err := s.Catalog.QueryRowContext(ctx, `SELECT ifo FROM triggers ORDER BY trigger_id LIMIT 1`).Scan(&detector)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("find detector: %w", err)
		}
	}

	rows, err := s.Catalog.QueryContext(ctx, `SELECT trigger_id, ifo, end_time, snr, chisq, chisq_dof, reduced_chisq, newsnr, template_id
		FROM triggers WHERE ifo = ? ORDER BY trigger_id`, detector)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []trigger.Trigger
	for rows.Next() {
		var (
			id int
			t  trigger.Trigger
		)
		if err := rows.Scan(&id, &t.Detector, &t.Time, &t.SNR, &t.Chisq, &t.ChisqDOF, &t.ReducedChisq, &t.NewSNR, &t.TemplateID); err != nil {
			return nil, &trigger.MalformedRecordError{Source: "triggers", Record: id, Err: err}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	monitoring.Logf("read %d triggers for %q from catalog", len(out), detector)
	return out, nil
}
