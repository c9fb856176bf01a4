package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/banshee-data/bliphunter/internal/fsutil"
	"github.com/banshee-data/bliphunter/internal/glitch"
	"github.com/banshee-data/bliphunter/internal/monitoring"
	"github.com/banshee-data/bliphunter/internal/trigger"
)

// Bank is the set of template ids in a template bank.
type Bank map[string]struct{}

// Has reports whether id is in the bank.
func (b Bank) Has(id string) bool {
	_, ok := b[id]
	return ok
}

// LoadBank reads a template bank file. The file is either a plain list of
// template ids, one per line, or a CSV whose header names a template_id
// column.
func LoadBank(fsys fsutil.FileSystem, path string) (Bank, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template bank: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comment = '#'
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse template bank: %w", err)
	}

	col := 0
	if len(records) > 0 {
		for i, name := range records[0] {
			if strings.EqualFold(strings.TrimSpace(name), ColTemplateID) {
				col = i
				records = records[1:]
				break
			}
		}
	}

	bank := make(Bank, len(records))
	for i, rec := range records {
		if col >= len(rec) {
			return nil, &trigger.MalformedRecordError{Source: path, Record: i + 1, Field: ColTemplateID, Err: trigger.ErrMissingField}
		}
		if id := strings.TrimSpace(rec[col]); id != "" {
			bank[id] = struct{}{}
		}
	}
	if len(bank) == 0 {
		return nil, fmt.Errorf("template bank %s lists no templates", path)
	}
	return bank, nil
}

// BankFilter keeps only triggers whose template is in the bank. Triggers
// without a template id are dropped.
type BankFilter struct {
	Source glitch.Source
	Bank   Bank
}

func (b *BankFilter) FetchTriggers(ctx context.Context) ([]trigger.Trigger, error) {
	in, err := b.Source.FetchTriggers(ctx)
	if err != nil {
		return nil, err
	}
	out := in[:0:0]
	for _, t := range in {
		if b.Bank.Has(t.TemplateID) {
			out = append(out, t)
		}
	}
	monitoring.Logf("bank cut removed %d of %d triggers", len(in)-len(out), len(in))
	return out, nil
}
