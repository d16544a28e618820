package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrMissingFile indicates the requested CSV source does not exist.
	ErrMissingFile = errors.New("ledger: source file missing")
	// ErrEmptyBatch indicates an upsert was attempted with a batch that has
	// no valid rows; an empty upload must never silently no-op.
	ErrEmptyBatch = errors.New("ledger: batch has no rows")
)

// SchemaError reports required columns absent from a CSV header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("ledger: required columns missing: %s", strings.Join(e.Missing, ", "))
}

// dateLayouts are accepted on input; output always uses DateLayout.
var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// Load reads a ledger or batch CSV into validated records.
//
// A missing file returns ErrMissingFile. A zero-byte file yields zero rows.
// A header missing any required column returns *SchemaError. Row-level
// problems never fail the load: rows with unparsable dates are dropped,
// unparsable numerics become zero, and text fields are trimmed.
func Load(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		// File exists but holds nothing at all.
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	index, missing := columnIndex(header)
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	records := make([]Record, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row of %s: %w", path, err)
		}

		date, ok := parseDate(field(row, index["date"]))
		if !ok {
			continue
		}

		records = append(records, Record{
			Date:         date,
			ProductName:  strings.TrimSpace(field(row, index["product_name"])),
			CampaignName: strings.TrimSpace(field(row, index["campaign_name"])),
			Device:       strings.TrimSpace(field(row, index["device"])),
			Keyword:      strings.TrimSpace(field(row, index["keyword"])),
			Impressions:  parseMeasure(field(row, index["impressions"])),
			Clicks:       parseMeasure(field(row, index["clicks"])),
			AvgCPC:       parseMeasure(field(row, index["avg_cpc"])),
			Cost:         parseMeasure(field(row, index["cost"])),
			Conversions:  parseMeasure(field(row, index["conversions"])),
			Revenue:      parseMeasure(field(row, index["revenue"])),
		})
	}

	return records, nil
}

// Save persists records to path in canonical column order, writing to a
// temporary file and renaming so a crash mid-write never truncates the ledger.
func Save(path string, records []Record) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(Columns); err != nil {
		file.Close()
		return err
	}
	for _, r := range records {
		row := []string{
			r.Date.Format(DateLayout),
			r.ProductName,
			r.CampaignName,
			r.Device,
			r.Keyword,
			r.Impressions.String(),
			r.Clicks.String(),
			r.AvgCPC.String(),
			r.Cost.String(),
			r.Conversions.String(),
			r.Revenue.String(),
		}
		if err := writer.Write(row); err != nil {
			file.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// MaxDate returns the latest date present in the source. A missing or empty
// source reports ok=false instead of an error; schema problems still fail.
func MaxDate(path string) (time.Time, bool, error) {
	records, err := Load(path)
	if err != nil {
		if errors.Is(err, ErrMissingFile) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	if len(records) == 0 {
		return time.Time{}, false, nil
	}

	max := records[0].Date
	for _, r := range records[1:] {
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return max, true, nil
}

// UniqueDates returns the sorted distinct dates present in the source.
func UniqueDates(path string) ([]time.Time, error) {
	records, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Dates(records), nil
}

// Upsert merges the batch at batchPath into the ledger at ledgerPath keyed by
// date: every ledger row whose date appears in the batch is replaced by the
// batch rows for that date, wholesale. The merged ledger is re-sorted and
// persisted in full. Returns the ledger path and the sorted batch dates.
func Upsert(ledgerPath, batchPath string) (string, []time.Time, error) {
	batch, err := Load(batchPath)
	if err != nil {
		return "", nil, err
	}
	if len(batch) == 0 {
		return "", nil, ErrEmptyBatch
	}

	batchDates := Dates(batch)
	replaced := make(map[time.Time]struct{}, len(batchDates))
	for _, d := range batchDates {
		replaced[d] = struct{}{}
	}

	history, err := Load(ledgerPath)
	if err != nil {
		if !errors.Is(err, ErrMissingFile) {
			return "", nil, err
		}
		history = nil // first run
	}

	merged := make([]Record, 0, len(history)+len(batch))
	for _, r := range history {
		if _, ok := replaced[r.Date]; ok {
			continue
		}
		merged = append(merged, r)
	}
	merged = append(merged, batch...)
	Sort(merged)

	if err := Save(ledgerPath, merged); err != nil {
		return "", nil, err
	}
	return ledgerPath, batchDates, nil
}

func columnIndex(header []string) (map[string]int, []string) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	missing := make([]string, 0)
	for _, required := range Columns {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	return index, missing
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseMeasure(v string) decimal.Decimal {
	v = strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
