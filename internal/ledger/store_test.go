package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleHeader = "date,product_name,campaign_name,device,keyword,impressions,clicks,avg_cpc,cost,conversions,revenue\n"

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func day(t *testing.T, v string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, v)
	if err != nil {
		t.Fatalf("parse date %s: %v", v, err)
	}
	return d.UTC()
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, ErrMissingFile) {
		t.Fatalf("expected ErrMissingFile, got %v", err)
	}
}

func TestLoadZeroByteFile(t *testing.T) {
	path := writeCSV(t, "empty.csv", "")
	records, err := Load(path)
	if err != nil {
		t.Fatalf("zero-byte file should load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestLoadHeaderOnlyFile(t *testing.T) {
	path := writeCSV(t, "header.csv", sampleHeader)
	records, err := Load(path)
	if err != nil {
		t.Fatalf("well-formed empty file should load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestLoadMissingColumn(t *testing.T) {
	path := writeCSV(t, "bad.csv",
		"date,product_name,campaign_name,device,keyword,impressions,clicks,avg_cpc,cost,conversions\n")
	_, err := Load(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "revenue" {
		t.Fatalf("expected revenue reported missing, got %v", schemaErr.Missing)
	}
}

func TestLoadLenientRows(t *testing.T) {
	path := writeCSV(t, "rows.csv", sampleHeader+
		"2024-05-01,  A , camp,mobile,kw,100,10,1.5,100,2,50\n"+
		"not-a-date,B,camp,pc,kw,1,1,1,1,1,1\n"+
		"2024-05-01,C,camp,pc,kw,abc,,1,xyz,1,\n")
	records, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("row with bad date should be dropped, got %d rows", len(records))
	}
	if records[0].ProductName != "A" {
		t.Fatalf("text fields should be trimmed, got %q", records[0].ProductName)
	}
	for _, r := range records {
		if r.Date.IsZero() {
			t.Fatal("loaded record must never carry a zero date")
		}
	}
	c := records[1]
	if !c.Impressions.IsZero() || !c.Clicks.IsZero() || !c.Cost.IsZero() || !c.Revenue.IsZero() {
		t.Fatalf("unparsable numerics should become zero: %+v", c)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src := writeCSV(t, "src.csv", sampleHeader+
		"2024-05-02,B,camp2,pc,kw2,5,1,0.25,12.5,0.5,3.75\n"+
		"2024-05-01,A,camp1,mobile,kw1,100,10,1.5,100,2,50\n")
	records, err := Load(src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	Sort(records)

	dst := filepath.Join(t.TempDir(), "out.csv")
	if err := Save(dst, records); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := Load(dst)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded) != len(records) {
		t.Fatalf("expected %d rows, got %d", len(records), len(reloaded))
	}
	for i := range records {
		a, b := records[i], reloaded[i]
		if !a.Date.Equal(b.Date) || a.ProductName != b.ProductName {
			t.Fatalf("row %d identity mismatch: %+v vs %+v", i, a, b)
		}
		if !a.Cost.Equal(b.Cost) || !a.Revenue.Equal(b.Revenue) || !a.AvgCPC.Equal(b.AvgCPC) {
			t.Fatalf("row %d measures mismatch: %+v vs %+v", i, a, b)
		}
	}
}

func TestMaxDate(t *testing.T) {
	path := writeCSV(t, "max.csv", sampleHeader+
		"2024-05-01,A,c,m,k,1,1,1,1,1,1\n"+
		"2024-05-02,A,c,m,k,1,1,1,1,1,1\n")
	max, ok, err := MaxDate(path)
	if err != nil || !ok {
		t.Fatalf("expected a max date, ok=%v err=%v", ok, err)
	}
	if !max.Equal(day(t, "2024-05-02")) {
		t.Fatalf("expected 2024-05-02, got %s", max.Format(DateLayout))
	}

	if _, ok, err := MaxDate(filepath.Join(t.TempDir(), "absent.csv")); err != nil || ok {
		t.Fatalf("missing file should report no data, ok=%v err=%v", ok, err)
	}
}

func TestUpsertIntoEmptyLedger(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "history.csv")
	batch := writeCSV(t, "batch.csv", sampleHeader+
		"2024-05-02,B,c,m,k,1,1,1,1,1,1\n"+
		"2024-05-01,A,c,m,k,1,1,1,1,1,1\n")

	loc, dates, err := Upsert(ledgerPath, batch)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if loc != ledgerPath {
		t.Fatalf("expected ledger path back, got %s", loc)
	}
	if len(dates) != 2 || !dates[0].Equal(day(t, "2024-05-01")) || !dates[1].Equal(day(t, "2024-05-02")) {
		t.Fatalf("expected sorted batch dates, got %v", dates)
	}

	records, err := Load(ledgerPath)
	if err != nil {
		t.Fatalf("load merged ledger: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(records))
	}
	if !records[0].Date.Equal(day(t, "2024-05-01")) {
		t.Fatal("ledger should be sorted by date first")
	}

	max, ok, err := MaxDate(ledgerPath)
	if err != nil || !ok || !max.Equal(day(t, "2024-05-02")) {
		t.Fatalf("expected max 2024-05-02, got %v ok=%v err=%v", max, ok, err)
	}
}

func TestUpsertReplacesWholeDate(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "history.csv")
	first := writeCSV(t, "first.csv", sampleHeader+
		"2024-05-01,A,c,m,k,1,1,1,10,1,10\n"+
		"2024-05-01,B,c,m,k,1,1,1,20,1,20\n")
	if _, _, err := Upsert(ledgerPath, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// A partial re-upload for a date replaces all rows for that date,
	// including rows the new batch omits.
	second := writeCSV(t, "second.csv", sampleHeader+
		"2024-05-01,A,c,m,k,1,1,1,99,1,99\n")
	if _, _, err := Upsert(ledgerPath, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	records, err := Load(ledgerPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("date should be fully replaced, got %d rows", len(records))
	}
	if records[0].ProductName != "A" || records[0].Cost.String() != "99" {
		t.Fatalf("unexpected surviving row: %+v", records[0])
	}
}

func TestUpsertIdempotent(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "history.csv")
	batch := writeCSV(t, "batch.csv", sampleHeader+
		"2024-05-01,A,c,m,k,1,1,1.5,10.25,1,12\n"+
		"2024-05-02,B,c,m,k,1,1,1,20,1,25\n")

	if _, _, err := Upsert(ledgerPath, batch); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	once, err := os.ReadFile(ledgerPath)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}

	if _, _, err := Upsert(ledgerPath, batch); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	twice, err := os.ReadFile(ledgerPath)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}

	if string(once) != string(twice) {
		t.Fatal("applying the same batch twice must not change the ledger")
	}
}

func TestUpsertEmptyBatch(t *testing.T) {
	batch := writeCSV(t, "batch.csv", sampleHeader)
	_, _, err := Upsert(filepath.Join(t.TempDir(), "history.csv"), batch)
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestUniqueDates(t *testing.T) {
	path := writeCSV(t, "dates.csv", sampleHeader+
		"2024-05-03,A,c,m,k,1,1,1,1,1,1\n"+
		"2024-05-01,A,c,m,k,1,1,1,1,1,1\n"+
		"2024-05-03,B,c,m,k,1,1,1,1,1,1\n")
	dates, err := UniqueDates(path)
	if err != nil {
		t.Fatalf("unique dates: %v", err)
	}
	if len(dates) != 2 || !dates[0].Equal(day(t, "2024-05-01")) || !dates[1].Equal(day(t, "2024-05-03")) {
		t.Fatalf("expected [2024-05-01 2024-05-03], got %v", dates)
	}
}
