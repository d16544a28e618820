package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar-date form used in ledger and batch files.
const DateLayout = "2006-01-02"

// Columns is the required header, in persisted order.
var Columns = []string{
	"date", "product_name", "campaign_name", "device", "keyword",
	"impressions", "clicks", "avg_cpc", "cost", "conversions", "revenue",
}

// Record is one observed performance row for a single calendar date.
// Dates carry no time component; they are normalised to UTC midnight.
type Record struct {
	Date         time.Time
	ProductName  string
	CampaignName string
	Device       string
	Keyword      string
	Impressions  decimal.Decimal
	Clicks       decimal.Decimal
	AvgCPC       decimal.Decimal
	Cost         decimal.Decimal
	Conversions  decimal.Decimal
	Revenue      decimal.Decimal
}

// Sort orders records by (date, product, campaign, device, keyword), the
// canonical ledger order.
func Sort(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		if a.CampaignName != b.CampaignName {
			return a.CampaignName < b.CampaignName
		}
		if a.Device != b.Device {
			return a.Device < b.Device
		}
		return a.Keyword < b.Keyword
	})
}

// Dates returns the distinct dates present in records, ascending.
func Dates(records []Record) []time.Time {
	seen := make(map[time.Time]struct{}, len(records))
	dates := make([]time.Time, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Date]; ok {
			continue
		}
		seen[r.Date] = struct{}{}
		dates = append(dates, r.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// FilterDate returns the records observed on the given date.
func FilterDate(records []Record, date time.Time) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out
}

// FilterRange returns the records with from <= date <= to.
func FilterRange(records []Record, from, to time.Time) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}
