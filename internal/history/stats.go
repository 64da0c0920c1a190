package history

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

type Overall struct {
	TotalPrints     int     `json:"total_prints"`
	TotalLabels     int     `json:"total_labels"`
	SuccessCount    int     `json:"success_count"`
	FailedCount     int     `json:"failed_count"`
	SuccessRate     float64 `json:"success_rate"`
	AverageQuantity float64 `json:"average_quantity"`
}

type TemplateCount struct {
	Template string `json:"template"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

type PrinterCount struct {
	PrinterID int64  `json:"printer_id"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
}

type RateStats struct {
	Total       int     `json:"total"`
	Success     int     `json:"success"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
	FailureRate float64 `json:"failure_rate"`
}

type UserStats struct {
	User        string  `json:"user"`
	Prints      int     `json:"prints"`
	Labels      int     `json:"labels"`
	Success     int     `json:"success"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

type RecentActivity struct {
	PeriodDays   int     `json:"period_days"`
	TotalPrints  int     `json:"total_prints"`
	TotalLabels  int     `json:"total_labels"`
	DailyAverage float64 `json:"daily_average"`
}

type Statistics struct {
	Overall            Overall         `json:"overall"`
	TopTemplates       []TemplateCount `json:"top_templates"`
	TopPrinters        []PrinterCount  `json:"top_printers"`
	PrintVolume        map[string]int  `json:"print_volume"`
	SuccessRate        RateStats       `json:"success_rate"`
	Users              []UserStats     `json:"users"`
	LabelSizes         map[string]int  `json:"label_sizes"`
	HourlyDistribution map[int]int     `json:"hourly_distribution"`
	RecentActivity     RecentActivity  `json:"recent_activity"`
}

const (
	GroupByDay   = "day"
	GroupByWeek  = "week"
	GroupByMonth = "month"

	topLimit = 10
)

// Statistics computes the aggregate views over the whole log. periodDays
// scopes only the recent-activity window; grouping buckets the volume view.
func (s *Store) Statistics(periodDays int, grouping string) (*Statistics, error) {
	if periodDays <= 0 {
		periodDays = 7
	}
	switch grouping {
	case GroupByDay, GroupByWeek, GroupByMonth:
	case "":
		grouping = GroupByDay
	default:
		return nil, fmt.Errorf("invalid grouping: %s (valid: day, week, month)", grouping)
	}

	entries, err := s.all()
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		Overall:            computeOverall(entries),
		TopTemplates:       computeTopTemplates(entries),
		TopPrinters:        computeTopPrinters(entries),
		PrintVolume:        computeVolume(entries, grouping),
		SuccessRate:        computeRates(entries),
		Users:              computeUsers(entries),
		LabelSizes:         computeLabelSizes(entries),
		HourlyDistribution: computeHourly(entries),
		RecentActivity:     computeRecent(entries, periodDays),
	}
	return stats, nil
}

func computeOverall(entries []Entry) Overall {
	var o Overall
	o.TotalPrints = len(entries)
	for _, e := range entries {
		o.TotalLabels += e.Quantity
		if e.Status == StatusSuccess {
			o.SuccessCount++
		} else {
			o.FailedCount++
		}
	}
	if o.TotalPrints > 0 {
		o.SuccessRate = round2(float64(o.SuccessCount) / float64(o.TotalPrints) * 100)
		o.AverageQuantity = round2(float64(o.TotalLabels) / float64(o.TotalPrints))
	}
	return o
}

func computeTopTemplates(entries []Entry) []TemplateCount {
	counts := make(map[string]int)
	names := make(map[string]string)
	for _, e := range entries {
		if e.Template == "" {
			continue
		}
		counts[e.Template]++
		if e.TemplateMetadata != nil && e.TemplateMetadata.Name != "" {
			names[e.Template] = e.TemplateMetadata.Name
		}
	}

	top := make([]TemplateCount, 0, len(counts))
	for tmpl, count := range counts {
		name := names[tmpl]
		if name == "" {
			name = tmpl
		}
		top = append(top, TemplateCount{Template: tmpl, Name: name, Count: count})
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Template < top[j].Template
	})
	if len(top) > topLimit {
		top = top[:topLimit]
	}
	return top
}

func computeTopPrinters(entries []Entry) []PrinterCount {
	counts := make(map[int64]int)
	names := make(map[int64]string)
	for _, e := range entries {
		if e.PrinterID == 0 {
			continue
		}
		counts[e.PrinterID]++
		if e.PrinterName != "" {
			names[e.PrinterID] = e.PrinterName
		}
	}

	top := make([]PrinterCount, 0, len(counts))
	for id, count := range counts {
		name := names[id]
		if name == "" {
			name = strconv.FormatInt(id, 10)
		}
		top = append(top, PrinterCount{PrinterID: id, Name: name, Count: count})
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].PrinterID < top[j].PrinterID
	})
	if len(top) > topLimit {
		top = top[:topLimit]
	}
	return top
}

func computeVolume(entries []Entry, grouping string) map[string]int {
	volume := make(map[string]int)
	for _, e := range entries {
		ts, err := parseTimestamp(e.Timestamp)
		if err != nil {
			continue
		}
		var key string
		switch grouping {
		case GroupByWeek:
			key = weekKey(ts)
		case GroupByMonth:
			key = ts.Format("2006-01")
		default:
			key = ts.Format("2006-01-02")
		}
		volume[key]++
	}
	return volume
}

// weekKey buckets by year and week number, weeks starting Monday, with the
// days before the year's first Monday falling into week 00.
func weekKey(t time.Time) string {
	mondayWeekday := (int(t.Weekday()) + 6) % 7
	week := (t.YearDay() - 1 - mondayWeekday + 7) / 7
	return fmt.Sprintf("%d-W%02d", t.Year(), week)
}

func computeRates(entries []Entry) RateStats {
	var r RateStats
	r.Total = len(entries)
	for _, e := range entries {
		if e.Status == StatusSuccess {
			r.Success++
		} else {
			r.Failed++
		}
	}
	if r.Total > 0 {
		r.SuccessRate = round2(float64(r.Success) / float64(r.Total) * 100)
		r.FailureRate = round2(float64(r.Failed) / float64(r.Total) * 100)
	}
	return r
}

func computeUsers(entries []Entry) []UserStats {
	byUser := make(map[string]*UserStats)
	for _, e := range entries {
		user := e.User
		if user == "" {
			user = "unknown"
		}
		u, ok := byUser[user]
		if !ok {
			u = &UserStats{User: user}
			byUser[user] = u
		}
		u.Prints++
		u.Labels += e.Quantity
		if e.Status == StatusSuccess {
			u.Success++
		} else {
			u.Failed++
		}
	}

	users := make([]UserStats, 0, len(byUser))
	for _, u := range byUser {
		if u.Prints > 0 {
			u.SuccessRate = round2(float64(u.Success) / float64(u.Prints) * 100)
		}
		users = append(users, *u)
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Prints != users[j].Prints {
			return users[i].Prints > users[j].Prints
		}
		return users[i].User < users[j].User
	})
	return users
}

func computeLabelSizes(entries []Entry) map[string]int {
	sizes := make(map[string]int)
	for _, e := range entries {
		size := e.LabelSize
		if size == "" {
			size = "unknown"
		}
		sizes[size]++
	}
	return sizes
}

func computeHourly(entries []Entry) map[int]int {
	hourly := make(map[int]int, 24)
	for h := 0; h < 24; h++ {
		hourly[h] = 0
	}
	for _, e := range entries {
		ts, err := parseTimestamp(e.Timestamp)
		if err != nil {
			continue
		}
		hourly[ts.Hour()]++
	}
	return hourly
}

func computeRecent(entries []Entry, periodDays int) RecentActivity {
	r := RecentActivity{PeriodDays: periodDays}
	cutoff := time.Now().UTC().AddDate(0, 0, -periodDays).Format(time.RFC3339)
	for _, e := range entries {
		if e.Timestamp < cutoff {
			continue
		}
		r.TotalPrints++
		r.TotalLabels += e.Quantity
	}
	r.DailyAverage = round2(float64(r.TotalPrints) / float64(periodDays))
	return r
}

func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, ts)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", ts)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
