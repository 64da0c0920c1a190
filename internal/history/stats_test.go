package history

import (
	"testing"
	"time"
)

func seedStatsEntries(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t, 0)

	seed := []Entry{
		{
			ID: "e1", Timestamp: "2024-01-08T10:15:00Z",
			Template: "shipping", TemplateMetadata: &TemplateMeta{Name: "Shipping Label", Size: "4x6"},
			PrinterID: 1, PrinterName: "Dock A",
			Quantity: 2, Status: StatusSuccess, LabelSize: "4x6", User: "alice",
		},
		{
			ID: "e2", Timestamp: "2024-01-08T10:45:00Z",
			Template: "shipping", PrinterID: 1,
			Quantity: 4, Status: StatusSuccess, LabelSize: "4x6", User: "alice",
		},
		{
			ID: "e3", Timestamp: "2024-01-09T23:05:00Z",
			Template: "shipping", PrinterID: 2, PrinterName: "Dock B",
			Quantity: 1, Status: StatusFailed, LabelSize: "2x1", User: "bob",
		},
		{
			ID: "e4", Timestamp: "2024-02-01T00:30:00Z",
			Template: "pallet", PrinterID: 2,
			Quantity: 5, Status: StatusSuccess, User: "bob",
		},
		{
			ID: "e5", Timestamp: "2023-01-01T08:00:00Z",
			Template: "pallet", PrinterID: 1,
			Quantity: 8, Status: StatusSuccess, LabelSize: "4x6",
		},
	}
	for _, e := range seed {
		if _, err := s.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return s
}

func TestStatisticsOverall(t *testing.T) {
	s := seedStatsEntries(t)

	stats, err := s.Statistics(7, GroupByDay)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	o := stats.Overall
	if o.TotalPrints != 5 {
		t.Errorf("TotalPrints = %d, want 5", o.TotalPrints)
	}
	if o.TotalLabels != 20 {
		t.Errorf("TotalLabels = %d, want 20", o.TotalLabels)
	}
	if o.SuccessCount != 4 || o.FailedCount != 1 {
		t.Errorf("success/failed = %d/%d, want 4/1", o.SuccessCount, o.FailedCount)
	}
	if o.SuccessRate != 80 {
		t.Errorf("SuccessRate = %v, want 80", o.SuccessRate)
	}
	if o.AverageQuantity != 4 {
		t.Errorf("AverageQuantity = %v, want 4", o.AverageQuantity)
	}

	r := stats.SuccessRate
	if r.Total != 5 || r.Success != 4 || r.Failed != 1 {
		t.Errorf("rates = %+v", r)
	}
	if r.SuccessRate != 80 || r.FailureRate != 20 {
		t.Errorf("rates = %v/%v, want 80/20", r.SuccessRate, r.FailureRate)
	}
}

func TestStatisticsTopTemplatesAndPrinters(t *testing.T) {
	s := seedStatsEntries(t)

	stats, err := s.Statistics(7, GroupByDay)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	tt := stats.TopTemplates
	if len(tt) != 2 {
		t.Fatalf("top templates = %d, want 2", len(tt))
	}
	if tt[0].Template != "shipping" || tt[0].Count != 3 {
		t.Errorf("top template = %+v, want shipping x3", tt[0])
	}
	if tt[0].Name != "Shipping Label" {
		t.Errorf("template display name = %s, want snapshot name", tt[0].Name)
	}
	if tt[1].Template != "pallet" || tt[1].Count != 2 {
		t.Errorf("second template = %+v, want pallet x2", tt[1])
	}

	tp := stats.TopPrinters
	if len(tp) != 2 {
		t.Fatalf("top printers = %d, want 2", len(tp))
	}
	if tp[0].PrinterID != 1 || tp[0].Count != 3 || tp[0].Name != "Dock A" {
		t.Errorf("top printer = %+v, want printer 1 (Dock A) x3", tp[0])
	}
	if tp[1].PrinterID != 2 || tp[1].Count != 2 || tp[1].Name != "Dock B" {
		t.Errorf("second printer = %+v, want printer 2 (Dock B) x2", tp[1])
	}
}

func TestStatisticsVolumeGroupings(t *testing.T) {
	s := seedStatsEntries(t)

	cases := []struct {
		grouping string
		want     map[string]int
	}{
		{GroupByDay, map[string]int{
			"2024-01-08": 2, "2024-01-09": 1, "2024-02-01": 1, "2023-01-01": 1,
		}},
		{GroupByWeek, map[string]int{
			"2024-W02": 3, "2024-W05": 1, "2023-W00": 1,
		}},
		{GroupByMonth, map[string]int{
			"2024-01": 3, "2024-02": 1, "2023-01": 1,
		}},
	}

	for _, tc := range cases {
		stats, err := s.Statistics(7, tc.grouping)
		if err != nil {
			t.Fatalf("Statistics(%s): %v", tc.grouping, err)
		}
		if len(stats.PrintVolume) != len(tc.want) {
			t.Errorf("%s: volume = %v, want %v", tc.grouping, stats.PrintVolume, tc.want)
			continue
		}
		for key, count := range tc.want {
			if stats.PrintVolume[key] != count {
				t.Errorf("%s: volume[%s] = %d, want %d", tc.grouping, key, stats.PrintVolume[key], count)
			}
		}
	}

	if _, err := s.Statistics(7, "hourly"); err == nil {
		t.Error("invalid grouping accepted")
	}
}

func TestWeekKey(t *testing.T) {
	cases := []struct {
		date time.Time
		want string
	}{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-W01"},  // Monday starts week 1
		{time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), "2024-W01"},  // Sunday still week 1
		{time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), "2024-W02"},  // next Monday rolls over
		{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), "2023-W00"},  // days before first Monday
		{time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), "2023-W01"},
	}
	for _, tc := range cases {
		if got := weekKey(tc.date); got != tc.want {
			t.Errorf("weekKey(%s) = %s, want %s", tc.date.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestStatisticsHourlyDistribution(t *testing.T) {
	s := seedStatsEntries(t)

	stats, err := s.Statistics(7, GroupByDay)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	h := stats.HourlyDistribution
	if len(h) != 24 {
		t.Fatalf("hourly buckets = %d, want 24", len(h))
	}
	want := map[int]int{10: 2, 23: 1, 0: 1, 8: 1}
	for hour := 0; hour < 24; hour++ {
		if h[hour] != want[hour] {
			t.Errorf("hour %d = %d, want %d", hour, h[hour], want[hour])
		}
	}
}

func TestStatisticsUsersAndSizes(t *testing.T) {
	s := seedStatsEntries(t)

	stats, err := s.Statistics(7, GroupByDay)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	users := stats.Users
	if len(users) != 3 {
		t.Fatalf("users = %d, want 3", len(users))
	}
	// alice and bob tie on prints, alphabetical breaks it; unknown trails
	if users[0].User != "alice" || users[1].User != "bob" || users[2].User != "unknown" {
		t.Errorf("user order = [%s %s %s]", users[0].User, users[1].User, users[2].User)
	}
	if users[0].Prints != 2 || users[0].Labels != 6 || users[0].SuccessRate != 100 {
		t.Errorf("alice = %+v", users[0])
	}
	if users[1].Success != 1 || users[1].Failed != 1 || users[1].SuccessRate != 50 {
		t.Errorf("bob = %+v", users[1])
	}
	if users[2].Prints != 1 || users[2].Labels != 8 {
		t.Errorf("unknown = %+v", users[2])
	}

	sizes := stats.LabelSizes
	if sizes["4x6"] != 3 || sizes["2x1"] != 1 || sizes["unknown"] != 1 {
		t.Errorf("label sizes = %v", sizes)
	}
}

func TestStatisticsRecentActivity(t *testing.T) {
	s := newTestStore(t, 0)

	now := time.Now().UTC()
	recent := []Entry{
		{ID: "r1", Timestamp: now.Add(-1 * time.Hour).Format(time.RFC3339), Quantity: 3, Status: StatusSuccess},
		{ID: "r2", Timestamp: now.Add(-48 * time.Hour).Format(time.RFC3339), Quantity: 2, Status: StatusFailed},
		{ID: "r3", Timestamp: now.AddDate(0, 0, -30).Format(time.RFC3339), Quantity: 9, Status: StatusSuccess},
	}
	for _, e := range recent {
		if _, err := s.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	stats, err := s.Statistics(7, GroupByDay)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	ra := stats.RecentActivity
	if ra.PeriodDays != 7 {
		t.Errorf("PeriodDays = %d, want 7", ra.PeriodDays)
	}
	if ra.TotalPrints != 2 {
		t.Errorf("TotalPrints = %d, want 2 (30-day-old entry excluded)", ra.TotalPrints)
	}
	if ra.TotalLabels != 5 {
		t.Errorf("TotalLabels = %d, want 5", ra.TotalLabels)
	}
	if ra.DailyAverage != 0.29 {
		t.Errorf("DailyAverage = %v, want 0.29", ra.DailyAverage)
	}

	// zero period falls back to the 7-day default
	stats, err = s.Statistics(0, GroupByDay)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.RecentActivity.PeriodDays != 7 {
		t.Errorf("default PeriodDays = %d, want 7", stats.RecentActivity.PeriodDays)
	}
}

func TestStatisticsEmptyLog(t *testing.T) {
	s := newTestStore(t, 0)

	stats, err := s.Statistics(7, "")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.Overall.TotalPrints != 0 || stats.Overall.SuccessRate != 0 {
		t.Errorf("empty overall = %+v", stats.Overall)
	}
	if len(stats.TopTemplates) != 0 || len(stats.TopPrinters) != 0 {
		t.Error("empty log produced top lists")
	}
	if len(stats.HourlyDistribution) != 24 {
		t.Errorf("hourly buckets = %d, want 24 even when empty", len(stats.HourlyDistribution))
	}
}
