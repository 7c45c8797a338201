// Package stats computes aggregate statistics over session snapshots.
//
// Every function is pure: it takes an in-memory slice of sessions plus,
// where the result is date-relative, an explicit reference time. All
// calendar math happens in UTC. Empty input is always a valid
// degenerate case, never an error.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/pomotrack/pomotrack/pkg/models"
)

// Trend classifications for ProductivityTrend.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// DayBreakdown is one weekday's slice of a weekly report.
type DayBreakdown struct {
	Sessions  int `json:"sessions"`
	Completed int `json:"completed"`
}

// DailyStats aggregates the sessions started today.
type DailyStats struct {
	Date              string  `json:"date,omitempty"`
	TotalSessions     int     `json:"total_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	TotalFocusMinutes int     `json:"total_focus_minutes"`
	CompletionRate    float64 `json:"completion_rate"`
	WorkSessions      int     `json:"work_sessions"`
	BreakSessions     int     `json:"break_sessions"`
}

// WeeklyStats aggregates the sessions started since Monday.
type WeeklyStats struct {
	WeekStart         string                  `json:"week_start,omitempty"`
	TotalSessions     int                     `json:"total_sessions"`
	CompletedSessions int                     `json:"completed_sessions"`
	TotalFocusMinutes int                     `json:"total_focus_minutes"`
	CompletionRate    float64                 `json:"completion_rate"`
	DailyBreakdown    map[string]DayBreakdown `json:"daily_breakdown,omitempty"`
}

// Trend describes the week-over-week change in completed sessions.
type Trend struct {
	Trend       string  `json:"trend"`
	Change      float64 `json:"change"`
	Description string  `json:"description"`
}

// TypeDistribution is the session count per valid type. Sessions with
// an out-of-enumeration type are excluded from every bucket.
type TypeDistribution struct {
	Work       int `json:"work"`
	ShortBreak int `json:"short_break"`
	LongBreak  int `json:"long_break"`
}

// PeakHours reports the hour of day with the most completed work
// sessions. PeakHour is nil when no session qualifies.
type PeakHours struct {
	PeakHour           *int        `json:"peak_hour"`
	SessionsCount      int         `json:"sessions_count"`
	HourlyDistribution map[int]int `json:"hourly_distribution,omitempty"`
}

// CompletionRate returns the percentage of completed sessions, rounded
// to one decimal. Empty input yields 0.
func CompletionRate(sessions []*models.Session) float64 {
	if len(sessions) == 0 {
		return 0
	}
	completed := 0
	for _, s := range sessions {
		if s.Completed {
			completed++
		}
	}
	return round1(float64(completed) / float64(len(sessions)) * 100)
}

// AverageCompletedDuration returns the mean duration in minutes over
// completed sessions, rounded to one decimal. No completed sessions
// yields 0.
func AverageCompletedDuration(sessions []*models.Session) float64 {
	total, count := 0, 0
	for _, s := range sessions {
		if s.Completed {
			total += s.DurationMinutes
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return round1(float64(total) / float64(count))
}

// Daily aggregates the sessions started on now's UTC calendar day.
// Focus minutes count completed work sessions only.
func Daily(sessions []*models.Session, now time.Time) DailyStats {
	if len(sessions) == 0 {
		return DailyStats{}
	}

	today := dateOf(now)
	var todaySessions []*models.Session
	for _, s := range sessions {
		if dateOf(s.StartTime) == today {
			todaySessions = append(todaySessions, s)
		}
	}

	out := DailyStats{
		Date:           today.Format(time.DateOnly),
		TotalSessions:  len(todaySessions),
		CompletionRate: CompletionRate(todaySessions),
	}
	for _, s := range todaySessions {
		if s.Completed {
			out.CompletedSessions++
		}
		if s.Type == models.TypeWork {
			if s.Completed {
				out.WorkSessions++
				out.TotalFocusMinutes += s.DurationMinutes
			}
		} else {
			out.BreakSessions++
		}
	}
	return out
}

// Weekly aggregates the sessions started between the Monday of now's
// week and now, inclusive, with a per-weekday breakdown. All seven
// weekday names are present in the breakdown even when empty.
func Weekly(sessions []*models.Session, now time.Time) WeeklyStats {
	if len(sessions) == 0 {
		return WeeklyStats{}
	}

	today := dateOf(now)
	weekStart := today.AddDate(0, 0, -daysSinceMonday(today))
	week := FilterByDateRange(sessions, weekStart, today)

	out := WeeklyStats{
		WeekStart:      weekStart.Format(time.DateOnly),
		TotalSessions:  len(week),
		CompletionRate: CompletionRate(week),
		DailyBreakdown: make(map[string]DayBreakdown, 7),
	}
	for _, s := range week {
		if s.Completed {
			out.CompletedSessions++
			if s.Type == models.TypeWork {
				out.TotalFocusMinutes += s.DurationMinutes
			}
		}
	}

	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		var breakdown DayBreakdown
		for _, s := range week {
			if dateOf(s.StartTime) == day {
				breakdown.Sessions++
				if s.Completed {
					breakdown.Completed++
				}
			}
		}
		out.DailyBreakdown[day.Weekday().String()] = breakdown
	}
	return out
}

// ProductivityTrend compares completed sessions in the trailing week
// against the week before it, over sessions from the last 14 days.
// A change above +10% is improving, below -10% declining, anything in
// between (the boundaries included) stable.
func ProductivityTrend(sessions []*models.Session, now time.Time) Trend {
	if len(sessions) == 0 {
		return Trend{Trend: TrendStable, Description: "No data available"}
	}

	today := dateOf(now)
	twoWeeksAgo := today.AddDate(0, 0, -14)
	var recent []*models.Session
	for _, s := range sessions {
		if !dateOf(s.StartTime).Before(twoWeeksAgo) {
			recent = append(recent, s)
		}
	}
	if len(recent) < 2 {
		return Trend{Trend: TrendStable, Description: "Insufficient data"}
	}

	oneWeekAgo := today.AddDate(0, 0, -7)
	lastWeek, thisWeek := 0, 0
	for _, s := range recent {
		if !s.Completed {
			continue
		}
		if dateOf(s.StartTime).Before(oneWeekAgo) {
			lastWeek++
		} else {
			thisWeek++
		}
	}

	if lastWeek == 0 {
		if thisWeek > 0 {
			return Trend{Trend: TrendImproving, Change: 100, Description: "Started completing sessions"}
		}
		return Trend{Trend: TrendStable, Description: "No completed sessions"}
	}

	change := float64(thisWeek-lastWeek) / float64(lastWeek) * 100
	out := Trend{Change: round1(change)}
	switch {
	case change > 10:
		out.Trend = TrendImproving
		out.Description = fmt.Sprintf("Completed sessions increased by %.1f%%", change)
	case change < -10:
		out.Trend = TrendDeclining
		out.Description = fmt.Sprintf("Completed sessions decreased by %.1f%%", -change)
	default:
		out.Trend = TrendStable
		out.Description = "Completion rate is stable"
	}
	return out
}

// Distribution counts sessions per valid type.
func Distribution(sessions []*models.Session) TypeDistribution {
	var dist TypeDistribution
	for _, s := range sessions {
		switch s.Type {
		case models.TypeWork:
			dist.Work++
		case models.TypeShortBreak:
			dist.ShortBreak++
		case models.TypeLongBreak:
			dist.LongBreak++
		}
	}
	return dist
}

// PeakProductivityHour builds an hour-of-day histogram over completed
// work sessions and returns the busiest hour. Ties go to the hour first
// encountered in session iteration order.
func PeakProductivityHour(sessions []*models.Session) PeakHours {
	counts := make(map[int]int)
	var order []int
	for _, s := range sessions {
		if s.Type != models.TypeWork || !s.Completed {
			continue
		}
		hour := s.StartTime.UTC().Hour()
		if _, seen := counts[hour]; !seen {
			order = append(order, hour)
		}
		counts[hour]++
	}
	if len(counts) == 0 {
		return PeakHours{}
	}

	peak := order[0]
	for _, hour := range order[1:] {
		if counts[hour] > counts[peak] {
			peak = hour
		}
	}
	return PeakHours{
		PeakHour:           &peak,
		SessionsCount:      counts[peak],
		HourlyDistribution: counts,
	}
}

// FilterByDateRange retains sessions whose UTC start date falls within
// [start, end], both ends inclusive.
func FilterByDateRange(sessions []*models.Session, start, end time.Time) []*models.Session {
	startDay, endDay := dateOf(start), dateOf(end)
	var filtered []*models.Session
	for _, s := range sessions {
		day := dateOf(s.StartTime)
		if !day.Before(startDay) && !day.After(endDay) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// dateOf truncates a timestamp to its UTC calendar day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysSinceMonday returns how far into the ISO week the day is
// (Monday = 0 .. Sunday = 6).
func daysSinceMonday(day time.Time) int {
	return (int(day.Weekday()) + 6) % 7
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
