package report

import (
	"time"

	"habit-tracker/internal/model"
)

const (
	SuggestionGood    = "Great job, keep it up!"
	SuggestionImprove = "Try to be more consistent next week."

	// goodPercent 达到该完成率视为表现良好
	goodPercent = 80
)

// Window 一个周报周期，周一到周日
type Window struct {
	WeekStart model.Date
}

func (w Window) WeekEnd() model.Date {
	return w.WeekStart.AddDays(6)
}

// HabitResult 单个习惯在一个周期内的完成情况
type HabitResult struct {
	HabitID        int64
	Title          string
	StartedOn      model.Date
	EffectiveStart model.Date
	EffectiveEnd   model.Date
	Completed      int
	Expected       int
	Missed         int
	Percent        int
	Suggestion     string
}

// Calculator 纯函数计算，不访问存储；loc 决定习惯创建时间落在哪一天
type Calculator struct {
	loc *time.Location
}

func NewCalculator(loc *time.Location) Calculator {
	if loc == nil {
		loc = time.Local
	}
	return Calculator{loc: loc}
}

// Bounds 返回习惯在窗口内实际参与统计的日期区间
// ok 为 false 表示该习惯不计入本期周报
func (c Calculator) Bounds(habit model.Habit, window Window, today model.Date) (start, end model.Date, ok bool) {
	createdOn := model.DateIn(habit.CreatedAt, c.loc)
	weekEnd := window.WeekEnd()
	if createdOn.After(weekEnd.Time) {
		return model.Date{}, model.Date{}, false
	}

	start = window.WeekStart
	if createdOn.After(start.Time) {
		start = createdOn
	}
	end = weekEnd
	if today.Before(end.Time) {
		end = today
	}

	if start.DaysUntil(end)+1 < 1 {
		return model.Date{}, model.Date{}, false
	}
	return start, end, true
}

// Calculate 计算单个习惯的完成情况；checkIns 中超出统计区间的日期会被忽略
func (c Calculator) Calculate(habit model.Habit, checkIns []model.Date, window Window, today model.Date) (HabitResult, bool) {
	start, end, ok := c.Bounds(habit, window, today)
	if !ok {
		return HabitResult{}, false
	}

	expected := ExpectedCount(habit.Frequency, start.DaysUntil(end)+1)

	completed := 0
	for _, d := range checkIns {
		if !d.Before(start.Time) && !d.After(end.Time) {
			completed++
		}
	}

	percent := Percent(completed, expected)

	return HabitResult{
		HabitID:        habit.ID,
		Title:          habit.Title,
		StartedOn:      model.DateIn(habit.CreatedAt, c.loc),
		EffectiveStart: start,
		EffectiveEnd:   end,
		Completed:      completed,
		Expected:       expected,
		Missed:         max(expected-completed, 0),
		Percent:        percent,
		Suggestion:     Suggestion(percent),
	}, true
}

// ExpectedCount 每周一次的习惯按整周计算，不足 7 天的部分不计
func ExpectedCount(freq model.Frequency, totalDays int) int {
	if freq == model.FrequencyWeekly {
		return totalDays / 7
	}
	return totalDays
}

// Percent 向下取整的完成率，expected 为 0 时返回 0
func Percent(completed, expected int) int {
	if expected <= 0 {
		return 0
	}
	return completed * 100 / expected
}

func Suggestion(percent int) string {
	if percent >= goodPercent {
		return SuggestionGood
	}
	return SuggestionImprove
}

// WeekStart 返回 d 所在周的周一
func WeekStart(d model.Date) model.Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}
