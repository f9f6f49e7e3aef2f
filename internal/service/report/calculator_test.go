package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-tracker/internal/model"
)

// 2026-10-12 是周一，2026-10-18 是周日
var (
	monday = day(2026, 10, 12)
	sunday = day(2026, 10, 18)
)

func day(y int, m time.Month, d int) model.Date {
	return model.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func habitCreated(id int64, freq model.Frequency, created model.Date) model.Habit {
	return model.Habit{
		ID:        id,
		UserID:    1,
		Title:     "Read",
		Frequency: freq,
		CreatedAt: created.Add(9 * time.Hour),
	}
}

func days(from model.Date, n int) []model.Date {
	out := make([]model.Date, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, from.AddDays(i))
	}
	return out
}

func TestCalculate_DailyFullStreak(t *testing.T) {
	calc := NewCalculator(time.UTC)
	habit := habitCreated(1, model.FrequencyDaily, day(2026, 10, 1))

	res, ok := calc.Calculate(habit, days(monday, 7), Window{WeekStart: monday}, sunday)
	require.True(t, ok)

	assert.Equal(t, 7, res.Expected)
	assert.Equal(t, 7, res.Completed)
	assert.Equal(t, 0, res.Missed)
	assert.Equal(t, 100, res.Percent)
	assert.Equal(t, SuggestionGood, res.Suggestion)
	assert.Equal(t, monday, res.EffectiveStart)
	assert.Equal(t, sunday, res.EffectiveEnd)
	assert.Equal(t, "2026-10-01", res.StartedOn.String())
}

func TestCalculate_DailyStreakMidWeek(t *testing.T) {
	calc := NewCalculator(time.UTC)
	habit := habitCreated(1, model.FrequencyDaily, day(2026, 9, 1))
	thursday := day(2026, 10, 15)

	res, ok := calc.Calculate(habit, days(monday, 4), Window{WeekStart: monday}, thursday)
	require.True(t, ok)
	assert.Equal(t, res.Expected, res.Completed)
	assert.Equal(t, 100, res.Percent)
}

func TestCalculate_ExcludedWhenCreatedAfterWindow(t *testing.T) {
	calc := NewCalculator(time.UTC)
	habit := habitCreated(1, model.FrequencyDaily, day(2026, 10, 19))

	_, ok := calc.Calculate(habit, nil, Window{WeekStart: monday}, day(2026, 10, 25))
	assert.False(t, ok)
}

func TestCalculate_ExcludedWhenNoElapsedDays(t *testing.T) {
	calc := NewCalculator(time.UTC)
	habit := habitCreated(1, model.FrequencyDaily, day(2026, 10, 1))

	// today 在窗口开始之前
	_, ok := calc.Calculate(habit, nil, Window{WeekStart: monday}, day(2026, 10, 11))
	assert.False(t, ok)

	// 习惯今天之后才开始
	created := habitCreated(2, model.FrequencyDaily, day(2026, 10, 16))
	_, ok = calc.Calculate(created, nil, Window{WeekStart: monday}, day(2026, 10, 15))
	assert.False(t, ok)
}

func TestExpectedCount(t *testing.T) {
	assert.Equal(t, 2, ExpectedCount(model.FrequencyWeekly, 14))
	assert.Equal(t, 1, ExpectedCount(model.FrequencyWeekly, 13))
	assert.Equal(t, 0, ExpectedCount(model.FrequencyWeekly, 6))
	assert.Equal(t, 6, ExpectedCount(model.FrequencyDaily, 6))
}

func TestPercentAndSuggestion(t *testing.T) {
	assert.Equal(t, 80, Percent(4, 5))
	assert.Equal(t, SuggestionGood, Suggestion(Percent(4, 5)))
	assert.Equal(t, 60, Percent(3, 5))
	assert.Equal(t, SuggestionImprove, Suggestion(Percent(3, 5)))
	assert.Equal(t, 0, Percent(3, 0))
	assert.Equal(t, 57, Percent(57, 100))
	assert.Equal(t, 71, Percent(5, 7))
}

func TestCalculate_FourOfFive(t *testing.T) {
	calc := NewCalculator(time.UTC)
	wednesday := day(2026, 10, 14)
	habit := habitCreated(1, model.FrequencyDaily, wednesday)

	res, ok := calc.Calculate(habit, days(wednesday, 4), Window{WeekStart: monday}, sunday)
	require.True(t, ok)
	assert.Equal(t, 5, res.Expected)
	assert.Equal(t, 4, res.Completed)
	assert.Equal(t, 80, res.Percent)
	assert.Equal(t, SuggestionGood, res.Suggestion)

	res, ok = calc.Calculate(habit, days(wednesday, 3), Window{WeekStart: monday}, sunday)
	require.True(t, ok)
	assert.Equal(t, 60, res.Percent)
	assert.Equal(t, SuggestionImprove, res.Suggestion)
}

func TestCalculate_AliceWeek(t *testing.T) {
	calc := NewCalculator(time.UTC)
	habit := habitCreated(1, model.FrequencyDaily, monday)
	checkIns := days(monday, 5) // Mon..Fri

	res, ok := calc.Calculate(habit, checkIns, Window{WeekStart: monday}, sunday)
	require.True(t, ok)
	assert.Equal(t, 7, res.Expected)
	assert.Equal(t, 5, res.Completed)
	assert.Equal(t, 2, res.Missed)
	assert.Equal(t, 71, res.Percent)

	// 周三运行时只统计已经过去的天数
	wednesday := day(2026, 10, 14)
	res, ok = calc.Calculate(habit, checkIns, Window{WeekStart: monday}, wednesday)
	require.True(t, ok)
	assert.Equal(t, 3, res.Expected)
	assert.Equal(t, 3, res.Completed)
	assert.Equal(t, 0, res.Missed)
	assert.Equal(t, 100, res.Percent)
}

func TestCalculate_WeeklyOverCompletedClampsMissed(t *testing.T) {
	calc := NewCalculator(time.UTC)
	habit := habitCreated(1, model.FrequencyWeekly, day(2026, 9, 1))

	res, ok := calc.Calculate(habit, []model.Date{monday, monday.AddDays(2), monday.AddDays(4)}, Window{WeekStart: monday}, sunday)
	require.True(t, ok)
	assert.Equal(t, 1, res.Expected)
	assert.Equal(t, 3, res.Completed)
	assert.Equal(t, 0, res.Missed)
	assert.Equal(t, 300, res.Percent)
}

func TestCalculate_WeeklyPartialWeek(t *testing.T) {
	calc := NewCalculator(time.UTC)
	habit := habitCreated(1, model.FrequencyWeekly, day(2026, 10, 14))

	res, ok := calc.Calculate(habit, []model.Date{day(2026, 10, 15)}, Window{WeekStart: monday}, sunday)
	require.True(t, ok)
	assert.Equal(t, 0, res.Expected)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, 0, res.Percent)
	assert.Equal(t, SuggestionImprove, res.Suggestion)
}

func TestCalculate_IgnoresCheckInsOutsideWindow(t *testing.T) {
	calc := NewCalculator(time.UTC)
	habit := habitCreated(1, model.FrequencyDaily, day(2026, 9, 1))
	checkIns := []model.Date{day(2026, 10, 11), monday, sunday, day(2026, 10, 19)}

	res, ok := calc.Calculate(habit, checkIns, Window{WeekStart: monday}, sunday)
	require.True(t, ok)
	assert.Equal(t, 2, res.Completed)
}

func TestCalculate_Deterministic(t *testing.T) {
	calc := NewCalculator(time.UTC)
	habit := habitCreated(1, model.FrequencyDaily, day(2026, 10, 13))
	checkIns := days(day(2026, 10, 13), 3)

	first, ok1 := calc.Calculate(habit, checkIns, Window{WeekStart: monday}, sunday)
	second, ok2 := calc.Calculate(habit, checkIns, Window{WeekStart: monday}, sunday)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}

func TestCalculate_CreatedDateUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 周日 20:00 UTC 在东京已是周一
	habit := model.Habit{ID: 1, Title: "Run", Frequency: model.FrequencyDaily,
		CreatedAt: time.Date(2026, 10, 11, 20, 0, 0, 0, time.UTC)}

	res, ok := NewCalculator(tokyo).Calculate(habit, nil, Window{WeekStart: monday}, sunday)
	require.True(t, ok)
	assert.Equal(t, monday, res.StartedOn)
	assert.Equal(t, 7, res.Expected)

	res, ok = NewCalculator(time.UTC).Calculate(habit, nil, Window{WeekStart: monday}, sunday)
	require.True(t, ok)
	assert.Equal(t, "2026-10-11", res.StartedOn.String())
	assert.Equal(t, monday, res.EffectiveStart)
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, monday, WeekStart(monday))
	assert.Equal(t, monday, WeekStart(day(2026, 10, 14)))
	assert.Equal(t, monday, WeekStart(sunday))
	assert.Equal(t, day(2026, 10, 19), WeekStart(day(2026, 10, 19)))
}
