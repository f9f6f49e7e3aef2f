package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"habit-tracker/internal/model"
)

const (
	Subject = "Your Weekly Habit Tracker Report"

	displayDate = "02-Jan-2006"
)

// HabitLister 读取用户的全部习惯
type HabitLister interface {
	ListByUser(ctx context.Context, userID int64) ([]model.Habit, error)
}

// CheckInLister 读取习惯在闭区间内的打卡日期
type CheckInLister interface {
	ListDatesInRange(ctx context.Context, habitID int64, from, to model.Date) ([]model.Date, error)
}

// Report 一个用户一周的周报
type Report struct {
	UserID    int64
	WeekStart model.Date
	Subject   string
	Body      string
	Habits    []HabitResult
	// Empty 没有任何习惯计入本期周报，Body 只有标题行
	Empty bool
}

type Generator struct {
	habits   HabitLister
	checkIns CheckInLister
	calc     Calculator
}

func NewGenerator(habits HabitLister, checkIns CheckInLister, calc Calculator) *Generator {
	return &Generator{
		habits:   habits,
		checkIns: checkIns,
		calc:     calc,
	}
}

// Generate 生成 user 在 weekStart 所在周的周报，today 之后的日期不计入
func (g *Generator) Generate(ctx context.Context, user model.User, weekStart model.Date, today model.Date) (*Report, error) {
	habits, err := g.habits.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list habits for user %d: %w", user.ID, err)
	}
	sort.SliceStable(habits, func(i, j int) bool { return habits[i].ID < habits[j].ID })

	window := Window{WeekStart: weekStart}
	results := make([]HabitResult, 0, len(habits))
	for _, habit := range habits {
		from, to, ok := g.calc.Bounds(habit, window, today)
		if !ok {
			continue
		}

		dates, err := g.checkIns.ListDatesInRange(ctx, habit.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("list check-ins for habit %d: %w", habit.ID, err)
		}

		result, ok := g.calc.Calculate(habit, dates, window, today)
		if !ok {
			continue
		}
		results = append(results, result)
	}

	return &Report{
		UserID:    user.ID,
		WeekStart: weekStart,
		Subject:   Subject,
		Body:      Render(user.Name, results),
		Habits:    results,
		Empty:     len(results) == 0,
	}, nil
}

// Render 输出纯文本周报
func Render(userName string, results []HabitResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly Report for %s\n\n", userName)

	for _, r := range results {
		fmt.Fprintf(&b, "Habit: %s\n", r.Title)
		fmt.Fprintf(&b, "Started on: %s\n", r.StartedOn.Format(displayDate))
		fmt.Fprintf(&b, "Progress from %s to %s:\n",
			r.EffectiveStart.Format(displayDate), r.EffectiveEnd.Format(displayDate))
		fmt.Fprintf(&b, "Completed: %d/%d (%d%%)\n", r.Completed, r.Expected, r.Percent)
		fmt.Fprintf(&b, "Missed Days: %d\n", r.Missed)
		fmt.Fprintf(&b, "Suggestion: %s\n\n", r.Suggestion)
	}
	return b.String()
}
