package model

import "time"

// Frequency 习惯的打卡频率
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Valid 只接受 daily / weekly
func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

type Habit struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Frequency   Frequency `json:"frequency"`
	CreatedAt   time.Time `json:"created_at"`
}

// HabitStats GET /habits/:id/stats 的返回结构
type HabitStats struct {
	HabitID       int64     `json:"habit_id"`
	Title         string    `json:"title"`
	Frequency     Frequency `json:"frequency"`
	TotalCheckIns int       `json:"total_checkins"`
	FirstCheckIn  *Date     `json:"first_checkin"`
	LastCheckIn   *Date     `json:"last_checkin"`
}
