package model

import "time"

// CheckIn 某个习惯在某一天完成的记录，只追加不修改
type CheckIn struct {
	ID      int64 `json:"id"`
	HabitID int64 `json:"habit_id"`
	Date    Date  `json:"date"`
}

const dateLayout = "2006-01-02"

// Date 不带时间部分的日历日期，统一存成 UTC 零点
type Date struct {
	time.Time
}

// NewDate 取 t 在其自身时区下的日历日期
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateIn 取 t 在 loc 时区下的日历日期
func DateIn(t time.Time, loc *time.Location) Date {
	return NewDate(t.In(loc))
}

func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// DaysUntil 返回 other - d 的天数
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return &time.ParseError{Layout: dateLayout, Value: s}
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
