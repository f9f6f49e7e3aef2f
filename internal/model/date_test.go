package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateIn(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2026-10-18 20:00 UTC 在东京已经是 10-19
	ts := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-18", DateIn(ts, time.UTC).String())
	assert.Equal(t, "2026-10-19", DateIn(ts, tokyo).String())
}

func TestDateArithmetic(t *testing.T) {
	monday := NewDate(time.Date(2026, 10, 12, 9, 30, 0, 0, time.UTC))
	sunday := monday.AddDays(6)

	assert.Equal(t, "2026-10-18", sunday.String())
	assert.Equal(t, 6, monday.DaysUntil(sunday))
	assert.Equal(t, -6, sunday.DaysUntil(monday))
}

func TestDateJSON(t *testing.T) {
	d := NewDate(time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC))
	b, err := json.Marshal(CheckIn{ID: 1, HabitID: 2, Date: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"habit_id":2,"date":"2026-03-29"}`, string(b))

	var c CheckIn
	require.NoError(t, json.Unmarshal(b, &c))
	assert.True(t, c.Date.Equal(d.Time))

	assert.Error(t, json.Unmarshal([]byte(`{"date":20260329}`), &c))
}

func TestFrequencyValid(t *testing.T) {
	assert.True(t, FrequencyDaily.Valid())
	assert.True(t, FrequencyWeekly.Valid())
	assert.False(t, Frequency("monthly").Valid())
}
