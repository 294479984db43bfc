// Package worker はバックグラウンドタスクのスケジューリングと実行基盤を提供する。
// 日次・週次の実行時刻を計算し、タイマーループでタスクを起動する。
package worker

import (
	"context"
	"time"
)

// Schedule はタスクの次回実行時刻を計算するインターフェース。
type Schedule interface {
	// Next は指定時刻より後の次回実行時刻を返す。
	Next(after time.Time) time.Time
}

// DailySchedule は毎日指定時刻（UTC）に実行するスケジュール。
type DailySchedule struct {
	Hour int
}

// Next は指定時刻より後の、次のHour時0分（UTC）を返す。
func (s DailySchedule) Next(after time.Time) time.Time {
	after = after.UTC()
	next := time.Date(after.Year(), after.Month(), after.Day(), s.Hour, 0, 0, 0, time.UTC)
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// WeeklySchedule は毎週指定曜日の指定時刻（UTC）に実行するスケジュール。
type WeeklySchedule struct {
	Weekday time.Weekday
	Hour    int
}

// Next は指定時刻より後の、次のWeekday曜日Hour時0分（UTC）を返す。
func (s WeeklySchedule) Next(after time.Time) time.Time {
	after = after.UTC()
	next := time.Date(after.Year(), after.Month(), after.Day(), s.Hour, 0, 0, 0, time.UTC)

	daysAhead := (int(s.Weekday) - int(after.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, daysAhead)
	if !next.After(after) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// IntervalSchedule は一定間隔で実行するスケジュール。
type IntervalSchedule struct {
	Interval time.Duration
}

// Next は指定時刻からInterval経過後の時刻を返す。
func (s IntervalSchedule) Next(after time.Time) time.Time {
	return after.Add(s.Interval)
}

// sleepUntil は指定時刻まで待機する。コンテキストキャンセル時はfalseを返す。
func sleepUntil(ctx context.Context, t time.Time) bool {
	timer := time.NewTimer(time.Until(t))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// compile-time interface checks
var (
	_ Schedule = DailySchedule{}
	_ Schedule = WeeklySchedule{}
	_ Schedule = IntervalSchedule{}
)
