package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/domainkeeper/internal/metrics"
)

func TestDailyScheduleNext(t *testing.T) {
	tests := []struct {
		name  string
		after time.Time
		hour  int
		want  time.Time
	}{
		{
			name:  "同日の実行時刻前",
			after: time.Date(2026, 1, 15, 1, 30, 0, 0, time.UTC),
			hour:  2,
			want:  time.Date(2026, 1, 15, 2, 0, 0, 0, time.UTC),
		},
		{
			name:  "実行時刻を過ぎている場合は翌日",
			after: time.Date(2026, 1, 15, 2, 0, 1, 0, time.UTC),
			hour:  2,
			want:  time.Date(2026, 1, 16, 2, 0, 0, 0, time.UTC),
		},
		{
			name:  "ちょうど実行時刻の場合は翌日",
			after: time.Date(2026, 1, 15, 2, 0, 0, 0, time.UTC),
			hour:  2,
			want:  time.Date(2026, 1, 16, 2, 0, 0, 0, time.UTC),
		},
		{
			name:  "月末をまたぐ",
			after: time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC),
			hour:  2,
			want:  time.Date(2026, 2, 1, 2, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DailySchedule{Hour: tt.hour}.Next(tt.after)
			if !got.Equal(tt.want) {
				t.Errorf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyScheduleNext(t *testing.T) {
	// 2026-01-15は木曜日
	thursday := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		after   time.Time
		weekday time.Weekday
		hour    int
		want    time.Time
	}{
		{
			name:    "同週の金曜日",
			after:   thursday,
			weekday: time.Friday,
			hour:    8,
			want:    time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC),
		},
		{
			name:    "当日の実行時刻前",
			after:   time.Date(2026, 1, 16, 7, 59, 0, 0, time.UTC), // 金曜 7:59
			weekday: time.Friday,
			hour:    8,
			want:    time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC),
		},
		{
			name:    "当日の実行時刻後は翌週",
			after:   time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC), // 金曜 8:00
			weekday: time.Friday,
			hour:    8,
			want:    time.Date(2026, 1, 23, 8, 0, 0, 0, time.UTC),
		},
		{
			name:    "週をまたぐ",
			after:   time.Date(2026, 1, 17, 10, 0, 0, 0, time.UTC), // 土曜
			weekday: time.Friday,
			hour:    8,
			want:    time.Date(2026, 1, 23, 8, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeeklySchedule{Weekday: tt.weekday, Hour: tt.hour}.Next(tt.after)
			if !got.Equal(tt.want) {
				t.Errorf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntervalScheduleNext(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	got := IntervalSchedule{Interval: 6 * time.Hour}.Next(now)
	want := time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next() = %v, want %v", got, want)
	}
}

// stubTask はテスト用のTask実装。
type stubTask struct {
	name  string
	err   error
	panic bool
	runs  int
}

func (t *stubTask) Name() string { return t.name }

func (t *stubTask) Run(_ context.Context) error {
	t.runs++
	if t.panic {
		panic("boom")
	}
	return t.err
}

func TestRunTaskSuccess(t *testing.T) {
	var buf bytes.Buffer
	s := NewScheduler(metrics.Nop{}, slog.New(slog.NewJSONHandler(&buf, nil)))

	task := &stubTask{name: "cleanup-domain-ideas"}
	s.RunTask(context.Background(), task)

	if task.runs != 1 {
		t.Errorf("実行回数が不正: got %d, want 1", task.runs)
	}
	if strings.Contains(buf.String(), "ERROR") {
		t.Errorf("成功時にエラーログが出力された: %s", buf.String())
	}
}

func TestRunTaskErrorIsIsolated(t *testing.T) {
	var buf bytes.Buffer
	s := NewScheduler(metrics.Nop{}, slog.New(slog.NewJSONHandler(&buf, nil)))

	task := &stubTask{name: "expiring-report", err: errors.New("db down")}
	s.RunTask(context.Background(), task)

	if !strings.Contains(buf.String(), "タスクの実行に失敗しました") {
		t.Error("タスク失敗のエラーログが出力されていない")
	}
	if !strings.Contains(buf.String(), "expiring-report") {
		t.Error("エラーログにタスク名が含まれていない")
	}
}

func TestRunTaskPanicIsRecovered(t *testing.T) {
	var buf bytes.Buffer
	s := NewScheduler(metrics.Nop{}, slog.New(slog.NewJSONHandler(&buf, nil)))

	task := &stubTask{name: "registrar-sync", panic: true}
	s.RunTask(context.Background(), task) // パニックしないこと

	if !strings.Contains(buf.String(), "パニックが発生しました") {
		t.Error("パニックのエラーログが出力されていない")
	}
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	s := NewScheduler(metrics.Nop{}, slog.New(slog.NewJSONHandler(&buf, nil)))
	s.Add(&stubTask{name: "cleanup-domain-ideas"}, DailySchedule{Hour: 2})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("コンテキストキャンセル後にスケジューラが停止しなかった")
	}
}
