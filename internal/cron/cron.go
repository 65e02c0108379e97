package cron

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Ошибки расписания.
var (
	// ErrInvalidSchedule — задан и cron, и интервал, или ни то ни другое.
	ErrInvalidSchedule = errors.New("schedule needs exactly one of cron expression or interval")

	// ErrInvalidCronExpr — cron-выражение не парсится.
	ErrInvalidCronExpr = errors.New("invalid cron expression")
)

// cronParser — парсер cron-выражений (5 полей и дескрипторы @daily, @every 1h).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule — расписание повторного запуска pipeline.
type Schedule struct {
	// CronExpr — cron-выражение ("0 3 * * *").
	CronExpr string `json:"cron_expr,omitempty" yaml:"cron_expr,omitempty"`

	// Interval — фиксированный интервал между запусками.
	Interval time.Duration `json:"interval,omitempty" yaml:"interval,omitempty"`

	// Timezone — IANA timezone для cron-выражения (по умолчанию UTC).
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// IsCron возвращает true, если расписание задано cron-выражением.
func (s Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если расписание задано интервалом.
func (s Schedule) IsInterval() bool {
	return s.Interval > 0
}

// Validate проверяет расписание.
func (s Schedule) Validate() error {
	if s.IsCron() == s.IsInterval() {
		return ErrInvalidSchedule
	}
	if s.IsCron() {
		return ValidateCronExpr(s.CronExpr)
	}
	return nil
}

// NextRun вычисляет следующее время запуска после from.
// Учитывает timezone расписания, результат в UTC.
func NextRun(sched Schedule, from time.Time) (time.Time, error) {
	loc := time.UTC
	if sched.Timezone != "" {
		if l, err := time.LoadLocation(sched.Timezone); err == nil {
			loc = l
		}
	}
	from = from.In(loc)

	switch {
	case sched.IsCron() && !sched.IsInterval():
		return nextCron(sched.CronExpr, from)
	case sched.IsInterval() && !sched.IsCron():
		return from.Add(sched.Interval).UTC(), nil
	default:
		return time.Time{}, ErrInvalidSchedule
	}
}

// nextCron вычисляет следующее время по cron-выражению.
func nextCron(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidCronExpr, cronExpr, err)
	}
	return schedule.Next(from).UTC(), nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidCronExpr, cronExpr, err)
	}
	return nil
}
