package chrono

import (
	"fmt"
	"time"

	"curriculum-scraper/internal/components/telemetry"

	"github.com/robfig/cron/v3"
)

const report_cron_job = "cron.job"

// CronAPI schedules recurring jobs, a scheduled batch scrape for example.
type CronAPI interface {
	// Cron registers `callback` under `name` and returns when it first runs.
	Cron(name, spec string, callback func()) (time.Time, error)
	Stop()
}

// StandardCron is backed by `github.com/robfig/cron/v3`.
type StandardCron struct {
	cron  *cron.Cron
	clock API
	tel   telemetry.API
}

func NewStandardCron(clock API, tel telemetry.API) StandardCron {
	logger := cronLogger{tel: tel}
	cronner := cron.New(
		cron.WithLogger(logger),
		cron.WithLocation(clock.Location()),
		// a run still going when the next tick fires skips that tick
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	cronner.Start()

	return StandardCron{
		cron:  cronner,
		clock: clock,
		tel:   tel,
	}
}

// NextRun is when `spec` fires next after `after`, the schedule is parsed
// the same way Cron parses it.
func NextRun(spec string, after time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(after), nil
}

func (s StandardCron) Cron(name, spec string, callback func()) (time.Time, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse schedule of %s: %w", name, err)
	}

	s.cron.Schedule(schedule, cron.FuncJob(func() {
		start := s.clock.Now()
		s.tel.ReportDebug(fmt.Sprintf("cron: %s started", name))
		callback()
		s.tel.ReportDebug(
			fmt.Sprintf("cron: %s finished", name),
			"took", s.clock.Now().Sub(start).String(),
			"next", schedule.Next(s.clock.Now()).Format(time.RFC3339),
		)
		s.tel.ReportCount(report_cron_job, 1)
	}))
	return schedule.Next(s.clock.Now()), nil
}

// Stop prevents new runs from starting and waits for a running one to finish.
func (s StandardCron) Stop() {
	<-s.cron.Stop().Done()
}

type cronLogger struct {
	tel telemetry.API
}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := make([]any, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		params = append(params, fmt.Sprintf("%v: %v", keysAndValues[i], keysAndValues[i+1]))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug("cron: "+msg, l.formatParams(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken(
		"cron",
		append([]any{fmt.Errorf("%s: %w", msg, err)}, l.formatParams(keysAndValues)...)...,
	)
}
