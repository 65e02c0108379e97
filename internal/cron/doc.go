// Package cron запускает pipeline по расписанию.
//
// Расписание задаётся cron-выражением (robfig/cron, 5 полей или
// дескриптор @daily) либо фиксированным интервалом:
//
//	runner, err := cron.NewRunner(cron.Config{
//	    Schedule: cron.Schedule{CronExpr: "0 3 * * *", Timezone: "Europe/Moscow"},
//	    Job: func(ctx context.Context, tick time.Time) error {
//	        _, err := runPipeline(ctx)
//	        return err
//	    },
//	})
//	runs, err := runner.Run(ctx)
package cron
