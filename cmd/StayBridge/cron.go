package main

import (
	"context"
	"time"

	"StayBridge/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// StartCrons starts the background schedules:
//   - queue dispatch at the configured interval (default every 5s)
//   - monitor sweep at the configured interval (default every minute)
//   - completed-job purge daily at 04:00
func StartCrons(app *application, qc *conf.Queue, mc *conf.Monitor, logger log.Logger) *cron.Cron {
	helper := log.NewHelper(logger)

	dispatchEvery := 5 * time.Second
	if qc != nil && qc.DispatchInterval > 0 {
		dispatchEvery = qc.DispatchInterval
	}
	sweepEvery := time.Minute
	if mc != nil && mc.SweepInterval > 0 {
		sweepEvery = mc.SweepInterval
	}

	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc("@every "+dispatchEvery.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := app.queue.DispatchTick(ctx); err != nil {
			helper.Errorw("msg", "queue dispatch tick failed", "error", err)
		}
	})
	if err != nil {
		helper.Errorw("msg", "failed to register dispatch cron job", "error", err)
		return nil
	}

	_, err = c.AddFunc("@every "+sweepEvery.String(), func() {
		if evicted := app.mon.Sweep(); evicted > 0 {
			helper.Warnw("msg", "hanging operations evicted", "count", evicted)
		}
	})
	if err != nil {
		helper.Errorw("msg", "failed to register monitor sweep cron job", "error", err)
		return nil
	}

	// Daily retention pass, off-peak.
	_, err = c.AddFunc("0 0 4 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := app.queue.PurgeCompleted(ctx); err != nil {
			helper.Errorw("msg", "completed-job purge failed", "error", err)
		}
	})
	if err != nil {
		helper.Errorw("msg", "failed to register purge cron job", "error", err)
		return nil
	}

	c.Start()
	helper.Infow("msg", "cron jobs started",
		"dispatch_every", dispatchEvery.String(),
		"sweep_every", sweepEvery.String(),
	)

	return c
}
