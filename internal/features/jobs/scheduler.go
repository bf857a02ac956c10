package jobs

import (
	"context"

	"go-shareguard/internal/config"
	"go-shareguard/internal/features/ita"
	"go-shareguard/internal/features/scan"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler runs the two external poll jobs: the content scanner verdict
// query and the audit platform decision query. Both bridges deliver at least
// once, so overlapping runs are skipped rather than queued.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func NewScheduler(lc fx.Lifecycle, cfg *config.Config,
	scanPoll scan.PollService, itaPoll ita.PollService, logger *zap.Logger) (*Scheduler, error) {

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))
	s := &Scheduler{cron: c, logger: logger}

	if cfg.EnableDLPCheck {
		if _, err := c.AddFunc(cfg.DLPQueryCron, func() {
			if err := scanPoll.Poll(context.Background()); err != nil {
				logger.Error("scan poll job failed", zap.Error(err))
			}
		}); err != nil {
			return nil, err
		}
	}

	if cfg.ITAReportEventURL != "" {
		if _, err := c.AddFunc(cfg.ITAQueryCron, func() {
			if err := itaPoll.Poll(context.Background()); err != nil {
				logger.Error("audit poll job failed", zap.Error(err))
			}
		}); err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Start()
			logger.Info("poll scheduler started",
				zap.String("dlp_cron", cfg.DLPQueryCron),
				zap.String("ita_cron", cfg.ITAQueryCron))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})

	return s, nil
}
