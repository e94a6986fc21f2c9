package refresher

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// cronLogger routes cron's own messages through zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Schedule runs r every intervalMinutes until ctx is done. The returned cron
// is already started; Stop it on shutdown.
func Schedule(ctx context.Context, r *Refresher, intervalMinutes int) (*cron.Cron, error) {
	if intervalMinutes < 1 {
		return nil, fmt.Errorf("refresh interval must be at least one minute, got %d", intervalMinutes)
	}

	logger := cronLogger{logger: log.With().Str("component", "refresher").Logger()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	expr := fmt.Sprintf("@every %dm", intervalMinutes)
	if _, err := c.AddFunc(expr, func() { runCycle(ctx, r) }); err != nil {
		return nil, fmt.Errorf("schedule refresher: %w", err)
	}
	c.Start()

	log.Info().Str("schedule", expr).Msg("dynamic content refresher scheduled")
	return c, nil
}

func runCycle(ctx context.Context, r *Refresher) {
	if ctx.Err() != nil {
		return
	}
	if _, err := r.Run(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			log.Warn().Msg("previous refresh cycle still running, skipping")
			return
		}
		log.Error().Err(err).Msg("dynamic content refresh failed")
	}
}
