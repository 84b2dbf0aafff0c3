package scheduler

import (
	"context"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"

	"github.com/rs/zerolog"
)

// RolloverJob closes the monthly books: every active wallet whose period
// marker lags behind the current month gets its available balance moved to
// the withdrawn total and its monthly counters reset. The per-wallet period
// guard makes replayed runs no-ops.
type RolloverJob struct {
	ledger     ports.LedgerService
	walletRepo ports.WalletRepository
	clock      ports.Clock
	batchSize  int
	log        zerolog.Logger
}

// NewRolloverJob creates a new RolloverJob.
func NewRolloverJob(
	ledger ports.LedgerService,
	walletRepo ports.WalletRepository,
	clock ports.Clock,
	batchSize int,
	log zerolog.Logger,
) *RolloverJob {
	return &RolloverJob{
		ledger:     ledger,
		walletRepo: walletRepo,
		clock:      clock,
		batchSize:  batchSize,
		log:        log,
	}
}

// Name identifies the job in logs.
func (j *RolloverJob) Name() string { return "monthly-rollover" }

// Run rolls lagging wallets over to the current period, batch by batch.
func (j *RolloverJob) Run(ctx context.Context) error {
	period := domain.PeriodOf(j.clock.Now())
	var rolled, failed int

	for {
		wallets, err := j.walletRepo.ListForRollover(ctx, period, j.batchSize)
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			break
		}

		progressed := 0
		for _, wallet := range wallets {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, err := j.ledger.RolloverMonth(ctx, wallet.ID, period); err != nil {
				failed++
				j.log.Error().Err(err).
					Str("wallet_id", wallet.ID.String()).
					Str("period", period).
					Msg("failed to roll wallet over")
				continue
			}
			rolled++
			progressed++
		}

		if progressed == 0 || len(wallets) < j.batchSize {
			break
		}
	}

	if rolled > 0 || failed > 0 {
		j.log.Info().
			Str("period", period).
			Int("rolled", rolled).
			Int("failed", failed).
			Msg("monthly rollover run finished")
	}
	return nil
}
