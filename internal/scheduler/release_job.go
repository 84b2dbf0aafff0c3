package scheduler

import (
	"context"
	"errors"

	"supplier-wallet-service/internal/core/domain"
	"supplier-wallet-service/internal/core/ports"

	"github.com/rs/zerolog"
)

// ReleaseJob moves matured pending holds to the available balance. It is safe
// to run concurrently with event settlement and with other instances of
// itself: the hold's conditional consume makes each release apply at most
// once, and a lost race is skipped.
type ReleaseJob struct {
	ledger    ports.LedgerService
	holdRepo  ports.HoldRepository
	clock     ports.Clock
	batchSize int
	log       zerolog.Logger
}

// NewReleaseJob creates a new ReleaseJob.
func NewReleaseJob(
	ledger ports.LedgerService,
	holdRepo ports.HoldRepository,
	clock ports.Clock,
	batchSize int,
	log zerolog.Logger,
) *ReleaseJob {
	return &ReleaseJob{
		ledger:    ledger,
		holdRepo:  holdRepo,
		clock:     clock,
		batchSize: batchSize,
		log:       log,
	}
}

// Name identifies the job in logs.
func (j *ReleaseJob) Name() string { return "pending-release" }

// Run processes matured holds in batches until none remain. A hold that fails
// to release is logged and left for the next run; one bad hold must not stall
// the rest of the batch.
func (j *ReleaseJob) Run(ctx context.Context) error {
	now := j.clock.Now().UTC()
	var released, skipped, failed int

	for {
		holds, err := j.holdRepo.ListMatured(ctx, now, j.batchSize)
		if err != nil {
			return err
		}
		if len(holds) == 0 {
			break
		}

		progressed := 0
		for _, hold := range holds {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, err := j.ledger.ReleasePending(ctx, hold); err != nil {
				if errors.Is(err, domain.ErrHoldConsumed) {
					// Refunded or released by a concurrent worker meanwhile.
					skipped++
					progressed++
					continue
				}
				failed++
				j.log.Error().Err(err).
					Str("hold_id", hold.ID.String()).
					Str("order_id", hold.OrderID.String()).
					Int64("amount", hold.Amount).
					Msg("failed to release matured hold")
				continue
			}
			released++
			progressed++
		}

		// Failed holds stay matured; stop rather than spin on them.
		if progressed == 0 || len(holds) < j.batchSize {
			break
		}
	}

	if released > 0 || skipped > 0 || failed > 0 {
		j.log.Info().
			Int("released", released).
			Int("skipped", skipped).
			Int("failed", failed).
			Msg("pending release run finished")
	}
	return nil
}
