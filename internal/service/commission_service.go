package service

import (
	"context"

	"supplier-wallet-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CommissionService implements ports.CommissionProvider. Per-supplier rate
// overrides live in the redis cache, fed by the platform; everyone else pays
// the configured default rate. The cache is advisory: on failure or a bad
// cached value the service falls back to the default rather than blocking
// settlement.
type CommissionService struct {
	cache       ports.CommissionCache
	defaultRate decimal.Decimal
	log         zerolog.Logger
}

// NewCommissionService creates a new CommissionService.
func NewCommissionService(cache ports.CommissionCache, defaultRate decimal.Decimal, log zerolog.Logger) *CommissionService {
	return &CommissionService{
		cache:       cache,
		defaultRate: defaultRate,
		log:         log,
	}
}

// GetRate returns the commission rate for a supplier, in [0,1].
func (s *CommissionService) GetRate(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	rate, found, err := s.cache.GetRate(ctx, supplierID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("supplier_id", supplierID.String()).
			Msg("commission cache lookup failed, using default rate")
		return s.defaultRate, nil
	}
	if !found {
		return s.defaultRate, nil
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		s.log.Warn().
			Str("supplier_id", supplierID.String()).
			Str("rate", rate.String()).
			Msg("cached commission rate outside [0,1], using default rate")
		return s.defaultRate, nil
	}
	return rate, nil
}

// commissionOf computes the platform's cut of a gross amount, rounded half
// away from zero to the nearest smallest currency unit.
func commissionOf(gross int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(gross).Mul(rate).Round(0).IntPart()
}
