package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	domainErrors "github.com/bivex/subscription-metrics/internal/domain/errors"
	"github.com/bivex/subscription-metrics/internal/domain/repository"
)

// RateSourceFallback marks a rate synthesized from configuration
const RateSourceFallback = "fallback"

// ExchangeRateCache caches the current rate snapshot
type ExchangeRateCache interface {
	GetExchangeRate(ctx context.Context) (*entity.ExchangeRate, error)
	SetExchangeRate(ctx context.Context, rate *entity.ExchangeRate) error
}

// ExchangeRateService supplies the GTQ/USD snapshot used for normalization.
// Lookups go cache, store, then the configured fallback rate. A missing rate
// is not an error: CurrentRate returns nil and amounts stay unconverted.
type ExchangeRateService struct {
	repo   repository.ExchangeRateRepository
	cache  ExchangeRateCache
	logger *zap.Logger

	fallbackRate decimal.Decimal
	rateMutex    sync.RWMutex
}

// NewExchangeRateService creates a new exchange rate service
func NewExchangeRateService(repo repository.ExchangeRateRepository, cache ExchangeRateCache, logger *zap.Logger) *ExchangeRateService {
	return &ExchangeRateService{
		repo:         repo,
		cache:        cache,
		logger:       logger,
		fallbackRate: decimal.Zero,
	}
}

// CurrentRate returns the rate snapshot to normalize with, or nil if none is known
func (s *ExchangeRateService) CurrentRate(ctx context.Context) (*entity.ExchangeRate, error) {
	rate, err := s.cache.GetExchangeRate(ctx)
	if err == nil && rate.IsUsable() {
		return rate, nil
	}
	if err != nil && !errors.Is(err, domainErrors.ErrExchangeRateNotFound) {
		s.logger.Warn("Redis error when fetching exchange rate", zap.Error(err))
	}

	rate, err = s.repo.GetCurrent(ctx)
	switch {
	case err == nil && rate.IsUsable():
		if err := s.cache.SetExchangeRate(ctx, rate); err != nil {
			s.logger.Warn("Failed to cache exchange rate", zap.Error(err))
		}
		return rate, nil
	case err != nil && !errors.Is(err, domainErrors.ErrExchangeRateNotFound):
		return nil, fmt.Errorf("failed to load exchange rate: %w", err)
	}

	if fallback := s.fallback(); fallback != nil {
		s.logger.Warn("No stored exchange rate, using fallback",
			zap.String("gtq_per_usd", fallback.GTQPerUSD.String()),
		)
		return fallback, nil
	}

	s.logger.Warn("No exchange rate available, GTQ amounts will not be converted")
	return nil, nil
}

// Refresh reloads the stored rate into the cache
func (s *ExchangeRateService) Refresh(ctx context.Context) (*entity.ExchangeRate, error) {
	rate, err := s.repo.GetCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange rate: %w", err)
	}
	if err := s.cache.SetExchangeRate(ctx, rate); err != nil {
		return nil, fmt.Errorf("failed to cache exchange rate: %w", err)
	}

	s.logger.Info("Exchange rate refreshed",
		zap.String("gtq_per_usd", rate.GTQPerUSD.String()),
		zap.String("source", rate.Source),
		zap.Time("effective_at", rate.EffectiveAt),
	)
	return rate, nil
}

// Record stores a new rate and makes it current
func (s *ExchangeRateService) Record(ctx context.Context, gtqPerUSD decimal.Decimal, source string) (*entity.ExchangeRate, error) {
	if !gtqPerUSD.IsPositive() {
		return nil, domainErrors.NewValidationError("gtqPerUSD", "rate must be positive")
	}
	rate := entity.NewExchangeRate(gtqPerUSD, source, time.Now().UTC())
	if err := s.repo.Create(ctx, rate); err != nil {
		return nil, fmt.Errorf("failed to store exchange rate: %w", err)
	}
	if err := s.cache.SetExchangeRate(ctx, rate); err != nil {
		s.logger.Warn("Failed to cache exchange rate", zap.Error(err))
	}
	return rate, nil
}

// SetFallbackRate sets the rate used when nothing is stored. Zero disables it.
func (s *ExchangeRateService) SetFallbackRate(gtqPerUSD decimal.Decimal) {
	s.rateMutex.Lock()
	defer s.rateMutex.Unlock()

	s.fallbackRate = gtqPerUSD
	s.logger.Info("Fallback rate updated", zap.String("gtq_per_usd", gtqPerUSD.String()))
}

func (s *ExchangeRateService) fallback() *entity.ExchangeRate {
	s.rateMutex.RLock()
	defer s.rateMutex.RUnlock()

	if !s.fallbackRate.IsPositive() {
		return nil
	}
	return &entity.ExchangeRate{
		GTQPerUSD:   s.fallbackRate,
		Source:      RateSourceFallback,
		EffectiveAt: time.Now().UTC(),
	}
}
