package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bivex/subscription-metrics/internal/domain/entity"
	"github.com/bivex/subscription-metrics/internal/domain/valueobject"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func activeSub(amount string, currency valueobject.Currency, frequency valueobject.BillingFrequency, startDate time.Time) entity.Subscription {
	return entity.Subscription{
		ID:               uuid.New(),
		PartnerID:        uuid.New(),
		Status:           valueobject.StatusActive,
		PlanType:         valueobject.PlanEsencia,
		BillingFrequency: frequency,
		BillingAmount:    valueobject.MustMoney(amount, currency),
		StartDate:        startDate,
		CreatedAt:        startDate,
		UpdatedAt:        startDate,
	}
}

func payment(amount string, currency valueobject.Currency, status valueobject.PaymentStatus, date time.Time) entity.Payment {
	return entity.Payment{
		ID:          uuid.New(),
		Amount:      valueobject.MustMoney(amount, currency),
		Status:      status,
		PaymentDate: date,
		CreatedAt:   date,
	}
}

func event(eventType valueobject.EventType, at time.Time) entity.SubscriptionEvent {
	return entity.SubscriptionEvent{
		ID:             uuid.New(),
		SubscriptionID: uuid.New(),
		Type:           eventType,
		OccurredAt:     at,
	}
}

func gtqRate(gtqPerUSD string) *entity.ExchangeRate {
	return entity.NewExchangeRate(decimal.RequireFromString(gtqPerUSD), "test", day(2024, 1, 1))
}
