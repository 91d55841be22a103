package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/pkg/logger"
	"github.com/AminArria/sponsorly/pkg/telemetry"
)

// Outcomes recorded on sponsorship_confirmations_total
const (
	outcomeConfirmed = "confirmed"
	outcomeConflict  = "conflict"
	outcomeClosed    = "closed"
)

type serviceMetrics struct {
	confirmations    *telemetry.Counter
	confirmConflicts *telemetry.Counter
	offers           *telemetry.Counter
	pendingOffers    *telemetry.UpDownCounter
	issuesGenerated  *telemetry.Histogram
}

func newServiceMetrics() *serviceMetrics {
	m := &serviceMetrics{}
	var err error

	if m.confirmations, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "sponsorship_confirmations_total",
		Description: "Confirmation attempts by outcome",
		Unit:        "1",
	}); err != nil {
		logger.Warn("failed to create metric", zap.String("metric", "sponsorship_confirmations_total"), zap.Error(err))
	}
	if m.confirmConflicts, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "sponsorship_confirm_conflicts_total",
		Description: "Confirmations rejected because the issue was already confirmed",
		Unit:        "1",
	}); err != nil {
		logger.Warn("failed to create metric", zap.String("metric", "sponsorship_confirm_conflicts_total"), zap.Error(err))
	}
	if m.offers, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "sponsorship_offers_total",
		Description: "Sponsorship offers created",
		Unit:        "1",
	}); err != nil {
		logger.Warn("failed to create metric", zap.String("metric", "sponsorship_offers_total"), zap.Error(err))
	}
	if m.pendingOffers, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "sponsorship_offers_pending",
		Description: "Offers waiting for the newsletter owner",
		Unit:        "1",
	}); err != nil {
		logger.Warn("failed to create metric", zap.String("metric", "sponsorship_offers_pending"), zap.Error(err))
	}
	if m.issuesGenerated, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "newsletter_issues_generated",
		Description: "Issues generated per newsletter creation",
		Unit:        "1",
	}, 1, 5, 10, 25, 50, 100, 250, 366); err != nil {
		logger.Warn("failed to create metric", zap.String("metric", "newsletter_issues_generated"), zap.Error(err))
	}
	return m
}

func (m *serviceMetrics) confirmation(ctx context.Context, outcome string) {
	if m.confirmations != nil {
		m.confirmations.Inc(ctx, telemetry.OutcomeAttr(outcome))
	}
	if outcome == outcomeConflict && m.confirmConflicts != nil {
		m.confirmConflicts.Inc(ctx)
	}
}

func (m *serviceMetrics) offer(ctx context.Context, attrs ...attribute.KeyValue) {
	if m.offers != nil {
		m.offers.Inc(ctx, attrs...)
	}
	m.pending(ctx, true)
}

// pending moves sponsorship_offers_pending up when an offer becomes pending
// and down when it leaves that state
func (m *serviceMetrics) pending(ctx context.Context, up bool) {
	if m.pendingOffers == nil {
		return
	}
	if up {
		m.pendingOffers.Inc(ctx)
	} else {
		m.pendingOffers.Dec(ctx)
	}
}

func (m *serviceMetrics) generated(ctx context.Context, count int) {
	if m.issuesGenerated != nil {
		m.issuesGenerated.Record(ctx, float64(count))
	}
}
