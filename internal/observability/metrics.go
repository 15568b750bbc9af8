package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "go-tenant-auth-service"

var (
	metricsOnce       sync.Once
	repositoryOps     metric.Int64Counter
	authEvents        metric.Int64Counter
	tokenRedemptions  metric.Int64Counter
	authzDecisions    metric.Int64Counter
	rateLimitRefusals metric.Int64Counter
)

func initMetrics() {
	meter := otel.GetMeterProvider().Meter(meterName)
	repositoryOps, _ = meter.Int64Counter("repository_operations_total",
		metric.WithDescription("Repository operations by entity, operation, and outcome"))
	authEvents, _ = meter.Int64Counter("auth_events_total",
		metric.WithDescription("Authentication flow events by flow and outcome"))
	tokenRedemptions, _ = meter.Int64Counter("token_redemptions_total",
		metric.WithDescription("Single-use token redemption attempts by purpose and outcome"))
	authzDecisions, _ = meter.Int64Counter("authz_decisions_total",
		metric.WithDescription("Authorization decisions by resource, action, and verdict"))
	rateLimitRefusals, _ = meter.Int64Counter("rate_limit_refusals_total",
		metric.WithDescription("Requests refused by the rate limiter, by scope"))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	metricsOnce.Do(initMetrics)
	if repositoryOps == nil {
		return
	}
	repositoryOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordAuthEvent(ctx context.Context, flow, outcome string) {
	metricsOnce.Do(initMetrics)
	if authEvents == nil {
		return
	}
	authEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("outcome", outcome),
	))
}

func RecordTokenRedemption(ctx context.Context, purpose, outcome string) {
	metricsOnce.Do(initMetrics)
	if tokenRedemptions == nil {
		return
	}
	tokenRedemptions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("purpose", purpose),
		attribute.String("outcome", outcome),
	))
}

func RecordAuthzDecision(ctx context.Context, resource, action string, allowed bool) {
	metricsOnce.Do(initMetrics)
	if authzDecisions == nil {
		return
	}
	verdict := "deny"
	if allowed {
		verdict = "allow"
	}
	authzDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("action", action),
		attribute.String("verdict", verdict),
	))
}

func RecordRateLimitRefusal(ctx context.Context, scope string) {
	metricsOnce.Do(initMetrics)
	if rateLimitRefusals == nil {
		return
	}
	rateLimitRefusals.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}
