package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics publishes application metrics to CloudWatch. A nil Metrics or a
// nil client is a no-op, so development setups can skip it entirely.
type Metrics struct {
	namespace string
	client    *cloudwatch.Client
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client *cloudwatch.Client) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
	}
}

// RecordResolution records the outcome of one node-to-card resolution
func (m *Metrics) RecordResolution(ctx context.Context, strategy string, confidence float64, duration time.Duration) {
	if m == nil || m.client == nil {
		return
	}

	data := []types.MetricDatum{
		{
			MetricName: aws.String("NodeResolutionDuration"),
			Dimensions: []types.Dimension{
				{Name: aws.String("Strategy"), Value: aws.String(strategy)},
			},
			Value:     aws.Float64(float64(duration.Milliseconds())),
			Unit:      types.StandardUnitMilliseconds,
			Timestamp: aws.Time(time.Now()),
		},
		{
			MetricName: aws.String("NodeResolutionConfidence"),
			Dimensions: []types.Dimension{
				{Name: aws.String("Strategy"), Value: aws.String(strategy)},
			},
			Value:     aws.Float64(confidence),
			Unit:      types.StandardUnitNone,
			Timestamp: aws.Time(time.Now()),
		},
	}

	m.put(ctx, data)
}

// RecordCacheLookup records a resolution-cache hit or miss
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil || m.client == nil {
		return
	}

	outcome := "miss"
	if hit {
		outcome = "hit"
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("ResolutionCacheLookup"),
			Dimensions: []types.Dimension{
				{Name: aws.String("Outcome"), Value: aws.String(outcome)},
			},
			Value:     aws.Float64(1),
			Unit:      types.StandardUnitCount,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

// RecordEntityBatch records one per-kind entity batch fetch
func (m *Metrics) RecordEntityBatch(ctx context.Context, kind string, size int, duration time.Duration, err error) {
	if m == nil || m.client == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("EntityBatchSize"),
			Dimensions: []types.Dimension{
				{Name: aws.String("EntityKind"), Value: aws.String(kind)},
				{Name: aws.String("Status"), Value: aws.String(status)},
			},
			Value:     aws.Float64(float64(size)),
			Unit:      types.StandardUnitCount,
			Timestamp: aws.Time(time.Now()),
		},
		{
			MetricName: aws.String("EntityBatchDuration"),
			Dimensions: []types.Dimension{
				{Name: aws.String("EntityKind"), Value: aws.String(kind)},
			},
			Value:     aws.Float64(float64(duration.Milliseconds())),
			Unit:      types.StandardUnitMilliseconds,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

func (m *Metrics) put(ctx context.Context, data []types.MetricDatum) {
	// Metric emission must never fail a request
	_, _ = m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
}
