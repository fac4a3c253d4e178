package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the part of the CloudWatch client used for metrics
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics publishes command and business metrics to CloudWatch.
// It is used on Lambda where nothing scrapes a Prometheus endpoint.
type CloudWatchMetrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
}

// NewCloudWatchMetrics creates a new CloudWatch metrics sink
func NewCloudWatchMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordCommand records latency and count for one command execution
func (m *CloudWatchMetrics) RecordCommand(ctx context.Context, name string, duration time.Duration, err error) {
	dims := []types.Dimension{
		{Name: aws.String("CommandName"), Value: aws.String(name)},
		{Name: aws.String("Status"), Value: aws.String(Outcome(err))},
	}
	now := time.Now()

	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("CommandExecution"),
			Dimensions: dims,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(now),
		},
		{
			MetricName: aws.String("CommandCount"),
			Dimensions: dims,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
		},
	})
}

// RecordQuery records one query execution
func (m *CloudWatchMetrics) RecordQuery(ctx context.Context, name string, duration time.Duration, err error) {
	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("QueryExecution"),
			Dimensions: []types.Dimension{
				{Name: aws.String("QueryName"), Value: aws.String(name)},
				{Name: aws.String("Status"), Value: aws.String(Outcome(err))},
			},
			Value:     aws.Float64(float64(duration.Milliseconds())),
			Unit:      types.StandardUnitMilliseconds,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

// RecordTodoEvent counts a todo lifecycle event
func (m *CloudWatchMetrics) RecordTodoEvent(eventType string) {
	m.put(context.Background(), []types.MetricDatum{
		{
			MetricName: aws.String("TodoEvents"),
			Dimensions: []types.Dimension{
				{Name: aws.String("EventType"), Value: aws.String(eventType)},
			},
			Value:     aws.Float64(1),
			Unit:      types.StandardUnitCount,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

func (m *CloudWatchMetrics) put(ctx context.Context, data []types.MetricDatum) {
	if m.client == nil {
		return
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	// Metrics never fail the operation
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Warn("Failed to send metrics", zap.Error(err))
	}
}
