package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// maxDatumsPerPut is the PutMetricData limit on datums per request
const maxDatumsPerPut = 1000

// CloudWatchAPI is the part of the CloudWatch client the sink uses
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics buffers observations as CloudWatch datums and sends
// them on Flush. It is meant for processes that cannot be scraped, such as
// a Lambda function between invocations.
type CloudWatchMetrics struct {
	namespace string
	client    CloudWatchAPI
	now       func() time.Time
	logger    *zap.Logger

	mu      sync.Mutex
	pending []types.MetricDatum
}

// NewCloudWatchMetrics creates a sink publishing into namespace
func NewCloudWatchMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		now:       time.Now,
		logger:    logger.Named("cloudwatch"),
	}
}

// ObserveHTTP records one HTTP request
func (m *CloudWatchMetrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	dims := dimensions("Method", method, "Route", route, "Status", strconv.Itoa(status))
	m.add(
		m.datum("HTTPRequests", 1, types.StandardUnitCount, dims),
		m.datum("HTTPLatency", milliseconds(d), types.StandardUnitMilliseconds, dims[:2]),
	)
}

// ObserveCommand records one command
func (m *CloudWatchMetrics) ObserveCommand(name string, d time.Duration, err error) {
	m.observeOperation("Command", name, d, err)
}

// ObserveQuery records one query
func (m *CloudWatchMetrics) ObserveQuery(name string, d time.Duration, err error) {
	m.observeOperation("Query", name, d, err)
}

// ObserveLLMCall records one completion
func (m *CloudWatchMetrics) ObserveLLMCall(provider string, d time.Duration, err error) {
	dims := dimensions("Provider", provider, "Status", outcome(err))
	m.add(
		m.datum("LLMCalls", 1, types.StandardUnitCount, dims),
		m.datum("LLMLatency", milliseconds(d), types.StandardUnitMilliseconds, dims[:1]),
	)
}

// SetPersistQueueDepth records the save queue depth
func (m *CloudWatchMetrics) SetPersistQueueDepth(depth int) {
	m.add(m.datum("PersistQueueDepth", float64(depth), types.StandardUnitCount, nil))
}

// IncPersistFailure counts a failed persistence stage
func (m *CloudWatchMetrics) IncPersistFailure(stage string) {
	m.add(m.datum("PersistFailures", 1, types.StandardUnitCount, dimensions("Stage", stage)))
}

// Pending returns the number of buffered datums
func (m *CloudWatchMetrics) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Flush sends every buffered datum. Datums of a failed request are
// dropped and the error is returned.
func (m *CloudWatchMetrics) Flush(ctx context.Context) error {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for start := 0; start < len(pending); start += maxDatumsPerPut {
		end := min(start+maxDatumsPerPut, len(pending))
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: pending[start:end],
		})
		if err != nil {
			m.logger.Warn("Failed to send metrics",
				zap.String("namespace", m.namespace),
				zap.Int("dropped", len(pending)-start),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

func (m *CloudWatchMetrics) observeOperation(kind, name string, d time.Duration, err error) {
	dims := dimensions(kind+"Name", name, "Status", outcome(err))
	m.add(
		m.datum(kind+"Count", 1, types.StandardUnitCount, dims),
		m.datum(kind+"Execution", milliseconds(d), types.StandardUnitMilliseconds, dims),
	)
}

func (m *CloudWatchMetrics) datum(name string, value float64, unit types.StandardUnit, dims []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(m.now()),
	}
}

func (m *CloudWatchMetrics) add(datums ...types.MetricDatum) {
	m.mu.Lock()
	m.pending = append(m.pending, datums...)
	m.mu.Unlock()
}

// dimensions pairs up names and values
func dimensions(pairs ...string) []types.Dimension {
	out := make([]types.Dimension, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.Dimension{Name: aws.String(pairs[i]), Value: aws.String(pairs[i+1])})
	}
	return out
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
