package main

import (
	"context"
	"log"
	"time"

	"topicgraph/infrastructure/config"
	"topicgraph/infrastructure/di"
	"topicgraph/pkg/observability"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	httpadapter "github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"go.uber.org/zap"
)

var (
	// adapter wraps the HTTP handler for API Gateway v2 events
	adapter *httpadapter.HandlerAdapterV2

	container *di.Container

	coldStart     = true
	coldStartTime time.Time
)

// init runs during cold start
func init() {
	coldStartTime = time.Now()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// There is no background after the response is returned, so saves run
	// inline.
	cfg.Persistence.Workers = 0
	// Nothing scrapes a frozen function, so requested metrics are pushed to
	// CloudWatch after every invocation instead of served on /metrics.
	if cfg.Observability.MetricsEnabled {
		cfg.Observability.MetricsEnabled = false
		cfg.Observability.CloudWatchEnabled = true
	}

	logger, _, err := observability.NewLogger(string(cfg.Environment), cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Lambda freezes the process between invocations; the cleanup is never
	// reached.
	container, _, err = di.InitializeContainer(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize container", zap.Error(err))
	}
	adapter = httpadapter.NewV2(container.Handler)

	logger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(coldStartTime)))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := adapter.ProxyWithContext(ctx, req)
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}

	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Lambda-Request-ID"] = req.RequestContext.RequestID
	}

	if resp.StatusCode >= 500 {
		container.Logger.Error("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.Int("status_code", resp.StatusCode),
		)
	}
	if flushErr := container.FlushMetrics(ctx); flushErr != nil {
		container.Logger.Warn("Metrics not flushed", zap.Error(flushErr))
	}
	return resp, err
}

func main() {
	lambda.Start(Handler)
}
