package server

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/iWorld-y/orda/app/orda/internal/conf"
)

// ServiceName 上报链路时使用的服务名
const ServiceName = "orda"

// NewTracerProvider 配置了 OTLP 地址时导出链路，否则使用全局空实现
func NewTracerProvider(c *conf.Trace, logger log.Logger) (trace.TracerProvider, func(), error) {
	if c == nil || c.Endpoint == "" {
		return otel.GetTracerProvider(), func() {}, nil
	}
	helper := log.NewHelper(logger)

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(c.Endpoint)}
	if c.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(semconv.ServiceName(ServiceName)))
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	helper.Infof("tracing enabled, exporting to %s", c.Endpoint)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			helper.Errorf("shutdown tracer provider: %v", err)
		}
	}
	return tp, cleanup, nil
}
