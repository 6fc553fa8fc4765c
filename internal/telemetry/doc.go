// Package telemetry wires OpenTelemetry tracing and metrics for reductiond.
//
// Telemetry is disabled by default. When enabled, spans and metrics are
// exported over OTLP (gRPC or HTTP/protobuf) to the configured collector.
// Exporter failures never stop the service: the instance is marked
// degraded and the global no-op providers stay in place.
//
//	tel, err := telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	engine, err := reduction.NewEngine(
//	    reduction.WithTracerProvider(tel.TracerProvider()),
//	    reduction.WithMeterProvider(tel.MeterProvider()),
//	)
//
// Tests use NewTestTelemetry, which records spans in memory and reads
// metrics on demand.
package telemetry
