// Package logging provides structured logging for reductiond.
//
// Logger wraps Zap with:
//   - A Trace level (-2, below Debug)
//   - Stdout output plus an optional OpenTelemetry log bridge
//   - Request correlation fields taken from the context (trace_id, request.id, client.id)
//   - Field name and pattern based redaction of API keys
//   - Sampling below Error
//
// Build a logger from the service configuration:
//
//	logger, err := logging.NewLogger(logging.FromObservability(cfg.Observability), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Request scoped fields come from the context:
//
//	ctx = logging.WithRequestID(ctx, requestID)
//	logger.Info(ctx, "reduction completed", zap.String("algorithm", "semantic"))
//
// Tests use TestLogger:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertNoSecrets(t)
//
// Logger is safe for concurrent use.
package logging
