// Package app wires configuration, telemetry, services and the HTTP
// router into one Application and manages its lifecycle.
//
// Middleware order on API routes is RequestID, RealIP, Tracing,
// StructuredLogger, Recoverer, SecurityHeaders and RateLimiter. The /ws
// endpoint only gets RequestID and RealIP since the upgrade needs the raw
// ResponseWriter. /metrics sits outside the rate limit.
//
// Usage:
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run returns once ctx is cancelled (typically by SIGINT or SIGTERM) and
// the server has drained, the websocket hub has closed its clients and the
// telemetry providers have flushed.
package app
