// Package app wires the merge service into an HTTP server. It owns
// telemetry start-up, service construction, routing and graceful shutdown.
//
// # Initialization Flow
//
//	1. Initialize OpenTelemetry from the telemetry config section
//	2. Create merge metrics on the configured meter
//	3. Build the merger, merge service and health service
//	4. Set up middleware, handlers and the /metrics endpoint
//	5. Create the HTTP server from the server config section
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	return application.Run(ctx)
//
// # Middleware Order
//
//	RequestID → RealIP → OTel → Logger → Recoverer → StripSlashes → SecurityHeaders → CORS
//
// Merge routes additionally pass through the rate limiter, the request
// timeout, the content type check and the body size limit.
//
// # Graceful Shutdown
//
// Run returns once ctx is cancelled and in-flight requests have finished
// or ShutdownTimeout has elapsed. Telemetry providers are flushed last.
// The package never calls os.Exit; exit codes belong to the caller.
package app
