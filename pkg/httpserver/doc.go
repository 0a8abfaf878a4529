// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts, health-check handlers, and slog logging.
//
// Run blocks until the context is cancelled or an interrupt/TERM signal
// arrives, then drains in-flight requests within the shutdown deadline.
// Construction goes through New or NewFromConfig; listener address and
// timeouts come from Config, loadable from the environment. Start
// errors wrap ErrStart and shutdown errors wrap ErrShutdown for
// errors.Is checks.
//
//	r := chi.NewRouter()
//	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
//	r.Mount("/api/v1", alertapi.Router(eng))
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
