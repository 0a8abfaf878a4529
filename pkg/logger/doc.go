// Package logger provides a slog.Logger factory and typed attribute
// helpers shared by all alertkit components.
//
// Components accept a *slog.Logger through functional options and fall
// back to slog.Default(), so the factory is optional glue rather than a
// hard dependency:
//
//	log := logger.New(
//	    logger.WithProduction("alert-engine"),
//	)
//	logger.SetAsDefault(log)
//
// The attribute helpers keep log keys consistent across packages:
//
//	log.InfoContext(ctx, "alert triggered",
//	    logger.AlertID(alert.ID),
//	    logger.InstrumentID(alert.InstrumentID),
//	    logger.UserID(alert.UserID),
//	)
package logger
