// Package pg bootstraps the PostgreSQL layer backing notification and
// alert persistence: a pgx/v5 connection pool with startup retries,
// goose schema migrations, and error helpers shared by the persisters.
//
// The in-memory stores remain authoritative at runtime; this package
// only has to get a durable pool up before the engine starts and keep
// the schema current:
//
//	cfg := config.MustLoad[pg.Config]()
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//	    return err
//	}
package pg
