// Package pgstore implements the mfa.Store interface on PostgreSQL.
//
// Single-use semantics come from conditional UPDATE statements: consuming a
// challenge or recovery code updates the row only while its consumed/used
// timestamp is still NULL, so of two racing consumers exactly one observes
// an affected row. Schema migrations are embedded and applied with goose;
// Connect builds a pgx pool with linear-backoff retries for orderly startup
// behind an unready database.
//
// # Usage
//
//	pool, err := pgstore.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pgstore.Migrate(ctx, pool, cfg, logger); err != nil {
//	    log.Fatal(err)
//	}
//
//	svc, err := mfa.New(mfaCfg, pgstore.NewStore(pool))
package pgstore
