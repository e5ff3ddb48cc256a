// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scheduler moves elections with a scheduled voting start from
Nominating to Voting.

	w := scheduler.Worker{
		Elections: engine,
		Interval:  30 * time.Second,
		Counter:   m,
		Logger:    logger,
	}
	go w.Run(ctx)

Run sweeps once at startup and then every Interval until ctx is canceled.
RunOnce performs a single sweep and is what tests call. Each promotion goes
through the engine, so it takes the same per-position lock as user actions.
*/
package scheduler
