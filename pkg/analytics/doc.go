// Package analytics records error, event, pageview and ecommerce logs.
//
// A [Tracker] buffers the entries of one request. When the request ends the
// buffer is handed to a [Sink] in one piece: [Queued] enqueues a single
// background job on the "log" queue, [Direct] writes to a [Warehouse]
// synchronously. Delivery is best effort; entries lost to a failed job are
// not retried past the configured attempts.
//
//	tracker := analytics.TrackerFrom(ctx)
//	err := tracker.Event(ctx, analytics.EventLog{Category: "signup", Action: "submit"})
//
// On the worker side [FlushTask] stores batches and [PruneTask] drops
// entries older than the retention window. Package pgwarehouse provides a
// PostgreSQL warehouse; [SlogWarehouse] writes entries to a logger.
package analytics
