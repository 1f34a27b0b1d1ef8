// Package reactive exposes a blocking repository.Mapper as lazy single-value
// results (Mono) and push-based streams (Flux).
//
// Every Mono and Flux is deferred: building one runs nothing, and each Await,
// Each or Subscribe runs the underlying blocking call again. Use RunAsync for
// fire-and-forget execution.
//
// Streams read from a database cursor run inside one transaction per
// subscription, and batch writes run one transaction per chunk. Outcomes of a
// chunk are emitted once its transaction commits; a failing chunk ends the
// stream without retracting outcomes already emitted.
package reactive
