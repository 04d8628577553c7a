/*
Package observability provides tools for monitoring the Foundry engine.

It turns the engine's lifecycle hooks into Prometheus metrics and structured
debug logs, and merges several hook sets into one.
*/
package observability
