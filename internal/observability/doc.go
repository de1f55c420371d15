// Package observability provides the append-only lifecycle event log and the
// statistics derived from it. Events are persisted as JSON Lines so agents
// and shell tooling can tail the same file the dashboard reads.
package observability
