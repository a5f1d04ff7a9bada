// Package store persists finished debate results.
//
// Two sinks are provided: FileSink writes one JSON document per debate,
// SQLiteSink keeps a queryable table with the full result attached as a
// JSON payload. Both satisfy the pipeline's Sink interface.
package store
