// Package pg provides the Postgres plumbing shared by the toolkit: pool
// construction with startup retries, goose schema migrations, a healthcheck
// closure for readiness endpoints, and helpers classifying common SQLSTATE
// failures.
package pg
