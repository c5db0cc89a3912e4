// Package observability holds the logger and Prometheus collectors shared by
// the HTTP layer and the identity pipeline.
package observability
