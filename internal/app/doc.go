// Package app wires configuration, logging, metrics, services, and the
// HTTP router into a runnable application.
package app
