// Package application provides application initialization and dependency wiring.
// It builds the HTTP client factory, the channel registry and the dispatcher
// from a loaded configuration, keeping the main package focused on CLI parsing
// and orchestration.
package application
