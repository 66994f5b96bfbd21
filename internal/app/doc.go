// Package app contains the core application logic for the migration CLI. It
// defines the main App struct, its configuration, and the load → build →
// parse-and-migrate lifecycle, decoupled from any specific entrypoint.
package app
