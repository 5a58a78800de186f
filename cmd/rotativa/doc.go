// Package main hosts the rotativa CLI entrypoint and command graph.
//
// The Cobra-based command tree covers one-shot article generation, the
// long-running API server, remote health checks, and configuration
// scaffolding. It centralizes configuration resolution and logger setup
// so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the
// internal packages first, then surface it through dedicated commands
// or flags here.
package main
