// Package logging builds the process-wide slog logger. Console output
// uses a compact single-line format; json output is suitable for log
// shippers. Both write to stdout plus an optional log file.
package logging
