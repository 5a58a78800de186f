package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func printStatus(w io.Writer, kind statusKind, message string) {
	label, color := statusKindLabel(kind)
	line := fmt.Sprintf("[%s] %s", label, message)
	if color != "" && shouldColorize(w) {
		line = color + line + ansiReset
	}
	fmt.Fprintln(w, line)
}

func statusKindLabel(kind statusKind) (string, string) {
	switch kind {
	case statusOK:
		return "OK", ansiGreen
	case statusWarn:
		return "WARN", ansiYellow
	case statusError:
		return "ERROR", ansiRed
	default:
		return "INFO", ansiBlue
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
