// Command update downloads the food-security indicators and writes one CSV per chart.
//
// Usage:
//
//	update [run] [--chart NAME]... [--config charts.yaml] [--output-dir DIR]
//	update charts
//
// The process exits with a non-zero status when any selected chart fails.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
