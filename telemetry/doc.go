// Package telemetry wraps the module's structured logger, so every package
// here logs through one shared, pluggable surface instead of reaching for
// fmt.Printf or the standard library's log package.
package telemetry
