// Package telemetry wires the OpenTelemetry SDK for semcache. When telemetry
// is disabled no exporters are created and the global providers stay noop.
package telemetry
