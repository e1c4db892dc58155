// Package config loads the metrics configuration from YAML files and
// environment variables. It covers the logging level, histogram sizes, the
// Prometheus export namespace and the settings of the demo load generator.
package config
