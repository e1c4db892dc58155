// Package export renders processor snapshots as Prometheus metrics.
//
// Collector is an unchecked prometheus.Collector: it describes nothing up
// front and, on every scrape, posts one snapshot task to the processor and
// converts the result. Every metric kind maps to its own family names so one
// identity can be registered under several kinds:
//
//	unsigned counter   <name>_total                      counter
//	gauge              <name>{source="gauge_<type>"}     gauge
//	signed counter     <name>{source="counter_int64"}    gauge
//	meter              <name>_marks_total                counter
//	                   <name>_rate{window="mean|m1|m5|m15"}  gauge
//	timer              <name>_seconds{accumulator="..."} summary
//
// Metric names and tag keys are sanitized to the Prometheus charset, tag
// values are repaired to valid UTF-8, and tag keys that are reserved ("__"
// prefix) or clash with the labels above are prefixed with "tag_".
//
// A series whose family was already emitted with another type, or whose
// labels repeat an earlier series, is dropped and logged so the rest of the
// scrape still succeeds.
package export
