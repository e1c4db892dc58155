package export

import (
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/angeloszaimis/go-metrics/internal/identity"
	"github.com/angeloszaimis/go-metrics/internal/processor"
)

// Labels the collector adds itself.
const (
	labelSource      = "source"
	labelWindow      = "window"
	labelAccumulator = "accumulator"
)

// reservedLabels are renamed when they appear as tag keys. "quantile" and
// "le" are reserved by the exposition format.
var reservedLabels = map[string]struct{}{
	labelSource:      {},
	labelWindow:      {},
	labelAccumulator: {},
	"quantile":       {},
	"le":             {},
}

// Source produces processor snapshots.
type Source interface {
	Snapshot() processor.Snapshot
}

// Collector exposes a Source to a Prometheus registry.
type Collector struct {
	source    Source
	namespace string
	logger    *slog.Logger
}

var _ prometheus.Collector = (*Collector)(nil)

type Option func(*Collector)

// WithLogger sets the logger for dropped series.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) { c.logger = logger }
}

func NewCollector(source Source, namespace string, opts ...Option) *Collector {
	c := &Collector{
		source:    source,
		namespace: sanitizeName(namespace),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Describe sends nothing, which makes the collector unchecked.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.source.Snapshot()
	e := &emitter{
		collector: c,
		ch:        ch,
		families:  map[string]family{},
		series:    map[string]struct{}{},
	}

	for _, s := range snap.Counters {
		if s.Signed {
			e.gauge(s.ID, "counter_int64", s.Value)
			continue
		}
		d := c.describe(s.ID, "_total", "Total count of", nil, nil)
		e.emit(d, dto.MetricType_COUNTER, nil, func() (prometheus.Metric, error) {
			return prometheus.NewConstMetric(d.Desc, prometheus.CounterValue, s.Value)
		})
	}

	for _, g := range snap.Gauges {
		e.gauge(g.ID, "gauge_"+g.Kind, g.Value)
	}

	for _, m := range snap.Meters {
		total := c.describe(m.ID, "_marks_total", "Events marked on", nil, nil)
		e.emit(total, dto.MetricType_COUNTER, nil, func() (prometheus.Metric, error) {
			return prometheus.NewConstMetric(total.Desc, prometheus.CounterValue, float64(m.Meter.Count))
		})

		rate := c.describe(m.ID, "_rate", "Events per second on", []string{labelWindow}, nil)
		for _, w := range []struct {
			window string
			value  float64
		}{
			{"mean", m.Meter.MeanRate},
			{"m1", m.Meter.Rate1},
			{"m5", m.Meter.Rate5},
			{"m15", m.Meter.Rate15},
		} {
			e.emit(rate, dto.MetricType_GAUGE, []string{w.window}, func() (prometheus.Metric, error) {
				return prometheus.NewConstMetric(rate.Desc, prometheus.GaugeValue, w.value, w.window)
			})
		}
	}

	for _, t := range snap.Timers {
		h := t.Timer.Histogram
		quantiles := map[float64]float64{
			0.5:   seconds(h.P50),
			0.75:  seconds(h.P75),
			0.95:  seconds(h.P95),
			0.98:  seconds(h.P98),
			0.99:  seconds(h.P99),
			0.999: seconds(h.P999),
		}
		d := c.describe(t.ID, "_seconds", "Duration of", nil,
			prometheus.Labels{labelAccumulator: t.Accumulator})
		e.emit(d, dto.MetricType_SUMMARY, nil, func() (prometheus.Metric, error) {
			return prometheus.NewConstSummary(d.Desc, h.Count, seconds(h.Mean)*float64(h.Count), quantiles)
		})
	}
}

// emitter sends one scrape's metrics and drops series that would make the
// whole gather fail.
type emitter struct {
	collector *Collector
	ch        chan<- prometheus.Metric
	families  map[string]family
	series    map[string]struct{}
}

type family struct {
	typ  dto.MetricType
	help string
}

func (e *emitter) gauge(id identity.Identity, source string, value float64) {
	d := e.collector.describe(id, "", "Current value of", nil,
		prometheus.Labels{labelSource: source})
	e.emit(d, dto.MetricType_GAUGE, nil, func() (prometheus.Metric, error) {
		return prometheus.NewConstMetric(d.Desc, prometheus.GaugeValue, value)
	})
}

func (e *emitter) emit(d *seriesDesc, typ dto.MetricType, variableValues []string, build func() (prometheus.Metric, error)) {
	f := family{typ: typ, help: d.help}
	if prev, ok := e.families[d.name]; ok && prev != f {
		e.collector.logger.Warn("Dropping series that conflicts with another metric kind",
			slog.String("name", d.name),
			slog.String("type", typ.String()),
			slog.String("previous", prev.typ.String()))
		return
	}

	key := d.seriesKey(variableValues)
	if _, ok := e.series[key]; ok {
		e.collector.logger.Warn("Dropping duplicate series", slog.String("name", d.name))
		return
	}

	m, err := build()
	if err != nil {
		e.ch <- prometheus.NewInvalidMetric(d.Desc, err)
		return
	}

	e.families[d.name] = f
	e.series[key] = struct{}{}
	e.ch <- m
}

// seriesDesc keeps what a prometheus.Desc does not expose.
type seriesDesc struct {
	*prometheus.Desc
	name   string
	help   string
	labels prometheus.Labels
}

func (d *seriesDesc) seriesKey(variableValues []string) string {
	names := make([]string, 0, len(d.labels))
	for k := range d.labels {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(d.name)
	for _, k := range names {
		b.WriteByte(0xff)
		b.WriteString(k)
		b.WriteByte(0xfe)
		b.WriteString(d.labels[k])
	}
	for _, v := range variableValues {
		b.WriteByte(0xff)
		b.WriteString(v)
	}
	return b.String()
}

// describe builds the descriptor of one series. Help is derived from the
// family name so every series of a family agrees on it.
func (c *Collector) describe(id identity.Identity, suffix, help string, variableLabels []string, extra prometheus.Labels) *seriesDesc {
	labels := make(prometheus.Labels, len(extra)+len(id.SortedTags()))
	for _, t := range id.SortedTags() {
		labels[tagLabel(t.Key)] = strings.ToValidUTF8(t.Value, string(utf8.RuneError))
	}
	for k, v := range extra {
		labels[k] = v
	}

	name := prometheus.BuildFQName(c.namespace, "", sanitizeName(id.Name())+suffix)
	return &seriesDesc{
		Desc:   prometheus.NewDesc(name, help+" "+name, variableLabels, labels),
		help:   help,
		name:   name,
		labels: labels,
	}
}

// tagLabel turns a tag key into a label name that cannot be reserved or clash
// with the labels the collector adds.
func tagLabel(key string) string {
	label := sanitizeLabel(key)
	if _, ok := reservedLabels[label]; ok || strings.HasPrefix(label, "__") {
		return "tag_" + label
	}
	return label
}

func seconds(nanos float64) float64 {
	return nanos / float64(time.Second)
}

func sanitizeName(name string) string {
	return sanitize(name, true)
}

func sanitizeLabel(name string) string {
	return sanitize(name, false)
}

// sanitize maps every rune outside [a-zA-Z0-9_] (plus ':' for metric names)
// to '_' and prefixes a leading digit.
func sanitize(name string, allowColon bool) string {
	if name == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		case r == ':' && allowColon:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
