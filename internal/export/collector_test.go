package export_test

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/go-metrics/internal/export"
	"github.com/angeloszaimis/go-metrics/internal/histogram"
	"github.com/angeloszaimis/go-metrics/internal/identity"
	"github.com/angeloszaimis/go-metrics/internal/meter"
	"github.com/angeloszaimis/go-metrics/internal/processor"
	"github.com/angeloszaimis/go-metrics/internal/timer"
)

type staticSource struct {
	snap  processor.Snapshot
	calls int
}

func (s *staticSource) Snapshot() processor.Snapshot {
	s.calls++
	return s.snap
}

func newCollector(source export.Source, namespace string) *export.Collector {
	return export.NewCollector(source, namespace,
		export.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func gather(c prometheus.Collector) map[string]*dto.MetricFamily {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)

	families, err := reg.Gather()
	Expect(err).NotTo(HaveOccurred())

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}
	return byName
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func bySource(mf *dto.MetricFamily) map[string]float64 {
	values := map[string]float64{}
	for _, m := range mf.GetMetric() {
		values[labelValue(m, "source")] = m.GetGauge().GetValue()
	}
	return values
}

var _ = Describe("Collector", func() {
	var source *staticSource

	BeforeEach(func() {
		source = &staticSource{}
	})

	It("should export nothing for an empty snapshot", func() {
		c := newCollector(source, "app")
		Expect(testutil.CollectAndCount(c)).To(Equal(0))
		Expect(source.calls).To(Equal(1))
	})

	It("should export counters by signedness", func() {
		source.snap.Counters = []processor.CounterSample{
			{ID: identity.MustNew("requests", map[string]string{"code": "200"}), Value: 7},
			{ID: identity.MustNew("in_flight", nil), Value: -2, Signed: true},
		}

		families := gather(newCollector(source, "app"))

		requests := families["app_requests_total"]
		Expect(requests).NotTo(BeNil())
		Expect(requests.GetType()).To(Equal(dto.MetricType_COUNTER))
		Expect(requests.GetMetric()).To(HaveLen(1))
		Expect(requests.GetMetric()[0].GetCounter().GetValue()).To(Equal(7.0))
		Expect(labelValue(requests.GetMetric()[0], "code")).To(Equal("200"))

		inFlight := families["app_in_flight"]
		Expect(inFlight).NotTo(BeNil())
		Expect(inFlight.GetType()).To(Equal(dto.MetricType_GAUGE))
		Expect(bySource(inFlight)).To(Equal(map[string]float64{"counter_int64": -2}))
	})

	It("should export gauges with their value type", func() {
		source.snap.Gauges = []processor.GaugeSample{
			{ID: identity.MustNew("queue.depth", nil), Kind: "uint64", Value: 12},
		}

		families := gather(newCollector(source, ""))

		Expect(families).To(HaveKey("queue_depth"))
		Expect(bySource(families["queue_depth"])).To(Equal(map[string]float64{"gauge_uint64": 12}))
	})

	It("should export meters as a total and per-window rates", func() {
		source.snap.Meters = []processor.MeterSample{{
			ID: identity.MustNew("events", nil),
			Meter: meter.Snapshot{
				Count:    30,
				MeanRate: 3,
				Rate1:    1,
				Rate5:    0.5,
				Rate15:   0.25,
			},
		}}

		families := gather(newCollector(source, "app"))

		Expect(families["app_events_marks_total"].GetMetric()[0].GetCounter().GetValue()).To(Equal(30.0))

		rates := map[string]float64{}
		for _, m := range families["app_events_rate"].GetMetric() {
			rates[labelValue(m, "window")] = m.GetGauge().GetValue()
		}
		Expect(rates).To(Equal(map[string]float64{"mean": 3, "m1": 1, "m5": 0.5, "m15": 0.25}))
	})

	It("should export timers as summaries in seconds", func() {
		source.snap.Timers = []processor.TimerSample{{
			ID:          identity.MustNew("latency", map[string]string{"route": "/"}),
			Accumulator: histogram.Name[*histogram.SlidingWindow](),
			Timer: timer.Snapshot{
				Histogram: histogram.Snapshot{
					Count: 4,
					Size:  4,
					Mean:  2e9,
					P50:   1e9,
					P99:   4e9,
				},
			},
		}}

		families := gather(newCollector(source, "app"))

		latency := families["app_latency_seconds"]
		Expect(latency).NotTo(BeNil())
		Expect(latency.GetType()).To(Equal(dto.MetricType_SUMMARY))
		Expect(labelValue(latency.GetMetric()[0], "accumulator")).To(Equal("sliding_window"))

		summary := latency.GetMetric()[0].GetSummary()
		Expect(summary.GetSampleCount()).To(Equal(uint64(4)))
		Expect(summary.GetSampleSum()).To(BeNumerically("~", 8.0, 1e-9))

		quantiles := map[float64]float64{}
		for _, q := range summary.GetQuantile() {
			quantiles[q.GetQuantile()] = q.GetValue()
		}
		Expect(quantiles).To(HaveKeyWithValue(0.5, 1.0))
		Expect(quantiles).To(HaveKeyWithValue(0.99, 4.0))
	})

	It("should sanitize names and tag keys", func() {
		source.snap.Gauges = []processor.GaugeSample{
			{ID: identity.MustNew("9lives-http", map[string]string{"host-name": "a"}), Kind: "float64", Value: 1},
		}

		families := gather(newCollector(source, "app"))

		Expect(families).To(HaveKey("app__9lives_http"))
		Expect(labelValue(families["app__9lives_http"].GetMetric()[0], "host_name")).To(Equal("a"))
	})

	Describe("awkward tags", func() {
		It("should rename a tag that clashes with the window label", func() {
			source.snap.Meters = []processor.MeterSample{
				{ID: identity.MustNew("conns", map[string]string{"window": "x"}), Meter: meter.Snapshot{Rate1: 2}},
			}

			families := gather(newCollector(source, "app"))

			rates := families["app_conns_rate"].GetMetric()
			Expect(rates).To(HaveLen(4))
			for _, m := range rates {
				Expect(labelValue(m, "tag_window")).To(Equal("x"))
				Expect(labelValue(m, "window")).To(BeElementOf("mean", "m1", "m5", "m15"))
			}
		})

		It("should rename reserved tag keys", func() {
			source.snap.Counters = []processor.CounterSample{
				{ID: identity.MustNew("m", map[string]string{"__name__": "x"}), Value: 1},
			}

			families := gather(newCollector(source, "app"))

			Expect(families).To(HaveKey("app_m_total"))
			Expect(labelValue(families["app_m_total"].GetMetric()[0], "tag___name__")).To(Equal("x"))
		})

		It("should repair tag values that are not valid UTF-8", func() {
			source.snap.Counters = []processor.CounterSample{
				{ID: identity.MustNew("m", map[string]string{"k": "a\xffb"}), Value: 1},
			}

			families := gather(newCollector(source, "app"))

			Expect(labelValue(families["app_m_total"].GetMetric()[0], "k")).To(Equal("a\uFFFDb"))
		})
	})

	Describe("one identity under several kinds", func() {
		It("should keep gauges of different value types apart", func() {
			id := identity.MustNew("temp", nil)
			source.snap.Gauges = []processor.GaugeSample{
				{ID: id, Kind: "float64", Value: 2},
				{ID: id, Kind: "uint64", Value: 1},
			}

			families := gather(newCollector(source, "app"))

			Expect(bySource(families["app_temp"])).To(Equal(map[string]float64{
				"gauge_float64": 2,
				"gauge_uint64":  1,
			}))
		})

		It("should keep counters, signed counters and gauges apart", func() {
			id := identity.MustNew("hits", nil)
			source.snap.Counters = []processor.CounterSample{
				{ID: id, Value: -1, Signed: true},
				{ID: id, Value: 1},
			}
			source.snap.Gauges = []processor.GaugeSample{
				{ID: id, Kind: "int64", Value: 5},
			}

			families := gather(newCollector(source, "app"))

			Expect(families["app_hits_total"].GetMetric()[0].GetCounter().GetValue()).To(Equal(1.0))
			Expect(bySource(families["app_hits"])).To(Equal(map[string]float64{
				"counter_int64": -1,
				"gauge_int64":   5,
			}))
		})

		It("should keep timer accumulators apart", func() {
			id := identity.MustNew("latency", nil)
			source.snap.Timers = []processor.TimerSample{
				{ID: id, Accumulator: "sliding_window"},
				{ID: id, Accumulator: "uniform"},
			}

			families := gather(newCollector(source, "app"))

			Expect(families["app_latency_seconds"].GetMetric()).To(HaveLen(2))
		})

		It("should keep a meter apart from a counter with its total name", func() {
			source.snap.Counters = []processor.CounterSample{
				{ID: identity.MustNew("x_total", nil), Value: 3},
			}
			source.snap.Meters = []processor.MeterSample{
				{ID: identity.MustNew("x", nil), Meter: meter.Snapshot{Count: 4}},
			}

			families := gather(newCollector(source, "app"))

			Expect(families["app_x_total_total"].GetMetric()[0].GetCounter().GetValue()).To(Equal(3.0))
			Expect(families["app_x_marks_total"].GetMetric()[0].GetCounter().GetValue()).To(Equal(4.0))
		})

		It("should drop a series whose family another kind already owns", func() {
			source.snap.Counters = []processor.CounterSample{
				{ID: identity.MustNew("x_marks", nil), Value: 3},
			}
			source.snap.Meters = []processor.MeterSample{
				{ID: identity.MustNew("x", nil), Meter: meter.Snapshot{Count: 4}},
			}

			families := gather(newCollector(source, "app"))

			Expect(families["app_x_marks_total"].GetMetric()).To(HaveLen(1))
			Expect(families["app_x_marks_total"].GetMetric()[0].GetCounter().GetValue()).To(Equal(3.0))
			Expect(families).To(HaveKey("app_x_rate"))
		})

		It("should drop a repeated series", func() {
			source.snap.Gauges = []processor.GaugeSample{
				{ID: identity.MustNew("a-b", nil), Kind: "uint64", Value: 1},
				{ID: identity.MustNew("a.b", nil), Kind: "uint64", Value: 2},
			}

			families := gather(newCollector(source, "app"))

			Expect(families["app_a_b"].GetMetric()).To(HaveLen(1))
			Expect(families["app_a_b"].GetMetric()[0].GetGauge().GetValue()).To(Equal(1.0))
		})
	})
})
