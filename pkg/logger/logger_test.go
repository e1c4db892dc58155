package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/go-metrics/pkg/logger"
)

var _ = Describe("Logger", func() {
	ctx := context.Background()

	Describe("New", func() {
		It("should create a stdout logger", func() {
			Expect(logger.New("info", false, "dev")).NotTo(BeNil())
		})
	})

	Describe("ParseLevel", func() {
		DescribeTable("should map level names",
			func(name string, want slog.Level) {
				Expect(logger.ParseLevel(name)).To(Equal(want))
			},
			Entry("debug", "debug", slog.LevelDebug),
			Entry("info", "info", slog.LevelInfo),
			Entry("warn", "WARN", slog.LevelWarn),
			Entry("error", "error", slog.LevelError),
			Entry("invalid", "verbose", slog.LevelInfo),
		)
	})

	Describe("NewWriter", func() {
		var buf *bytes.Buffer

		BeforeEach(func() {
			buf = &bytes.Buffer{}
		})

		It("should respect the level", func() {
			log := logger.NewWriter(buf, "warn", false, "dev")

			Expect(log.Enabled(ctx, slog.LevelInfo)).To(BeFalse())
			Expect(log.Enabled(ctx, slog.LevelWarn)).To(BeTrue())
		})

		It("should write text outside prod", func() {
			log := logger.NewWriter(buf, "info", false, "dev")
			log.Info("Processor started")

			Expect(buf.String()).To(ContainSubstring(`msg="Processor started"`))
			Expect(buf.String()).To(ContainSubstring("environment=dev"))
		})

		It("should write JSON in prod", func() {
			log := logger.NewWriter(buf, "info", false, "prod")
			log.Info("Processor started")

			var record map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
			Expect(record).To(HaveKeyWithValue("msg", "Processor started"))
			Expect(record).To(HaveKeyWithValue("environment", "prod"))
		})

		It("should include the source when asked", func() {
			log := logger.NewWriter(buf, "info", true, "prod")
			log.Info("tick")

			var record map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
			Expect(record).To(HaveKey(slog.SourceKey))
		})
	})

	Describe("Discard", func() {
		It("should accept records", func() {
			log := logger.Discard()
			Expect(func() { log.Error("dropped") }).NotTo(Panic())
		})
	})
})
