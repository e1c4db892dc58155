package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/go-metrics/config"
	"github.com/angeloszaimis/go-metrics/internal/histogram"
)

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		wd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.Chdir, wd)

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, tempDir)

		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	writeConfig := func(content string) {
		err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())
	}

	setenv := func(key, value string) {
		Expect(os.Setenv(key, value)).To(Succeed())
		DeferCleanup(os.Unsetenv, key)
	}

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				writeConfig(`
environment: "staging"

logging:
  level: "debug"

histogram:
  window_size: 256
  reservoir_size: 512

export:
  namespace: "svc"

demo:
  workers: 2
  duration: "10s"
  report_interval: "1s"
`)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
				Expect(cfg.Environment).To(Equal(config.EnvStaging))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelDebug))
			})

			It("should parse histogram sizes", func() {
				cfg, _ := config.Load()
				Expect(cfg.Histogram.WindowSize).To(Equal(256))
				Expect(cfg.Histogram.ReservoirSize).To(Equal(512))
			})

			It("should parse demo settings", func() {
				cfg, _ := config.Load()
				Expect(cfg.Export.Namespace).To(Equal("svc"))
				Expect(cfg.Demo.Workers).To(Equal(2))
				Expect(cfg.Demo.RunFor()).To(Equal(10 * time.Second))
				Expect(cfg.Demo.ReportEvery()).To(Equal(time.Second))
			})
		})

		Context("without a config file", func() {
			It("should use defaults", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).To(Equal(config.Default()))
				Expect(cfg.Histogram.WindowSize).To(Equal(histogram.DefaultWindowSize))
				Expect(cfg.Histogram.ReservoirSize).To(Equal(histogram.DefaultReservoirSize))
			})
		})

		Context("with environment variables", func() {
			It("should override defaults", func() {
				setenv("DEMO_WORKERS", "8")
				setenv("LOGGING_LEVEL", "warn")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Demo.Workers).To(Equal(8))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelWarn))
			})

			It("should override the config file", func() {
				writeConfig("histogram:\n  window_size: 16\n")
				setenv("HISTOGRAM_WINDOW_SIZE", "32")

				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Histogram.WindowSize).To(Equal(32))
			})
		})

		Context("with invalid values", func() {
			It("should reject an unknown environment", func() {
				writeConfig("environment: \"qa\"\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject a malformed file", func() {
				writeConfig("demo: [\n")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = config.Default()
		})

		It("should accept the defaults", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should accept an empty namespace", func() {
			cfg.Export.Namespace = ""
			Expect(cfg.Validate()).To(Succeed())
		})

		DescribeTable("should reject",
			func(mutate func(*config.Config)) {
				mutate(cfg)
				Expect(cfg.Validate()).NotTo(Succeed())
			},
			Entry("an unknown log level", func(c *config.Config) { c.Logging.Level = "trace" }),
			Entry("a zero window size", func(c *config.Config) { c.Histogram.WindowSize = 0 }),
			Entry("a negative reservoir size", func(c *config.Config) { c.Histogram.ReservoirSize = -1 }),
			Entry("an invalid namespace", func(c *config.Config) { c.Export.Namespace = "my-app" }),
			Entry("zero workers", func(c *config.Config) { c.Demo.Workers = 0 }),
			Entry("a malformed duration", func(c *config.Config) { c.Demo.Duration = "soon" }),
			Entry("a non-positive report interval", func(c *config.Config) { c.Demo.ReportInterval = "0s" }),
		)
	})
})
