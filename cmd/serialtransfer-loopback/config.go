package main

import (
	"flag"
	"time"
)

type appConfig struct {
	port        string
	baud        int
	mock        bool
	interval    time.Duration
	logFormat   string
	logLevel    string
	metricsAddr string
	maxPayload  int
}

func parseFlags() *appConfig {
	cfg := &appConfig{}
	port := flag.String("port", "/dev/ttyUSB0", "Serial device path")
	baud := flag.Int("baud", 115200, "Serial baud rate")
	mock := flag.Bool("mock", false, "Use an in-memory loopback pair instead of a real port")
	interval := flag.Duration("interval", time.Second, "Round-trip interval")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	maxPayload := flag.Int("max-payload", 254, "MAX_TX/MAX_RX payload size in bytes")
	flag.Parse()

	cfg.port = *port
	cfg.baud = *baud
	cfg.mock = *mock
	cfg.interval = *interval
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.maxPayload = *maxPayload
	return cfg
}
