// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration knobs for the HTTP server, the simulated
// collaborators, and the optional transition journal.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// EffectTimeout bounds every outstanding effect; on expiry the
	// runner synthesizes the matching failure event.
	EffectTimeout time.Duration

	// Simulated collaborator latencies.
	AuthLatency     time.Duration
	DispenseLatency time.Duration
	RefundLatency   time.Duration

	// DeclineRate is the percentage of card authorizations the simulated
	// gateway declines (0..100).
	DeclineRate int

	QueueHighWatermark int

	// KafkaBrokers enables the transition journal when non-empty.
	KafkaBrokers []string
	KafkaTopic   string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

func listenv(key string) []string {
	v := getenv(key, "")
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load collects configuration from environment with defaults.
func Load() Config {
	decline := atoienv("DECLINE_RATE", 10)
	if decline < 0 {
		decline = 0
	}
	if decline > 100 {
		decline = 100
	}
	return Config{
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:    durenvs("SHUTDOWN_TIMEOUT", 15),
		EffectTimeout:      durenvs("EFFECT_TIMEOUT", 10),
		AuthLatency:        durenvms("AUTH_LATENCY_MS", 1000),
		DispenseLatency:    durenvms("DISPENSE_LATENCY_MS", 500),
		RefundLatency:      durenvms("REFUND_LATENCY_MS", 500),
		DeclineRate:        decline,
		QueueHighWatermark: atoienv("QUEUE_HIGH_WATERMARK", 5000),
		KafkaBrokers:       listenv("KAFKA_BROKERS"),
		KafkaTopic:         getenv("KAFKA_TOPIC", "vending.transitions"),
	}
}
