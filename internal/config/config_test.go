package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"HTTP_ADDR", "SHUTDOWN_TIMEOUT", "EFFECT_TIMEOUT",
		"AUTH_LATENCY_MS", "DISPENSE_LATENCY_MS", "REFUND_LATENCY_MS",
		"DECLINE_RATE", "QUEUE_HIGH_WATERMARK", "KAFKA_BROKERS", "KAFKA_TOPIC",
	} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr default")
	}
	if c.ShutdownTimeout != 15*time.Second {
		t.Fatalf("ShutdownTimeout default")
	}
	if c.EffectTimeout != 10*time.Second {
		t.Fatalf("EffectTimeout default")
	}
	if c.AuthLatency != time.Second {
		t.Fatalf("AuthLatency default")
	}
	if c.DeclineRate != 10 {
		t.Fatalf("DeclineRate default")
	}
	if c.KafkaBrokers != nil {
		t.Fatalf("KafkaBrokers should be empty by default")
	}
	if c.KafkaTopic != "vending.transitions" {
		t.Fatalf("KafkaTopic default")
	}
}

func TestLoadOverridesAndClamps(t *testing.T) {
	t.Setenv("DECLINE_RATE", "250")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("AUTH_LATENCY_MS", "notanumber")
	c := Load()
	if c.DeclineRate != 100 {
		t.Fatalf("DeclineRate=%d, want clamped 100", c.DeclineRate)
	}
	if len(c.KafkaBrokers) != 2 || c.KafkaBrokers[0] != "k1:9092" || c.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("KafkaBrokers=%v", c.KafkaBrokers)
	}
	if c.AuthLatency != time.Second {
		t.Fatalf("bad numeric should fall back to default")
	}
}
