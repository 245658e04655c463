package kafka_config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != DefaultKafkaBrokers {
		t.Errorf("Brokers = %v, want [%s]", cfg.Brokers, DefaultKafkaBrokers)
	}
	if cfg.ProducerCompression != DefaultProducerCompression {
		t.Errorf("ProducerCompression = %s, want %s", cfg.ProducerCompression, DefaultProducerCompression)
	}
}

func TestLoad_SplitsBrokers(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " kafka-1:9092, ,kafka-2:9092 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[0] != "kafka-1:9092" || cfg.Brokers[1] != "kafka-2:9092" {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Brokers:              []string{"localhost:9092"},
			ProducerMaxAttempts:  3,
			ProducerBatchTimeout: DefaultProducerBatchTimeout,
			ProducerRequireAcks:  -1,
			ProducerCompression:  "snappy",
			ProducerWriteTimeout: DefaultProducerWriteTimeout,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no brokers", mutate: func(c *Config) { c.Brokers = nil }, wantErr: "At least one Kafka broker"},
		{name: "bad compression", mutate: func(c *Config) { c.ProducerCompression = "brotli" }, wantErr: "ProducerCompression"},
		{name: "bad acks", mutate: func(c *Config) { c.ProducerRequireAcks = 2 }, wantErr: "ProducerRequireAcks"},
		{name: "zero attempts", mutate: func(c *Config) { c.ProducerMaxAttempts = 0 }, wantErr: "ProducerMaxAttempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
