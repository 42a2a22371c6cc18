package eventlog

import "testing"

func TestStreamKeyNaming(t *testing.T) {
	cases := map[Topic]string{
		TopicTrades: "stream:trades",
		TopicQuotes: "stream:quotes",
		TopicAlerts: "stream:alerts",
		TopicDLQ:    "stream:dlq",
	}
	for topic, want := range cases {
		if got := streamKey(topic); got != want {
			t.Errorf("streamKey(%s) = %q, want %q", topic, got, want)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.setDefaults()

	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries default = %d, want 5", cfg.MaxRetries)
	}
	if cfg.ConsumerGroup != "finstream" {
		t.Errorf("ConsumerGroup default = %q, want finstream", cfg.ConsumerGroup)
	}
	if cfg.AutoOffsetReset != "latest" {
		t.Errorf("AutoOffsetReset default = %q, want latest", cfg.AutoOffsetReset)
	}
	if cfg.BatchSize != 100 {
		t.Errorf("BatchSize default = %d, want 100", cfg.BatchSize)
	}
}

func TestIsBusyGroupErr(t *testing.T) {
	if !isBusyGroupErr(busyGroupErr{}) {
		t.Error("expected BUSYGROUP error to be recognized")
	}
	if isBusyGroupErr(plainErr{}) {
		t.Error("did not expect plain error to be recognized as BUSYGROUP")
	}
}

type busyGroupErr struct{}

func (busyGroupErr) Error() string { return "BUSYGROUP Consumer Group name already exists" }

type plainErr struct{}

func (plainErr) Error() string { return "connection refused" }
