package metrics

import "testing"

func TestIncCounterAccumulatesPerLabelSet(t *testing.T) {
	r := NewRegistry()
	r.IncCounter("alerts_total", map[string]string{"symbol": "AAPL"}, 1)
	r.IncCounter("alerts_total", map[string]string{"symbol": "AAPL"}, 2)
	r.IncCounter("alerts_total", map[string]string{"symbol": "MSFT"}, 5)

	out := r.Render()
	if !contains(out, `alerts_total{symbol="AAPL"} 3`) {
		t.Errorf("expected accumulated AAPL counter, got:\n%s", out)
	}
	if !contains(out, `alerts_total{symbol="MSFT"} 5`) {
		t.Errorf("expected MSFT counter, got:\n%s", out)
	}
}

func TestSetGaugeOverwrites(t *testing.T) {
	r := NewRegistry()
	r.SetGauge("pending_messages", nil, 10)
	r.SetGauge("pending_messages", nil, 3)

	out := r.Render()
	if !contains(out, "pending_messages 3") {
		t.Errorf("expected gauge overwritten to 3, got:\n%s", out)
	}
}

func TestRenderIncludesTypeAndHelp(t *testing.T) {
	r := NewRegistry()
	r.Describe("send_errors_total", "total failed publish attempts")
	r.IncCounter("send_errors_total", nil, 1)

	out := r.Render()
	if !contains(out, "# HELP send_errors_total total failed publish attempts") {
		t.Errorf("missing HELP line:\n%s", out)
	}
	if !contains(out, "# TYPE send_errors_total counter") {
		t.Errorf("missing TYPE line:\n%s", out)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
