package anomaly

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finstream/internal/model"
)

type fakeSink struct {
	mu     sync.Mutex
	alerts []model.Alert
}

func (f *fakeSink) PublishAlert(_ context.Context, alert model.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeSink) all() []model.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Alert, len(f.alerts))
	copy(out, f.alerts)
	return out
}

func flatTrade(symbol string, price float64, ts time.Time) model.Trade {
	return model.Trade{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(price),
		Quantity:  100,
		Side:      model.SideBuy,
		Exchange:  "SIM",
		Timestamp: ts,
	}
}

// Scenario 3: price spike.
func TestPriceSpikeCritical(t *testing.T) {
	sink := &fakeSink{}
	d := New(sink, Config{})
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	for i := 0; i < 150; i++ {
		d.OnTrade(ctx, flatTrade("X", 100.00, base.Add(time.Duration(i)*time.Second)))
	}
	if len(sink.all()) != 0 {
		t.Fatalf("expected no alerts from flat prices, got %d", len(sink.all()))
	}

	d.OnTrade(ctx, flatTrade("X", 140.00, base.Add(151*time.Second)))

	alerts := sink.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	a := alerts[0]
	if a.AlertType != model.AlertPriceSpike {
		t.Errorf("alert type = %s, want PRICE_SPIKE", a.AlertType)
	}
	if a.Severity != model.SeverityCritical {
		t.Errorf("severity = %s, want CRITICAL", a.Severity)
	}
	z, ok := a.Details["z_score"].(float64)
	if !ok || z == 0 {
		t.Errorf("expected non-zero z_score in details, got %v", a.Details["z_score"])
	}
}

// Scenario 4: cooldown.
func TestCooldownSuppressesSecondSpike(t *testing.T) {
	sink := &fakeSink{}
	d := New(sink, Config{})
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	for i := 0; i < 150; i++ {
		d.OnTrade(ctx, flatTrade("Y", 50.00, base.Add(time.Duration(i)*time.Second)))
	}

	spikeTime1 := base.Add(151 * time.Second)
	d.OnTrade(ctx, flatTrade("Y", 70.00, spikeTime1))

	spikeTime2 := spikeTime1.Add(10 * time.Second)
	d.OnTrade(ctx, flatTrade("Y", 71.00, spikeTime2))

	alerts := sink.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts within cooldown window, want 1", len(alerts))
	}
}

func TestVolumeAnomalyOnlyWhenNoSpike(t *testing.T) {
	sink := &fakeSink{}
	d := New(sink, Config{})
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	for i := 0; i < 150; i++ {
		trade := model.Trade{
			Symbol:    "Z",
			Price:     decimal.NewFromFloat(100.00),
			Quantity:  100,
			Side:      model.SideBuy,
			Exchange:  "SIM",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		d.OnTrade(ctx, trade)
	}

	spike := model.Trade{
		Symbol:    "Z",
		Price:     decimal.NewFromFloat(100.00),
		Quantity:  10000,
		Side:      model.SideBuy,
		Exchange:  "SIM",
		Timestamp: base.Add(151 * time.Second),
	}
	d.OnTrade(ctx, spike)

	alerts := sink.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].AlertType != model.AlertVolumeAnomaly {
		t.Errorf("alert type = %s, want VOLUME_ANOMALY", alerts[0].AlertType)
	}
}

func TestSpreadAnomaly(t *testing.T) {
	sink := &fakeSink{}
	d := New(sink, Config{})
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	for i := 0; i < 150; i++ {
		q := model.Quote{
			Symbol:    "W",
			BidPrice:  decimal.NewFromFloat(99.99),
			AskPrice:  decimal.NewFromFloat(100.01),
			Exchange:  "SIM",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		d.OnQuote(ctx, q)
	}

	wide := model.Quote{
		Symbol:    "W",
		BidPrice:  decimal.NewFromFloat(95.00),
		AskPrice:  decimal.NewFromFloat(105.00),
		Exchange:  "SIM",
		Timestamp: base.Add(151 * time.Second),
	}
	d.OnQuote(ctx, wide)

	alerts := sink.all()
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].AlertType != model.AlertSpreadAnomaly {
		t.Errorf("alert type = %s, want SPREAD_ANOMALY", alerts[0].AlertType)
	}
}
