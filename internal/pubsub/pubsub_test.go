package pubsub

import "testing"

func TestChannelNaming(t *testing.T) {
	if got := TradesChannel("AAPL"); got != "trades:AAPL" {
		t.Errorf("TradesChannel = %q, want trades:AAPL", got)
	}
	if got := QuotesChannel("AAPL"); got != "quotes:AAPL" {
		t.Errorf("QuotesChannel = %q, want quotes:AAPL", got)
	}
	if got := AlertsChannel("AAPL"); got != "alerts:AAPL" {
		t.Errorf("AlertsChannel = %q, want alerts:AAPL", got)
	}
	if AlertsAllChannel != "alerts:all" {
		t.Errorf("AlertsAllChannel = %q, want alerts:all", AlertsAllChannel)
	}
}
