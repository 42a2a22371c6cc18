package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func validSymbolConfig(symbol string) SymbolConfig {
	return SymbolConfig{
		Symbol:       symbol,
		InitialPrice: decimal.NewFromFloat(100),
		TickSize:     decimal.NewFromFloat(0.01),
	}
}

func TestSymbolConfigValidateAccepts(t *testing.T) {
	if err := validSymbolConfig("AAPL").Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestSymbolConfigValidateRejectsTooLong(t *testing.T) {
	if err := validSymbolConfig("BINANCE-BTCUSDT").Validate(); err == nil {
		t.Error("expected error for symbol longer than 10 characters")
	}
}

func TestSymbolConfigValidateRejectsEmpty(t *testing.T) {
	if err := validSymbolConfig("").Validate(); err == nil {
		t.Error("expected error for empty symbol")
	}
}

func TestSymbolConfigValidateRejectsLowercase(t *testing.T) {
	if err := validSymbolConfig("aapl").Validate(); err == nil {
		t.Error("expected error for lowercase symbol")
	}
}
