package priceengine

import (
	"context"
	"log"

	"finstream/internal/model"
)

// FanoutPublisher publishes every event to the durable broker first, then
// mirrors it onto the live pub/sub fabric, matching §4.5's "publishers push
// ... to two channels" contract: the broker log is the durability path, the
// pub/sub channel is the Live Broadcast Hub's ingress.
type FanoutPublisher struct {
	Durable Publisher
	Live    Publisher
}

func (f *FanoutPublisher) PublishTrade(ctx context.Context, trade model.Trade) error {
	if err := f.Durable.PublishTrade(ctx, trade); err != nil {
		return err
	}
	if err := f.Live.PublishTrade(ctx, trade); err != nil {
		log.Printf("[priceengine] live fanout trade %s: %v", trade.Symbol, err)
	}
	return nil
}

func (f *FanoutPublisher) PublishQuote(ctx context.Context, quote model.Quote) error {
	if err := f.Durable.PublishQuote(ctx, quote); err != nil {
		return err
	}
	if err := f.Live.PublishQuote(ctx, quote); err != nil {
		log.Printf("[priceengine] live fanout quote %s: %v", quote.Symbol, err)
	}
	return nil
}
