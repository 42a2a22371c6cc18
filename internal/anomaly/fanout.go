package anomaly

import (
	"context"
	"log"

	"finstream/internal/model"
)

// FanoutSink durably logs an alert and then mirrors it onto the live
// pub/sub fabric, the same publish-to-two-channels contract the price
// engine follows for trades and quotes.
type FanoutSink struct {
	Durable Sink
	Live    Sink
}

func (f *FanoutSink) PublishAlert(ctx context.Context, alert model.Alert) error {
	if err := f.Durable.PublishAlert(ctx, alert); err != nil {
		return err
	}
	if err := f.Live.PublishAlert(ctx, alert); err != nil {
		log.Printf("[anomaly] live fanout alert %s: %v", alert.Symbol, err)
	}
	return nil
}
