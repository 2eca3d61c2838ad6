package store

import (
	"context"
	"errors"

	"github.com/voxlead/voxlead/bridge"
)

// Tee fans one Append out to several sinks. Every sink is attempted even
// when an earlier one fails; the errors are joined.
func Tee(sinks ...bridge.Sink) bridge.Sink {
	return teeSink(sinks)
}

type teeSink []bridge.Sink

func (t teeSink) Append(ctx context.Context, res bridge.CallResult) error {
	var errs []error
	for _, s := range t {
		if err := s.Append(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
