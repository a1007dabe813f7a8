package main

import (
	"context"
	"fmt"
	"time"

	"github.com/slickwilli/shelly-collector/config"
	"github.com/slickwilli/shelly-collector/models"
	"github.com/slickwilli/shelly-collector/pkg/clients/shelly"
	"github.com/slickwilli/shelly-collector/pkg/measurements"
	"go.uber.org/zap"
)

type Sink interface {
	Write(ctx context.Context, p models.Point) error
	Close() error
}

// SinkOpener returns a storage handle scoped to one write pass.
type SinkOpener func(ctx context.Context) (Sink, error)

type Collector struct {
	client   *shelly.Client
	openSink SinkOpener
	device   config.DeviceConfig
	metrics  []measurements.Metric
	now      func() time.Time
	logger   *zap.Logger
}

func NewCollector(logger *zap.Logger, device config.DeviceConfig, openSink SinkOpener) *Collector {
	return &Collector{
		client:   shelly.NewClient(device.Address, device.Timeout, nil),
		openSink: openSink,
		device:   device,
		metrics:  measurements.Default(device.InternalTemperature),
		now:      time.Now,
		logger:   logger.Named("collector"),
	}
}

// Run performs one fetch-and-write cycle. A failed fetch is logged and
// ends the cycle without writing; a failed write aborts the remaining
// writes and is returned.
func (c *Collector) Run(ctx context.Context) error {
	res := c.client.GetStatus(ctx)
	if !res.OK() {
		c.logger.Error(
			"error fetching device status",
			zap.String("address", res.Err.Address),
			zap.Stringer("kind", res.Err.Kind),
			zap.Error(res.Err),
		)
		return nil
	}
	return c.write(ctx, res.Status)
}

func (c *Collector) write(ctx context.Context, status shelly.DeviceStatus) (err error) {
	sink, err := c.openSink(ctx)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing store: %w", cerr)
		}
	}()

	derived := measurements.Derive(status, c.metrics)
	for _, d := range measurements.Present(derived) {
		// each point is stamped at its own write
		if err := sink.Write(ctx, d.Point(c.device.Name, c.now())); err != nil {
			return err
		}
		if d.Metric.Measurement == measurements.ExternalTemperature.Measurement {
			c.logger.Info("external sensor temperature", zap.Float64("temp_c", d.Value))
		}
	}
	c.logger.Info("wrote data", append([]zap.Field{zap.String("device", c.device.Name)}, measurements.Summary(derived)...)...)
	return nil
}
