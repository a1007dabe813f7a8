package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/slickwilli/shelly-collector/models"
	"go.uber.org/zap"
)

const DeviceTag = "device"

type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Sink writes points one at a time through the blocking write API, so
// every Write returns only once the server has accepted or rejected it.
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	logger   *zap.Logger
}

func Open(logger *zap.Logger, conf Config) *Sink {
	client := influxdb2.NewClientWithOptions(
		conf.URL,
		conf.Token,
		influxdb2.DefaultOptions().SetPrecision(time.Second),
	)
	return &Sink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(conf.Org, conf.Bucket),
		bucket:   conf.Bucket,
		logger:   logger.Named("influx"),
	}
}

func (s *Sink) Write(ctx context.Context, p models.Point) error {
	point := write.NewPoint(
		p.Measurement,
		map[string]string{DeviceTag: p.Device},
		map[string]interface{}{p.Field: p.Value},
		p.Timestamp,
	)
	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("writing %s to bucket %s: %w", p.Measurement, s.bucket, err)
	}
	s.logger.Debug("wrote point", zap.String("measurement", p.Measurement), zap.Float64(p.Field, p.Value))
	return nil
}

func (s *Sink) Close() error {
	s.client.Close()
	return nil
}
