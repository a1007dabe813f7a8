package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/slickwilli/shelly-collector/models"
	"go.uber.org/zap"
)

const Table = "shelly_readings"

type Config struct {
	Addresses []string
	Database  string
	Username  string
	Password  string
	Bucket    string
}

// Sink stores each point as one row of shelly_readings; the bucket becomes
// a column so several datasets can share the table.
type Sink struct {
	conn   clickhouse.Conn
	bucket string
	logger *zap.Logger
}

func Open(ctx context.Context, logger *zap.Logger, conf Config) (*Sink, error) {
	logger = logger.Named("clickhouse")
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: conf.Addresses,
		Auth: clickhouse.Auth{
			Database: conf.Database,
			Username: conf.Username,
			Password: conf.Password,
		},
	})
	if err != nil {
		return nil, err
	}
	v, err := conn.ServerVersion()
	if err != nil {
		conn.Close()
		return nil, err
	}
	logger.Info("connected to clickhouse server", zap.String("version", v.Version.String()), zap.Uint64("revision", v.Revision))
	if err := conn.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	Bucket String,
	Measurement String,
	Device String,
	Field String,
	Value Float64,
	Timestamp DateTime
)
ENGINE = MergeTree
PRIMARY KEY (Bucket, Device, Measurement, Timestamp)
`, Table)); err != nil {
		conn.Close()
		return nil, err
	}
	return &Sink{
		conn:   conn,
		bucket: conf.Bucket,
		logger: logger,
	}, nil
}

func (s *Sink) Write(ctx context.Context, p models.Point) error {
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+Table)
	if err != nil {
		return fmt.Errorf("preparing clickhouse insert for %s: %w", p.Measurement, err)
	}
	reading := models.NewReading(s.bucket, p)
	if err := batch.AppendStruct(&reading); err != nil {
		return fmt.Errorf("appending %s to clickhouse batch: %w", p.Measurement, err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("sending %s to clickhouse: %w", p.Measurement, err)
	}
	s.logger.Debug("wrote point", zap.String("measurement", p.Measurement), zap.Float64(p.Field, p.Value))
	return nil
}

func (s *Sink) Close() error {
	return s.conn.Close()
}
