package main

import (
	"context"
	"log"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/slickwilli/shelly-collector/config"
	"github.com/slickwilli/shelly-collector/pkg/sinks/clickhouse"
	"github.com/slickwilli/shelly-collector/pkg/sinks/influx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	logConf := zap.NewProductionConfig()
	logConf.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	logConf.DisableCaller = true
	logger, err := logConf.Build()
	if err != nil {
		log.Fatal("error building zap logger", err)
	}
	defer logger.Sync()

	secretsFile := os.Getenv("SECRETS_FILE")
	if secretsFile == "" {
		secretsFile = config.DefaultSecretsFile
	}
	conf, loaded, err := config.Load(secretsFile)
	if err != nil {
		logger.Fatal("unable to build configuration", zap.Error(err))
	}
	if !loaded {
		logger.Warn("secrets file not found, using environment only", zap.String("path", secretsFile))
	}
	if err := conf.Validate(); err != nil {
		envconfig.Usage("", &conf)
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	openSink, err := sinkOpener(logger, &conf)
	if err != nil {
		logger.Fatal("unable to build store", zap.Error(err))
	}

	collector := NewCollector(logger, conf.Device, openSink)
	if err := collector.Run(context.Background()); err != nil {
		logger.Fatal("error writing measurements", zap.Error(err))
	}
}

func sinkOpener(logger *zap.Logger, conf *config.CollectorConfig) (SinkOpener, error) {
	switch conf.StoreBackend {
	case config.BackendInfluxDB:
		logger.Info(
			"using influxdb store",
			zap.String("url", conf.InfluxURL),
			zap.String("org", conf.InfluxOrg),
			zap.String("bucket", conf.Device.Bucket),
			zap.Bool("token_set", conf.InfluxToken != ""),
		)
		return func(context.Context) (Sink, error) {
			return influx.Open(logger, influx.Config{
				URL:    conf.InfluxURL,
				Token:  conf.InfluxToken,
				Org:    conf.InfluxOrg,
				Bucket: conf.Device.Bucket,
			}), nil
		}, nil
	case config.BackendClickHouse:
		logger.Info(
			"using clickhouse store",
			zap.Strings("addresses", conf.ClickHouse.Addresses),
			zap.String("database", conf.ClickHouse.Database),
			zap.String("bucket", conf.Device.Bucket),
		)
		return func(ctx context.Context) (Sink, error) {
			sink, err := clickhouse.Open(ctx, logger, clickhouse.Config{
				Addresses: conf.ClickHouse.Addresses,
				Database:  conf.ClickHouse.Database,
				Username:  conf.ClickHouse.Username,
				Password:  conf.ClickHouse.Password,
				Bucket:    conf.Device.Bucket,
			})
			if err != nil {
				return nil, err
			}
			return sink, nil
		}, nil
	default:
		return nil, config.ErrUnknownBackend
	}
}
