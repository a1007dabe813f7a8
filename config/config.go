package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendInfluxDB   = "influxdb"
	BackendClickHouse = "clickhouse"

	DefaultSecretsFile = "../config/secrets.env"
)

var (
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrMissingSetting = errors.New("missing required setting")
)

type CollectorConfig struct {
	InfluxURL   string `split_words:"true"`
	InfluxToken string `split_words:"true"`
	InfluxOrg   string `split_words:"true"`

	StoreBackend string `split_words:"true" default:"influxdb"`

	Device     DeviceConfig
	ClickHouse ClickHouseConfig `split_words:"true"`
}

// DeviceConfig identifies the polled device and where its points land.
type DeviceConfig struct {
	Address             string        `default:"192.168.0.92"`
	Name                string        `default:"hoymiles_shelly"`
	Bucket              string        `default:"pv_data"`
	Timeout             time.Duration `default:"5s"`
	InternalTemperature bool          `split_words:"true"`
}

type ClickHouseConfig struct {
	Addresses []string `default:"172.16.11.107:19000"`
	Database  string   `default:"pv_data"`
	Username  string   `default:"default"`
	Password  string
}

// Load reads the secrets file into the environment, then processes it.
// A missing secrets file is reported through loaded=false rather than an error.
func Load(secretsFile string) (conf CollectorConfig, loaded bool, err error) {
	if err := godotenv.Load(secretsFile); err == nil {
		loaded = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return conf, false, fmt.Errorf("loading secrets file %s: %w", secretsFile, err)
	}
	if err := envconfig.Process("", &conf); err != nil {
		return conf, loaded, err
	}
	return conf, loaded, nil
}

func (c *CollectorConfig) Validate() error {
	switch c.StoreBackend {
	case BackendInfluxDB:
		for _, s := range [][2]string{
			{"INFLUX_URL", c.InfluxURL},
			{"INFLUX_TOKEN", c.InfluxToken},
			{"INFLUX_ORG", c.InfluxOrg},
		} {
			if s[1] == "" {
				return fmt.Errorf("%w: %s", ErrMissingSetting, s[0])
			}
		}
	case BackendClickHouse:
		if len(c.ClickHouse.Addresses) == 0 {
			return fmt.Errorf("%w: CLICK_HOUSE_ADDRESSES", ErrMissingSetting)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.StoreBackend)
	}
	if c.Device.Address == "" {
		return fmt.Errorf("%w: DEVICE_ADDRESS", ErrMissingSetting)
	}
	if c.Device.Bucket == "" {
		return fmt.Errorf("%w: DEVICE_BUCKET", ErrMissingSetting)
	}
	return nil
}
