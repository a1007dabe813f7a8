package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load(t *testing.T) {
	t.Setenv("INFLUX_URL", "http://influx:8086")
	t.Setenv("DEVICE_NAME", "garage_shelly")

	secrets := filepath.Join(t.TempDir(), "secrets.env")
	require.NoError(t, os.WriteFile(secrets, []byte("INFLUX_URL=http://ignored:8086\nINFLUX_TOKEN=s3cret\nINFLUX_ORG=home\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("INFLUX_TOKEN")
		os.Unsetenv("INFLUX_ORG")
	})

	conf, loaded, err := Load(secrets)
	require.NoError(t, err)
	assert.True(t, loaded)

	assert.Equal(t, "http://influx:8086", conf.InfluxURL)
	assert.Equal(t, "s3cret", conf.InfluxToken)
	assert.Equal(t, "home", conf.InfluxOrg)
	assert.Equal(t, BackendInfluxDB, conf.StoreBackend)
	assert.Equal(t, DeviceConfig{
		Address: "192.168.0.92",
		Name:    "garage_shelly",
		Bucket:  "pv_data",
		Timeout: 5 * time.Second,
	}, conf.Device)
	assert.Equal(t, []string{"172.16.11.107:19000"}, conf.ClickHouse.Addresses)
	assert.NoError(t, conf.Validate())
}

func Test_LoadMissingSecretsFile(t *testing.T) {
	t.Setenv("DEVICE_INTERNAL_TEMPERATURE", "true")

	conf, loaded, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.True(t, conf.Device.InternalTemperature)
}

func Test_Validate(t *testing.T) {
	valid := func() CollectorConfig {
		return CollectorConfig{
			InfluxURL:    "http://influx:8086",
			InfluxToken:  "token",
			InfluxOrg:    "home",
			StoreBackend: BackendInfluxDB,
			Device:       DeviceConfig{Address: "10.0.0.2", Name: "pv", Bucket: "pv_data"},
		}
	}
	cases := []struct {
		name          string
		mutate        func(*CollectorConfig)
		expectedError error
	}{
		{
			name:   "valid influxdb",
			mutate: func(*CollectorConfig) {},
		},
		{
			name: "missing token",
			mutate: func(c *CollectorConfig) {
				c.InfluxToken = ""
			},
			expectedError: ErrMissingSetting,
		},
		{
			name: "clickhouse does not need influx settings",
			mutate: func(c *CollectorConfig) {
				c.StoreBackend = BackendClickHouse
				c.InfluxURL = ""
				c.ClickHouse.Addresses = []string{"localhost:9000"}
			},
		},
		{
			name: "clickhouse without addresses",
			mutate: func(c *CollectorConfig) {
				c.StoreBackend = BackendClickHouse
			},
			expectedError: ErrMissingSetting,
		},
		{
			name: "unknown backend",
			mutate: func(c *CollectorConfig) {
				c.StoreBackend = "sqlite"
			},
			expectedError: ErrUnknownBackend,
		},
		{
			name: "missing bucket",
			mutate: func(c *CollectorConfig) {
				c.Device.Bucket = ""
			},
			expectedError: ErrMissingSetting,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conf := valid()
			tc.mutate(&conf)
			err := conf.Validate()
			if tc.expectedError == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.expectedError)
		})
	}
}
