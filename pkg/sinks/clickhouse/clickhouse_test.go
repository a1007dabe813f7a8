package clickhouse

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/slickwilli/shelly-collector/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testConfig points at CLICKHOUSE_TEST_ADDR; tests skip when it is unset.
func testConfig(t *testing.T) Config {
	t.Helper()
	addr := os.Getenv("CLICKHOUSE_TEST_ADDR")
	if addr == "" {
		t.Skip("CLICKHOUSE_TEST_ADDR not set, skipping clickhouse integration test")
	}
	return Config{
		Addresses: []string{addr},
		Database:  "default",
		Username:  "default",
		Bucket:    "pv_data_test",
	}
}

func Test_WriteRoundTrip(t *testing.T) {
	conf := testConfig(t)
	ctx := context.Background()

	sink, err := Open(ctx, zap.NewNop(), conf)
	require.NoError(t, err)
	defer sink.Close()

	device := "test_shelly_" + time.Now().Format("150405.000000")
	ts := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, sink.Write(ctx, models.Point{
		Measurement: "pv_power",
		Device:      device,
		Field:       "power_w",
		Value:       150.5,
		Timestamp:   ts,
	}))

	var got []models.Reading
	require.NoError(t, sink.conn.Select(ctx, &got,
		"SELECT Bucket, Measurement, Device, Field, Value, Timestamp FROM "+Table+" WHERE Device = ?", device))
	require.Len(t, got, 1)
	assert.Equal(t, "pv_data_test", got[0].Bucket)
	assert.Equal(t, "power_w", got[0].Field)
	assert.Equal(t, 150.5, got[0].Value)
	assert.True(t, ts.Equal(got[0].Timestamp))
}

func Test_OpenUnreachable(t *testing.T) {
	testConfig(t)
	_, err := Open(context.Background(), zap.NewNop(), Config{Addresses: []string{"127.0.0.1:1"}})
	assert.Error(t, err)
}
