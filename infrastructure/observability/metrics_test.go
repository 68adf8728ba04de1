package observability

import (
	"context"
	"testing"

	"bingohub/config"
	"bingohub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]metricdata.Sum[int64])
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				sums[m.Name] = sum
			}
		}
	}
	return sums
}

func total(sum metricdata.Sum[int64]) int64 {
	var n int64
	for _, dp := range sum.DataPoints {
		n += dp.Value
	}
	return n
}

func valueWith(sum metricdata.Sum[int64], key, value string) int64 {
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value
		}
	}
	return 0
}

func TestMetricsProvider_Records(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProviderWithReader(config.NewTestConfig(), reader)
	require.NoError(t, mp.Initialize(ctx))
	defer mp.Shutdown(ctx)

	mp.LobbyCreated(ctx, 50)
	mp.LobbyCreated(ctx, 0)
	mp.PlayerJoined(ctx)
	mp.NumberCalled(ctx)
	mp.NumberCalled(ctx)
	mp.NumberCalled(ctx)
	mp.WinClaimed(ctx, 100)
	mp.BalanceTransaction(ctx, models.TransactionTypeStake, 50)
	mp.BalanceTransaction(ctx, models.TransactionTypeStake, 50)
	mp.BalanceTransaction(ctx, models.TransactionTypePotAward, 100)
	mp.TransactionRetried(ctx, "join_lobby")

	sums := collectSums(t, reader)

	assert.Equal(t, int64(2), total(sums[LobbiesCreatedTotal]))
	assert.Equal(t, int64(1), total(sums[PlayersJoinedTotal]))
	assert.Equal(t, int64(3), total(sums[NumbersCalledTotal]))
	assert.Equal(t, int64(1), total(sums[WinsClaimedTotal]))

	transactions := sums[BalanceTransactionsTotal]
	assert.Equal(t, int64(2), valueWith(transactions, LabelType, string(models.TransactionTypeStake)))
	assert.Equal(t, int64(1), valueWith(transactions, LabelType, string(models.TransactionTypePotAward)))

	volume := sums[BalanceVolumeTotal]
	assert.Equal(t, int64(100), valueWith(volume, LabelType, string(models.TransactionTypeStake)))
	assert.Equal(t, int64(100), valueWith(volume, LabelType, string(models.TransactionTypePotAward)))

	assert.Equal(t, int64(1), valueWith(sums[TransactionRetriesTotal], LabelOperation, "join_lobby"))
}

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = false

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(ctx))
	assert.False(t, mp.isEnabled())

	// Instruments were never created; recording must not panic
	mp.LobbyCreated(ctx, 10)
	mp.BalanceTransaction(ctx, models.TransactionTypeDeposit, 10)
	mp.TransactionRetried(ctx, "deposit")
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestMetricsProvider_NoneExporter(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "none"

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(ctx))
	assert.False(t, mp.isEnabled())
	mp.WinClaimed(ctx, 10)
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "carrier-pigeon"

	assert.Error(t, NewMetricsProvider(cfg).Initialize(context.Background()))
}

func TestMetricsProvider_InitializeTwice(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProviderWithReader(config.NewTestConfig(), reader)

	require.NoError(t, mp.Initialize(ctx))
	require.NoError(t, mp.Initialize(ctx))
	defer mp.Shutdown(ctx)

	mp.PlayerJoined(ctx)
	assert.Equal(t, int64(1), total(collectSums(t, reader)[PlayersJoinedTotal]))
}
