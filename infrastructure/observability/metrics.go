package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bingohub/config"
	"bingohub/models"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the ledger. It
// implements service.Metrics; every method is a no-op until Initialize
// succeeds with metrics enabled.
type MetricsProvider struct {
	config        *config.Config
	reader        sdkmetric.Reader
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	// Metric instruments
	lobbiesCreatedCounter      metric.Int64Counter
	lobbyStakeHist             metric.Int64Histogram
	playersJoinedCounter       metric.Int64Counter
	numbersCalledCounter       metric.Int64Counter
	winsClaimedCounter         metric.Int64Counter
	winningPotHist             metric.Int64Histogram
	balanceTransactionsCounter metric.Int64Counter
	balanceVolumeCounter       metric.Int64Counter
	transactionRetriesCounter  metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// NewMetricsProviderWithReader creates a provider that reports to reader
// instead of the configured exporter
func NewMetricsProviderWithReader(cfg *config.Config, reader sdkmetric.Reader) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
		reader: reader,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled && mp.reader == nil {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	reader := mp.reader
	if reader == nil {
		var exporter sdkmetric.Exporter
		switch mp.config.OTelExporterType {
		case "console":
			exporter, err = stdoutmetric.New()
			if err != nil {
				return fmt.Errorf("failed to create console exporter: %w", err)
			}
			log.Info("Using console metric exporter")

		case "otlp":
			dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			exporter, err = otlpmetricgrpc.New(dialCtx,
				otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
				otlpmetricgrpc.WithInsecure(),
			)
			if err != nil {
				return fmt.Errorf("failed to create OTLP exporter: %w", err)
			}
			log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

		case "none":
			log.Info("Metrics export disabled (exporter_type='none')")
			mp.initialized = true
			return nil

		default:
			return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
		}

		reader = sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
		)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	if mp.reader == nil {
		otel.SetMeterProvider(mp.meterProvider)
	}

	mp.meter = mp.meterProvider.Meter("bingohub")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.lobbiesCreatedCounter, err = mp.meter.Int64Counter(
		LobbiesCreatedTotal,
		metric.WithDescription("Total number of lobbies created"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create lobbies created counter: %w", err)
	}

	mp.lobbyStakeHist, err = mp.meter.Int64Histogram(
		LobbyStake,
		metric.WithDescription("Stake of created lobbies"),
		metric.WithUnit("{coin}"),
		metric.WithExplicitBucketBoundaries(0, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return fmt.Errorf("failed to create lobby stake histogram: %w", err)
	}

	mp.playersJoinedCounter, err = mp.meter.Int64Counter(
		PlayersJoinedTotal,
		metric.WithDescription("Total number of players that joined an existing lobby"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create players joined counter: %w", err)
	}

	mp.numbersCalledCounter, err = mp.meter.Int64Counter(
		NumbersCalledTotal,
		metric.WithDescription("Total number of numbers called"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create numbers called counter: %w", err)
	}

	mp.winsClaimedCounter, err = mp.meter.Int64Counter(
		WinsClaimedTotal,
		metric.WithDescription("Total number of paid win claims"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create wins claimed counter: %w", err)
	}

	mp.winningPotHist, err = mp.meter.Int64Histogram(
		WinningPot,
		metric.WithDescription("Pot paid to winners"),
		metric.WithUnit("{coin}"),
		metric.WithExplicitBucketBoundaries(0, 50, 100, 500, 1000, 5000, 10000),
	)
	if err != nil {
		return fmt.Errorf("failed to create winning pot histogram: %w", err)
	}

	mp.balanceTransactionsCounter, err = mp.meter.Int64Counter(
		BalanceTransactionsTotal,
		metric.WithDescription("Total number of balance transactions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create balance transactions counter: %w", err)
	}

	mp.balanceVolumeCounter, err = mp.meter.Int64Counter(
		BalanceVolumeTotal,
		metric.WithDescription("Coins moved by balance transactions"),
		metric.WithUnit("{coin}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create balance volume counter: %w", err)
	}

	mp.transactionRetriesCounter, err = mp.meter.Int64Counter(
		TransactionRetriesTotal,
		metric.WithDescription("Transactions retried after a concurrent modification"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction retries counter: %w", err)
	}

	return nil
}

// Shutdown flushes pending measurements and shuts down the provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		mp.enabled = false
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// LobbyCreated records a new lobby and its stake
func (mp *MetricsProvider) LobbyCreated(ctx context.Context, stake int64) {
	if !mp.isEnabled() {
		return
	}
	mp.lobbiesCreatedCounter.Add(ctx, 1)
	mp.lobbyStakeHist.Record(ctx, stake)
}

// PlayerJoined records a participant added to an existing lobby
func (mp *MetricsProvider) PlayerJoined(ctx context.Context) {
	if !mp.isEnabled() {
		return
	}
	mp.playersJoinedCounter.Add(ctx, 1)
}

// NumberCalled records one draw
func (mp *MetricsProvider) NumberCalled(ctx context.Context) {
	if !mp.isEnabled() {
		return
	}
	mp.numbersCalledCounter.Add(ctx, 1)
}

// WinClaimed records a paid claim
func (mp *MetricsProvider) WinClaimed(ctx context.Context, pot int64) {
	if !mp.isEnabled() {
		return
	}
	mp.winsClaimedCounter.Add(ctx, 1)
	mp.winningPotHist.Record(ctx, pot)
}

// BalanceTransaction records a committed balance change
func (mp *MetricsProvider) BalanceTransaction(ctx context.Context, transactionType models.TransactionType, amount int64) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(attribute.String(LabelType, string(transactionType)))
	mp.balanceTransactionsCounter.Add(ctx, 1, attrs)
	if amount < 0 {
		amount = -amount
	}
	mp.balanceVolumeCounter.Add(ctx, amount, attrs)
}

// TransactionRetried records a retry of operation
func (mp *MetricsProvider) TransactionRetried(ctx context.Context, operation string) {
	if !mp.isEnabled() {
		return
	}
	mp.transactionRetriesCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(LabelOperation, operation)),
	)
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}
