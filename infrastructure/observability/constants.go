package observability

// Metric name prefixes
const (
	MetricPrefix = "bingohub"
)

// Metric names
const (
	// Lobby metrics
	LobbiesCreatedTotal = MetricPrefix + ".lobbies.created_total"
	LobbyStake          = MetricPrefix + ".lobbies.stake"
	PlayersJoinedTotal  = MetricPrefix + ".lobbies.players_joined_total"
	NumbersCalledTotal  = MetricPrefix + ".lobbies.numbers_called_total"
	WinsClaimedTotal    = MetricPrefix + ".lobbies.wins_claimed_total"
	WinningPot          = MetricPrefix + ".lobbies.winning_pot"

	// Balance metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"
	BalanceVolumeTotal       = MetricPrefix + ".balance.volume_total"

	// Database metrics
	TransactionRetriesTotal = MetricPrefix + ".database.transaction_retries_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelOperation = "operation"
)
