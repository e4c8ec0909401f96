package topics

const (
	// Jogos
	GameFinalized = "game_finalized"

	// Apostas
	WagerSettled = "wager_settled"

	// Redis Pub/Sub usado pelo feed /ws
	WagerSettledBroadcast = "wager_settled_broadcast"
)
