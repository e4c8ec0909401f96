package domain

import "errors"

// Erros de validação da colocação de apostas.
var (
	ErrInvalidStake        = errors.New("invalid stake")
	ErrNoLegs              = errors.New("wager has no legs")
	ErrInvalidSide         = errors.New("invalid side")
	ErrInvalidOdds         = errors.New("invalid odds")
	ErrDuplicateLeg        = errors.New("game referenced twice")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrGameUnavailable     = errors.New("game unavailable")
	ErrGameStarted         = errors.New("game already started")
	ErrOddsChanged         = errors.New("odds changed")
	ErrEntryNotFound       = errors.New("entry not found")
	ErrEntryNotPaid        = errors.New("entry not paid")
)

// Erros de registro de resultado e de leitura.
var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameAlreadyFinal = errors.New("game already final")
	ErrWagerNotFound    = errors.New("wager not found")
	ErrInvalidFeed      = errors.New("invalid wager feed")
)

// ErrClaimLost indica que a aposta não está mais reservada com o token informado
// (outro runner a concluiu ou a reserva expirou e foi devolvida).
var ErrClaimLost = errors.New("wager claim lost")

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidStake, "invalid_stake"},
	{ErrNoLegs, "no_legs"},
	{ErrInvalidSide, "invalid_side"},
	{ErrInvalidOdds, "invalid_odds"},
	{ErrDuplicateLeg, "duplicate_leg"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrGameUnavailable, "game_unavailable"},
	{ErrGameStarted, "game_started"},
	{ErrOddsChanged, "odds_changed"},
	{ErrEntryNotFound, "entry_not_found"},
	{ErrEntryNotPaid, "entry_not_paid"},
	{ErrGameNotFound, "game_not_found"},
	{ErrGameAlreadyFinal, "already_final"},
	{ErrWagerNotFound, "wager_not_found"},
	{ErrInvalidFeed, "invalid_feed"},
	{ErrClaimLost, "claim_lost"},
}

// Code devolve o código estável de um erro de domínio, ou "internal".
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
