package oddscalc

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoLegs é retornado por ParlayReturn quando não há legs.
var ErrNoLegs = errors.New("parlay requires at least one leg")

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
)

// Return é o resultado de uma aposta simples, em unidades monetárias com 2 casas.
type Return struct {
	Profit decimal.Decimal
	Payout decimal.Decimal
}

// ParlayResult é o resultado de uma múltipla.
type ParlayResult struct {
	Profit         decimal.Decimal
	Payout         decimal.Decimal
	DecimalProduct decimal.Decimal
}

// SingleReturn calcula lucro e retorno de uma aposta simples em odds americanas.
// +150 com stake 100 → lucro 150; -200 com stake 200 → lucro 100.
// Odds 0 não geram lucro. O stake não é validado aqui.
func SingleReturn(stake decimal.Decimal, odds int) Return {
	num, den := profitRatio(odds)
	profit := mulRatioCents(stake, num, den)
	return Return{
		Profit: profit,
		Payout: stake.Add(profit).Round(2),
	}
}

// DecimalFactor converte odds americanas no multiplicador decimal da leg.
// +100 → 2.0, -200 → 1.5, 0 → 1.
func DecimalFactor(odds int) decimal.Decimal {
	num, den := factorRatio(odds)
	return num.Div(den)
}

// ParlayReturn multiplica os fatores decimais de todas as legs.
// O produto é feito sobre razões inteiras exatas e arredondado só no fim,
// então a ordem das legs nunca altera o resultado e uma múltipla de uma leg
// coincide com SingleReturn.
func ParlayReturn(stake decimal.Decimal, odds []int) (ParlayResult, error) {
	if len(odds) == 0 {
		return ParlayResult{}, ErrNoLegs
	}
	num, den := one, one
	for _, o := range odds {
		n, d := factorRatio(o)
		num = num.Mul(n)
		den = den.Mul(d)
	}
	payout := mulRatioCents(stake, num, den)
	return ParlayResult{
		Profit:         payout.Sub(stake),
		Payout:         payout,
		DecimalProduct: num.DivRound(den, 8),
	}, nil
}

// FromCents converte centavos em unidades monetárias.
func FromCents(cents int64) decimal.Decimal { return decimal.New(cents, -2) }

// Cents converte um valor já arredondado em centavos.
func Cents(d decimal.Decimal) int64 { return d.Round(2).Shift(2).IntPart() }

// profitRatio retorna lucro/stake como fração inteira.
func profitRatio(odds int) (num, den decimal.Decimal) {
	switch {
	case odds > 0:
		return decimal.NewFromInt(int64(odds)), hundred
	case odds < 0:
		return hundred, decimal.NewFromInt(int64(-odds))
	default:
		return decimal.Zero, one
	}
}

// factorRatio retorna o fator decimal (1 + lucro/stake) como fração inteira.
func factorRatio(odds int) (num, den decimal.Decimal) {
	n, d := profitRatio(odds)
	return d.Add(n), d
}

// mulRatioCents calcula stake × num / den arredondando meio centavo para cima
// (para longe de zero quando negativo).
func mulRatioCents(stake, num, den decimal.Decimal) decimal.Decimal {
	q, r := stake.Shift(2).Mul(num).QuoRem(den, 0)
	switch {
	case r.Sign() > 0 && r.Mul(two).Cmp(den) >= 0:
		q = q.Add(one)
	case r.Sign() < 0 && r.Mul(two).Neg().Cmp(den) >= 0:
		q = q.Sub(one)
	}
	return q.Shift(-2)
}
