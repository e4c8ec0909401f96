package oddscalc_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/season-betting/pkg/oddscalc"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "want %s got %s", want, got.String())
}

func TestSingleReturn(t *testing.T) {
	tests := []struct {
		name       string
		stake      string
		odds       int
		wantProfit string
		wantPayout string
	}{
		{"Underdog +150", "100", 150, "150", "250"},
		{"Favorite -200", "200", -200, "100", "300"},
		{"Favorite -150 rounds half up", "100", -150, "66.67", "166.67"},
		{"Underdog +200", "50", 200, "100", "150"},
		{"Even +100", "25.50", 100, "25.50", "51"},
		{"Favorite -110", "10", -110, "9.09", "19.09"},
		{"Zero odds pays stake back", "40", 0, "0", "40"},
		{"Exact half cent", "0.01", 50, "0.01", "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := oddscalc.SingleReturn(d(tt.stake), tt.odds)
			assertDec(t, tt.wantProfit, got.Profit)
			assertDec(t, tt.wantPayout, got.Payout)
		})
	}
}

func TestDecimalFactor(t *testing.T) {
	tests := []struct {
		odds int
		want string
	}{
		{100, "2"},
		{150, "2.5"},
		{-200, "1.5"},
		{-100, "2"},
		{0, "1"},
	}
	for _, tt := range tests {
		assertDec(t, tt.want, oddscalc.DecimalFactor(tt.odds))
	}

	// -150 → 1.666...
	f := oddscalc.DecimalFactor(-150)
	assert.True(t, f.Sub(d("1.6666666667")).Abs().LessThan(d("0.0000001")))
}

func TestParlayReturn(t *testing.T) {
	got, err := oddscalc.ParlayReturn(d("100"), []int{100, -200})
	require.NoError(t, err)
	assertDec(t, "300", got.Payout)
	assertDec(t, "200", got.Profit)
	assertDec(t, "3", got.DecimalProduct)

	got, err = oddscalc.ParlayReturn(d("10"), []int{-110, -110, -110})
	require.NoError(t, err)
	// 10 × (21/11)^3 = 69.5792...
	assertDec(t, "69.58", got.Payout)
	assertDec(t, "59.58", got.Profit)
}

func TestParlayReturn_NoLegs(t *testing.T) {
	_, err := oddscalc.ParlayReturn(d("10"), nil)
	assert.ErrorIs(t, err, oddscalc.ErrNoLegs)
}

func randomOdds(r *rand.Rand) int {
	o := 100 + r.Intn(1900)
	if r.Intn(2) == 0 {
		return -o
	}
	return o
}

func randomStake(r *rand.Rand) decimal.Decimal {
	return decimal.New(int64(1+r.Intn(500000)), -2)
}

func TestSingleReturn_ProfitProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	hundred := decimal.NewFromInt(100)

	for i := 0; i < 2000; i++ {
		stake := randomStake(r)
		odds := randomOdds(r)

		var want decimal.Decimal
		if odds > 0 {
			want = stake.Mul(decimal.NewFromInt(int64(odds))).Div(hundred).Round(2)
		} else {
			want = stake.Mul(hundred).DivRound(decimal.NewFromInt(int64(-odds)), 30).Round(2)
		}

		got := oddscalc.SingleReturn(stake, odds)
		require.True(t, got.Profit.Equal(want), "stake %s odds %d: want %s got %s", stake, odds, want, got.Profit)
		require.True(t, got.Payout.Equal(stake.Add(want)), "stake %s odds %d payout %s", stake, odds, got.Payout)
	}
}

func TestParlayReturn_SingleLegMatchesSingle(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		stake := randomStake(r)
		odds := randomOdds(r)

		single := oddscalc.SingleReturn(stake, odds)
		parlay, err := oddscalc.ParlayReturn(stake, []int{odds})
		require.NoError(t, err)
		require.True(t, single.Payout.Equal(parlay.Payout), "stake %s odds %d", stake, odds)
		require.True(t, single.Profit.Equal(parlay.Profit), "stake %s odds %d", stake, odds)
	}
}

func TestParlayReturn_OrderIndependent(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for i := 0; i < 500; i++ {
		stake := randomStake(r)
		legs := make([]int, 2+r.Intn(5))
		for j := range legs {
			legs[j] = randomOdds(r)
		}
		base, err := oddscalc.ParlayReturn(stake, legs)
		require.NoError(t, err)

		for k := 0; k < 5; k++ {
			perm := make([]int, len(legs))
			for j, p := range r.Perm(len(legs)) {
				perm[j] = legs[p]
			}
			got, err := oddscalc.ParlayReturn(stake, perm)
			require.NoError(t, err)
			require.True(t, base.Payout.Equal(got.Payout), "legs %v perm %v", legs, perm)
			require.True(t, base.Profit.Equal(got.Profit))
			require.True(t, base.DecimalProduct.Equal(got.DecimalProduct))
		}
	}
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(16667), oddscalc.Cents(d("166.67")))
	assert.Equal(t, int64(0), oddscalc.Cents(decimal.Zero))
	assertDec(t, "1.05", oddscalc.FromCents(105))
}
