// Package holdings replays the transaction ledger into per-symbol positions and
// derives the holdings list and portfolio summary in the reporting currency.
//
// Everything here is a pure function of its input; fetching the ledger, prices and
// FX rate is the caller's job.
package holdings

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"wealthscope/internal/currency"
	"wealthscope/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Position is the running state of one symbol during replay.
type Position struct {
	Symbol         string
	Quantity       decimal.Decimal
	TotalCost      decimal.Decimal
	TotalCostCAD   decimal.Decimal
	AvgBuyPrice    decimal.Decimal
	AvgBuyPriceCAD decimal.Decimal
	Currency       string
}

// Open reports whether any shares remain.
func (p *Position) Open() bool { return p.Quantity.IsPositive() }

func (p *Position) buy(shares, amount, amountCAD decimal.Decimal) {
	p.Quantity = p.Quantity.Add(shares)
	p.TotalCost = p.TotalCost.Add(amount)
	p.TotalCostCAD = p.TotalCostCAD.Add(amountCAD)
	if p.Quantity.IsPositive() {
		p.AvgBuyPrice = p.TotalCost.Div(p.Quantity)
		p.AvgBuyPriceCAD = p.TotalCostCAD.Div(p.Quantity)
	}
}

// sell clamps oversells at zero. A full liquidation drops the whole cost basis; a
// partial one removes the sold fraction, which leaves the average cost unchanged.
func (p *Position) sell(shares decimal.Decimal) {
	old := p.Quantity
	p.Quantity = decimal.Max(decimal.Zero, old.Sub(shares))

	if p.Quantity.IsZero() {
		p.TotalCost = decimal.Zero
		p.TotalCostCAD = decimal.Zero
		p.AvgBuyPrice = decimal.Zero
		p.AvgBuyPriceCAD = decimal.Zero
		return
	}
	ratio := shares.Div(old)
	p.TotalCost = p.TotalCost.Sub(p.TotalCost.Mul(ratio))
	p.TotalCostCAD = p.TotalCostCAD.Sub(p.TotalCostCAD.Mul(ratio))
}

// Ledger is the outcome of replaying transactions.
type Ledger struct {
	Positions map[string]*Position
	// Invested is the signed running sum of every transaction in the reporting
	// currency: buys add, sells subtract, with no flooring and no reset on full
	// liquidation. It does not reconcile with the sum of open cost bases.
	Invested decimal.Decimal
	Buys     int
	Sells    int
}

// OpenSymbols lists symbols with a positive quantity, sorted.
func (l Ledger) OpenSymbols() []string {
	out := make([]string, 0, len(l.Positions))
	for s, p := range l.Positions {
		if p.Open() {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Replay runs a single forward pass over transactions, which must be ordered by
// transaction date ascending.
func Replay(txs []models.Transaction, fxRate decimal.Decimal) Ledger {
	l := Ledger{Positions: make(map[string]*Position), Invested: decimal.Zero}

	for _, tx := range txs {
		p, ok := l.Positions[tx.Symbol]
		if !ok {
			cur := tx.Currency
			if cur == "" {
				cur = models.ReportingCurrency
			}
			p = &Position{Symbol: tx.Symbol, Currency: cur}
			l.Positions[tx.Symbol] = p
		}

		amount := tx.Amount()
		amountCAD := currency.ToReporting(amount, tx.Currency, fxRate)

		switch tx.Type {
		case models.Buy:
			l.Buys++
			p.buy(tx.Shares, amount, amountCAD)
			l.Invested = l.Invested.Add(amountCAD)
		case models.Sell:
			l.Sells++
			p.sell(tx.Shares)
			l.Invested = l.Invested.Sub(amountCAD)
		}
	}
	return l
}

// Input is a consistent snapshot of everything a pass needs.
type Input struct {
	Transactions []models.Transaction
	Dividends    []models.Dividend
	Prices       map[string]decimal.Decimal
	FXRate       decimal.Decimal
	Now          time.Time
}

type Result struct {
	Holdings   []models.Holding
	Summary    models.PortfolioSummary
	ComputedAt time.Time
}

// Aggregate replays the ledger and values the open positions. Holdings come back
// sorted by symbol; closed positions are omitted.
func Aggregate(in Input) Result {
	return Summarize(Replay(in.Transactions, in.FXRate), in)
}

// Summarize values an already replayed ledger. in.Transactions is ignored, which
// lets callers replay once, fetch prices for OpenSymbols, then summarize.
func Summarize(ledger Ledger, in Input) Result {
	dividends := DividendsYTD(in.Dividends, in.FXRate, in.Now)

	holdings := make([]models.Holding, 0, len(ledger.Positions))
	portfolioValue := decimal.Zero
	for _, sym := range ledger.OpenSymbols() {
		p := ledger.Positions[sym]

		price, ok := in.Prices[sym]
		if !ok || price.IsZero() {
			price = p.AvgBuyPrice
		}

		h := Value(p, price, in.FXRate, in.Now)
		holdings = append(holdings, h)
		portfolioValue = portfolioValue.Add(h.MarketValueCAD)
	}

	return Result{
		Holdings: holdings,
		Summary: models.PortfolioSummary{
			TotalInvested:     ledger.Invested,
			TotalDividendsYTD: dividends,
			PortfolioValue:    portfolioValue,
			GainLoss:          portfolioValue.Add(dividends).Sub(ledger.Invested),
			LastUpdated:       in.Now,
			Currency:          models.ReportingCurrency,
		},
		ComputedAt: in.Now,
	}
}

// Value builds the holding for an open position at the given native price.
func Value(p *Position, price, fxRate decimal.Decimal, now time.Time) models.Holding {
	h := models.Holding{
		Symbol:           p.Symbol,
		Quantity:         p.Quantity,
		AvgBuyPrice:      p.AvgBuyPrice,
		AvgBuyPriceCAD:   p.AvgBuyPriceCAD,
		TotalInvested:    p.TotalCost,
		TotalInvestedCAD: p.TotalCostCAD,
		Currency:         p.Currency,
	}
	return Reprice(h, price, fxRate, now)
}

// Reprice recomputes the price-dependent fields of h. Cost basis is untouched.
func Reprice(h models.Holding, price, fxRate decimal.Decimal, now time.Time) models.Holding {
	h.CurrentPrice = price
	h.CurrentPriceCAD = currency.ToReporting(price, h.Currency, fxRate)
	h.MarketValue = h.Quantity.Mul(h.CurrentPrice)
	h.MarketValueCAD = h.Quantity.Mul(h.CurrentPriceCAD)
	h.UnrealizedGainLoss = h.MarketValue.Sub(h.TotalInvested)
	h.UnrealizedGainLossCAD = h.MarketValueCAD.Sub(h.TotalInvestedCAD)
	h.UnrealizedGainLossPercentage = decimal.Zero
	if h.TotalInvested.IsPositive() {
		h.UnrealizedGainLossPercentage = h.UnrealizedGainLoss.Div(h.TotalInvested).Mul(hundred)
	}
	h.LastUpdated = now
	return h
}

// YearBounds returns Jan 1 00:00:00 and Dec 31 23:59:59 of now's year in now's
// location.
func YearBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	end := time.Date(now.Year(), time.December, 31, 23, 59, 59, 0, now.Location())
	return start, end
}

// DividendsYTD sums dividends paid within now's calendar year, converted to the
// reporting currency.
func DividendsYTD(divs []models.Dividend, fxRate decimal.Decimal, now time.Time) decimal.Decimal {
	start, end := YearBounds(now)
	total := decimal.Zero
	for _, d := range divs {
		if d.PaymentDate.Before(start) || d.PaymentDate.After(end) {
			continue
		}
		total = total.Add(currency.ToReporting(d.Amount, d.Currency, fxRate))
	}
	return total
}
