// Package market clears one hour of the community's internal energy market.
//
// Offers and requests are pooled and the traded volume min(Σoffers, Σrequests) is
// allocated pro-rata on both sides, which maximizes traded volume without letting any
// building trade more than its own order. All matched energy clears at one price.
package market

import (
	"fmt"
	"sort"
	"strings"

	"lec-simulator/internal/model"
)

// Epsilon is the pool size below which a market side counts as empty.
const Epsilon = 1e-9

// Pairing decides who trades with whom. It only shapes the trading network; volumes per
// building are the same under every rule.
type Pairing string

const (
	// PairingProportional splits each seller's volume across buyers in proportion to
	// what each buyer receives.
	PairingProportional Pairing = "proportional"
	// PairingGreedy fills buyers from sellers in building-id order.
	PairingGreedy Pairing = "greedy"
)

func ParsePairing(s string) (Pairing, error) {
	switch Pairing(strings.ToLower(strings.TrimSpace(s))) {
	case "", PairingProportional:
		return PairingProportional, nil
	case PairingGreedy:
		return PairingGreedy, nil
	}
	return "", fmt.Errorf("unknown pairing rule %q (want proportional or greedy)", s)
}

// Clearing is the outcome of one hour. Sold and Bought are aligned with the input orders.
type Clearing struct {
	Volume         float64
	Price          float64
	TotalOffered   float64
	TotalRequested float64

	Sold   []float64
	Bought []float64
	Trades []model.Trade
}

// Residual returns the unmatched offer and request of order i.
func (c Clearing) Residual(i int, o model.MarketOrder) (offer, request float64) {
	offer = o.Offer() - c.Sold[i]
	request = o.Request() - c.Bought[i]
	if offer < 0 {
		offer = 0
	}
	if request < 0 {
		request = 0
	}
	return offer, request
}

// Clear matches the hour's orders at the given uniform price.
func Clear(orders []model.MarketOrder, price float64, pairing Pairing) Clearing {
	c := Clearing{
		Price:  price,
		Sold:   make([]float64, len(orders)),
		Bought: make([]float64, len(orders)),
	}
	for _, o := range orders {
		c.TotalOffered += o.Offer()
		c.TotalRequested += o.Request()
	}
	if c.TotalOffered <= Epsilon || c.TotalRequested <= Epsilon {
		return c
	}

	c.Volume = min(c.TotalOffered, c.TotalRequested)
	sellShare := 1.0
	if c.TotalOffered > c.Volume {
		sellShare = c.Volume / c.TotalOffered
	}
	buyShare := 1.0
	if c.TotalRequested > c.Volume {
		buyShare = c.Volume / c.TotalRequested
	}

	var sellers, buyers []int
	for i, o := range orders {
		if off := o.Offer(); off > 0 {
			c.Sold[i] = off * sellShare
			sellers = append(sellers, i)
		}
		if req := o.Request(); req > 0 {
			c.Bought[i] = req * buyShare
			buyers = append(buyers, i)
		}
	}
	byID := func(idx []int) {
		sort.SliceStable(idx, func(a, b int) bool { return orders[idx[a]].BuildingID < orders[idx[b]].BuildingID })
	}
	byID(sellers)
	byID(buyers)

	switch pairing {
	case PairingGreedy:
		c.Trades = pairGreedy(orders, c, sellers, buyers)
	default:
		c.Trades = pairProportional(orders, c, sellers, buyers)
	}
	return c
}

func pairProportional(orders []model.MarketOrder, c Clearing, sellers, buyers []int) []model.Trade {
	trades := make([]model.Trade, 0, len(sellers)*len(buyers))
	for _, s := range sellers {
		for _, b := range buyers {
			v := c.Sold[s] * c.Bought[b] / c.Volume
			if v <= 0 {
				continue
			}
			trades = append(trades, model.Trade{
				Seller: orders[s].BuildingID,
				Buyer:  orders[b].BuildingID,
				Volume: v,
				Price:  c.Price,
			})
		}
	}
	return trades
}

func pairGreedy(orders []model.MarketOrder, c Clearing, sellers, buyers []int) []model.Trade {
	var trades []model.Trade
	si, bi := 0, 0
	var sellLeft, buyLeft float64
	if len(sellers) > 0 {
		sellLeft = c.Sold[sellers[0]]
	}
	if len(buyers) > 0 {
		buyLeft = c.Bought[buyers[0]]
	}
	for si < len(sellers) && bi < len(buyers) {
		v := min(sellLeft, buyLeft)
		if v > Epsilon {
			trades = append(trades, model.Trade{
				Seller: orders[sellers[si]].BuildingID,
				Buyer:  orders[buyers[bi]].BuildingID,
				Volume: v,
				Price:  c.Price,
			})
		}
		sellLeft -= v
		buyLeft -= v
		if sellLeft <= Epsilon {
			si++
			if si < len(sellers) {
				sellLeft = c.Sold[sellers[si]]
			}
		}
		if buyLeft <= Epsilon {
			bi++
			if bi < len(buyers) {
				buyLeft = c.Bought[buyers[bi]]
			}
		}
	}
	return trades
}
