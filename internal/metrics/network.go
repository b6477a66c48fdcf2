package metrics

import "lec-simulator/internal/model"

// network accumulates directed energy flows between buildings and the grid node.
// Index n stands for the grid.
type network struct {
	n     int
	flows []float64 // (n+1) x (n+1), row = from, col = to
}

func newNetwork(n int) *network {
	return &network{n: n, flows: make([]float64, (n+1)*(n+1))}
}

func (nw *network) add(from, to int, kwh float64) {
	if kwh <= 0 || from == to {
		return
	}
	nw.flows[from*(nw.n+1)+to] += kwh
}

func (nw *network) addTrades(trades []model.Trade) {
	for _, t := range trades {
		nw.add(t.Seller, t.Buyer, t.Volume)
	}
}

func (nw *network) addGrid(building int, exportKWh, importKWh float64) {
	nw.add(building, nw.n, exportKWh)
	nw.add(nw.n, building, importKWh)
}

func (nw *network) name(i int) string {
	if i == nw.n {
		return model.GridNode
	}
	return model.NodeName(i)
}

// snapshot lists nodes (buildings then grid) and non-zero edges in row-major order.
func (nw *network) snapshot() TradingNetwork {
	tn := TradingNetwork{Nodes: make([]string, 0, nw.n+1), Edges: []Edge{}}
	for i := 0; i <= nw.n; i++ {
		tn.Nodes = append(tn.Nodes, nw.name(i))
	}
	for from := 0; from <= nw.n; from++ {
		for to := 0; to <= nw.n; to++ {
			if v := nw.flows[from*(nw.n+1)+to]; v > 0 {
				tn.Edges = append(tn.Edges, Edge{From: nw.name(from), To: nw.name(to), Volume: v})
			}
		}
	}
	return tn
}
