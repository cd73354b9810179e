package graph

import (
	"math"

	"github.com/phobologic/symctx/internal/model"
)

// Rank applies PageRank over the resolved one-hop edges of t. An edge runs
// from a symbol to each other symbol in its bundle, so heavily referenced
// types rank highest.
func Rank(t *Table) map[model.Key]float64 {
	syms := t.Symbols()
	if len(syms) == 0 {
		return nil
	}

	nodes := make(map[model.Key]struct{}, len(syms))
	outEdges := make(map[model.Key][]model.Key)
	outDegree := make(map[model.Key]int)
	for _, s := range syms {
		src := model.KeyOf(s)
		nodes[src] = struct{}{}
		for _, ref := range Assemble(s, t)[1:] {
			outEdges[src] = append(outEdges[src], model.KeyOf(ref))
			outDegree[src]++
		}
	}

	return pageRank(nodes, outEdges, outDegree, 0.85, 100, 1e-6)
}

func pageRank(
	nodes map[model.Key]struct{},
	outEdges map[model.Key][]model.Key,
	outDegree map[model.Key]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[model.Key]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	rank := make(map[model.Key]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[model.Key]float64, n)

		// Nodes without out-edges spread their rank evenly.
		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for src, targets := range outEdges {
			contrib := alpha * rank[src] / float64(outDegree[src])
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			break
		}
	}

	return rank
}
