// Package rank derives an affiliate's commission tier from the sales
// counter. Ranks are never stored; they are recomputed on every read so a
// tier change takes effect on the next credited sale.
package rank

type Rank struct {
	Name       string
	Threshold  int
	Commission int
}

var tiers = []Rank{
	{Name: "STARTER", Threshold: 0, Commission: 15},
	{Name: "EXPERT", Threshold: 25, Commission: 17},
	{Name: "ELITE", Threshold: 100, Commission: 20},
	{Name: "LEGEND", Threshold: 300, Commission: 25},
}

// Current returns the highest tier whose threshold the sales count meets.
func Current(salesCount int) Rank {
	current := tiers[0]
	for _, tier := range tiers[1:] {
		if salesCount >= tier.Threshold {
			current = tier
		}
	}
	return current
}

// Next returns the tier after the current one, or false at the top.
func Next(salesCount int) (Rank, bool) {
	for _, tier := range tiers[1:] {
		if salesCount < tier.Threshold {
			return tier, true
		}
	}
	return Rank{}, false
}

// Progress reports percentage progress toward the next tier, capped at 100.
// Affiliates at the top tier are always at 100.
func Progress(salesCount int) int {
	next, ok := Next(salesCount)
	if !ok {
		return 100
	}
	p := salesCount * 100 / next.Threshold
	if p > 100 {
		p = 100
	}
	return p
}
