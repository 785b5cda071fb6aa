package model

// Comparison holds raw per-pair counts the way an external store keeps them.
// ItemLow < ItemHigh; Draws is the unsplit number of draw judgments.
type Comparison struct {
	ItemLow  string
	ItemHigh string
	WinsLow  int
	WinsHigh int
	Draws    int
}

// Total returns the number of raw judgments recorded for the pair.
func (c Comparison) Total() int {
	return c.WinsLow + c.WinsHigh + c.Draws
}

// PairTally is the ledger's canonical aggregate for one unordered pair.
// WinLow and WinHigh include each side's floor share of draws.
type PairTally struct {
	ItemLow   string
	ItemHigh  string
	WinLow    int
	WinHigh   int
	DrawCount int
}

// Games returns the number of decided games the fitter sees for the pair.
func (t PairTally) Games() int {
	return t.WinLow + t.WinHigh
}

// Judgments returns the number of raw judgments behind the tally: decided
// games with the draw shares removed, plus every draw.
func (t PairTally) Judgments() int {
	return t.Games() - 2*(t.DrawCount/2) + t.DrawCount
}

// CanonicalPair orders two identifiers so that the first is the lower one.
func CanonicalPair(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}
