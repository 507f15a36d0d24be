package game

import "math/rand/v2"

// NewBoard lays out every symbol twice and shuffles with Fisher-Yates.
// Every tile starts hidden and Index equals its position.
func NewBoard(symbols []string, r *rand.Rand) []Tile {
	deck := make([]string, 0, 2*len(symbols))
	deck = append(deck, symbols...)
	deck = append(deck, symbols...)

	for i := len(deck) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}

	tiles := make([]Tile, len(deck))
	for i, s := range deck {
		tiles[i] = Tile{Index: i, Symbol: s, Status: StatusHidden}
	}
	return tiles
}

// NewRand returns a PCG-backed generator for the given seed words.
func NewRand(seed1, seed2 uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}
