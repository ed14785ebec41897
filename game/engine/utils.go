package engine

// CountSides counts the cards of each side on a board
func CountSides(board []Card) map[Side]int {
	counts := make(map[Side]int, 5)
	for _, card := range board {
		counts[card.Side]++
	}
	return counts
}

// CountCovered counts the cards of a side that are still covered
func CountCovered(board []Card, side Side) int {
	count := 0
	for _, card := range board {
		if card.Side == side && !card.Uncovered {
			count++
		}
	}
	return count
}
