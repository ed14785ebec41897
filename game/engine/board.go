package engine

import (
	"fmt"
	"math/rand/v2"
)

// TeamSize returns the base number of cards per team for a board size
func TeamSize(boardSize int) int {
	return (boardSize - 1) / 3
}

// MaxMatchCount is the largest match count a hint may announce
func MaxMatchCount(boardSize int) int {
	return TeamSize(boardSize) + 1
}

// ValidateBoardSize checks that the board splits into two teams, neutrals
// and a single assassin.
func ValidateBoardSize(boardSize int) error {
	if boardSize < MinBoardSize || boardSize%2 == 0 || (boardSize-1)%3 != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBoardSize, boardSize)
	}
	return nil
}

// GenerateBoard deals a random board from words. The returned side gives
// the first hint and owns one extra card. A nil rng uses the global source.
func GenerateBoard(words []string, boardSize int, rng *rand.Rand) ([]Card, Side, error) {
	if err := ValidateBoardSize(boardSize); err != nil {
		return nil, Unknown, err
	}
	if len(words) < boardSize {
		return nil, Unknown, fmt.Errorf("%w: need %d, got %d", ErrInsufficientWords, boardSize, len(words))
	}

	firstHint := Red
	if intN(rng, 2) == 1 {
		firstHint = Blue
	}

	sides := composeSides(boardSize, firstHint)
	shuffle(rng, len(sides), func(i, j int) { sides[i], sides[j] = sides[j], sides[i] })

	picked := perm(rng, len(words))[:boardSize]

	cards := make([]Card, boardSize)
	for i := range cards {
		cards[i] = Card{
			Index: i,
			Name:  words[picked[i]],
			Side:  sides[i],
		}
	}
	return cards, firstHint, nil
}

// composeSides lists the unshuffled sides for a board
func composeSides(boardSize int, firstHint Side) []Side {
	teamSize := TeamSize(boardSize)
	sides := make([]Side, 0, boardSize)
	for i := 0; i < teamSize; i++ {
		sides = append(sides, Red, Blue)
	}
	for i := 0; i < teamSize-1; i++ {
		sides = append(sides, Neutral)
	}
	sides = append(sides, Assassin, firstHint)
	return sides
}

func intN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}

func shuffle(rng *rand.Rand, n int, swap func(i, j int)) {
	if rng == nil {
		rand.Shuffle(n, swap)
		return
	}
	rng.Shuffle(n, swap)
}

func perm(rng *rand.Rand, n int) []int {
	if rng == nil {
		return rand.Perm(n)
	}
	return rng.Perm(n)
}
