// Package pennies implements matching pennies as a cfr.Game: the
// two-action, zero-sum sibling of rock-paper-scissors used as a smaller,
// faster-converging end-to-end CFR+ benchmark. Player 0 is the Matcher
// (wins when both coins show the same face); player 1 is the Mismatcher.
//
// Built analogously to games/rps, which is directly grounded on
// original_source's rps.rs; matching pennies has no corresponding example
// in the retrieved sources, so its structure mirrors rps's simultaneous-as-
// sequential-hidden-information modeling rather than any one source file.
package pennies

import (
	"strings"

	cfr "github.com/gauleng/musolver"
)

// Action is one of the two coin faces.
type Action = string

const (
	Heads Action = "Heads"
	Tails Action = "Tails"
)

// State is a matching-pennies game state: up to two sequential, hidden
// moves.
type State struct {
	moves []Action
}

// NewGame returns a fresh matching-pennies state with no moves played.
func NewGame() *State {
	return &State{}
}

// NumPlayers implements cfr.Game.
func (s *State) NumPlayers() int {
	return 2
}

// NewRandom implements cfr.Game. There is no chance event in this game; it
// simply clears any moves played so far.
func (s *State) NewRandom() {
	s.moves = nil
}

// CurrentPlayer implements cfr.Game.
func (s *State) CurrentPlayer() cfr.NodeKind {
	if len(s.moves) >= 2 {
		return cfr.Terminal
	}
	return cfr.Player
}

// Player implements cfr.Game.
func (s *State) Player() int {
	return len(s.moves)
}

// Actions implements cfr.Game.
func (s *State) Actions() []Action {
	return []Action{Heads, Tails}
}

// ChanceProb implements cfr.Game. Never called: this game has no Chance
// nodes.
func (s *State) ChanceProb(a Action) float64 {
	panic("pennies: ChanceProb called, but matching pennies has no chance nodes")
}

// Act implements cfr.Game.
func (s *State) Act(a Action) {
	s.moves = append(s.moves, a)
}

// Utility implements cfr.Game: +1 to the Matcher (player 0) when both
// coins match, -1 otherwise; player 1's utility is the negation.
func (s *State) Utility(player int) float64 {
	var payoff float64 = -1
	if s.moves[0] == s.moves[1] {
		payoff = 1
	}
	if player == 0 {
		return payoff
	}
	return -payoff
}

// InfoSetKey implements cfr.Game. Player 1's key carries no information
// about player 0's hidden move.
func (s *State) InfoSetKey(player int) string {
	if player == 0 {
		return "p0"
	}
	return "p1"
}

// Clone implements cfr.Game.
func (s *State) Clone() cfr.Game[Action] {
	cp := &State{moves: make([]Action, len(s.moves))}
	copy(cp.moves, s.moves)
	return cp
}

// String reports the moves played so far, for diagnostics; not part of the
// Game contract.
func (s *State) String() string {
	return strings.Join(s.moves, ",")
}
