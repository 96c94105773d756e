// Package rps implements one-shot rock-paper-scissors as a cfr.Game:
// simultaneous play modeled as sequential with hidden information, since the
// engine's Game contract has no notion of a truly simultaneous move. Player
// 1 acts without having observed player 0's choice, which the info-set key
// below encodes by never mentioning it.
//
// Grounded directly on original_source's rps.rs example: same three
// actions, same zero-sum payoff table, same info-set key (just the acting
// player's own identity).
package rps

import (
	"strings"

	cfr "github.com/gauleng/musolver"
)

// Action is one of the three rock-paper-scissors throws.
type Action = string

const (
	Rock     Action = "Rock"
	Paper    Action = "Paper"
	Scissors Action = "Scissors"
)

// State is a rock-paper-scissors game state: up to two sequential, hidden
// moves.
type State struct {
	moves []Action
}

// NewGame returns a fresh rock-paper-scissors state with no moves played.
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
	return []Action{Rock, Paper, Scissors}
}

// ChanceProb implements cfr.Game. Never called: this game has no Chance
// nodes.
func (s *State) ChanceProb(a Action) float64 {
	panic("rps: ChanceProb called, but rock-paper-scissors has no chance nodes")
}

// Act implements cfr.Game.
func (s *State) Act(a Action) {
	s.moves = append(s.moves, a)
}

// Utility implements cfr.Game.
func (s *State) Utility(player int) float64 {
	payoff := beats(s.moves[0], s.moves[1])
	if player == 0 {
		return payoff
	}
	return -payoff
}

// beats returns the payoff to the first mover: +1 if a beats b, -1 if b
// beats a, 0 on a tie.
func beats(a, b Action) float64 {
	if a == b {
		return 0
	}
	switch a {
	case Rock:
		if b == Scissors {
			return 1
		}
		return -1
	case Paper:
		if b == Rock {
			return 1
		}
		return -1
	default: // Scissors
		if b == Paper {
			return 1
		}
		return -1
	}
}

// InfoSetKey implements cfr.Game. Player 1's key carries no information
// about player 0's hidden move; both players' keys are constant across a
// hand, matching a one-shot simultaneous game played sequentially.
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
