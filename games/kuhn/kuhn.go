// Package kuhn implements 3-card Kuhn poker as a cfr.Game, the standard
// 12-info-set benchmark used to validate convergence of a CFR
// implementation.
//
// Adapted from the teacher's kuhn/poker.go, whose GameTreeNode pre-built
// the whole tree as a []PokerNode slice of children; here the same rules
// are expressed against the engine's action-enumerating, mutate-in-place
// Game contract; cards are dealt by two explicit Chance nodes rather than
// resolved inside NewRandom, so vanilla CFR can still explore every deal.
package kuhn

import (
	cfr "github.com/gauleng/musolver"
)

// Card is one of the three cards in the Kuhn poker deck.
type Card int

const (
	Jack Card = iota
	Queen
	King
)

var cardStr = [...]string{"J", "Q", "K"}

func (c Card) String() string {
	return cardStr[c]
}

const (
	check = "c"
	bet   = "b"
)

// State is a Kuhn poker game state: a sequence of two chance deals followed
// by up to three rounds of check/bet decisions.
type State struct {
	p0Card, p1Card   Card
	p0Dealt, p1Dealt bool
	history          string
}

// NewGame returns a fresh, undealt Kuhn poker state.
func NewGame() *State {
	return &State{}
}

// NumPlayers implements cfr.Game.
func (s *State) NumPlayers() int {
	return 2
}

// NewRandom implements cfr.Game: it resets to the start of a new hand,
// leaving both cards undealt so the first two decisions remain exposed as
// Chance nodes for the traversal kernel.
func (s *State) NewRandom() {
	*s = State{}
}

// CurrentPlayer implements cfr.Game.
func (s *State) CurrentPlayer() cfr.NodeKind {
	if !s.p0Dealt || !s.p1Dealt {
		return cfr.Chance
	}
	if isTerminal(s.history) {
		return cfr.Terminal
	}
	return cfr.Player
}

// Player implements cfr.Game.
func (s *State) Player() int {
	switch len(s.history) {
	case 0, 2:
		return 0
	default:
		return 1
	}
}

// Actions implements cfr.Game.
func (s *State) Actions() []string {
	if !s.p0Dealt {
		return []string{"J", "Q", "K"}
	}
	if !s.p1Dealt {
		result := make([]string, 0, 2)
		for _, c := range []string{"J", "Q", "K"} {
			if c != s.p0Card.String() {
				result = append(result, c)
			}
		}
		return result
	}
	return []string{check, bet}
}

// ChanceProb implements cfr.Game.
func (s *State) ChanceProb(a string) float64 {
	if !s.p0Dealt {
		return 1.0 / 3.0
	}
	return 1.0 / 2.0
}

// Act implements cfr.Game.
func (s *State) Act(a string) {
	if !s.p0Dealt {
		s.p0Card = parseCard(a)
		s.p0Dealt = true
		return
	}
	if !s.p1Dealt {
		s.p1Card = parseCard(a)
		s.p1Dealt = true
		return
	}
	s.history += a
}

// Utility implements cfr.Game. The showdown/fold logic is Kuhn poker's
// standard payoff table: a fold pays 1 to the non-folder, a showdown with
// no bets pays 1 to the higher card, a showdown after a call pays 2.
func (s *State) Utility(player int) float64 {
	switch s.history {
	case "bc": // player 0 bet, player 1 folded
		if player == 0 {
			return 1.0
		}
		return -1.0
	case "cbc": // player 0 checked, player 1 bet, player 0 folded
		if player == 1 {
			return 1.0
		}
		return -1.0
	case "cc": // no bets, showdown
		return s.showdown(player, 1.0)
	case "bb", "cbb": // one bet called, showdown
		return s.showdown(player, 2.0)
	}
	panic("kuhn: Utility called at non-terminal history " + s.history)
}

func (s *State) showdown(player int, stake float64) float64 {
	if s.playerCard(player) > s.playerCard(1-player) {
		return stake
	}
	return -stake
}

// InfoSetKey implements cfr.Game.
func (s *State) InfoSetKey(player int) string {
	return s.playerCard(player).String() + "-" + s.history
}

// Clone implements cfr.Game.
func (s *State) Clone() cfr.Game[string] {
	cp := *s
	return &cp
}

// String reports the full action history, including both deals, for
// diagnostics and test assertions; not part of the Game contract.
func (s *State) String() string {
	return s.p0Card.String() + s.p1Card.String() + s.history
}

func (s *State) playerCard(player int) Card {
	if player == 0 {
		return s.p0Card
	}
	return s.p1Card
}

func parseCard(a string) Card {
	switch a {
	case "J":
		return Jack
	case "Q":
		return Queen
	default:
		return King
	}
}

func isTerminal(h string) bool {
	switch h {
	case "cc", "cbc", "cbb", "bc", "bb":
		return true
	}
	return false
}
