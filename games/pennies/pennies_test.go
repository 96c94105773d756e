package pennies

import (
	"testing"

	cfr "github.com/gauleng/musolver"
)

func TestPenniesPayoffAndZeroSum(t *testing.T) {
	cases := []struct {
		a, b Action
		want float64
	}{
		{Heads, Heads, 1},
		{Tails, Tails, 1},
		{Heads, Tails, -1},
		{Tails, Heads, -1},
	}
	for _, c := range cases {
		s := NewGame()
		s.Act(c.a)
		s.Act(c.b)
		u0 := s.Utility(0)
		u1 := s.Utility(1)
		if u0 != c.want {
			t.Errorf("%v vs %v: u0 = %v, want %v", c.a, c.b, u0, c.want)
		}
		if u0+u1 != 0 {
			t.Errorf("%v vs %v: utilities %v %v do not sum to zero", c.a, c.b, u0, u1)
		}
	}
}

func TestPenniesInfoSetKeyHidesOpponentMove(t *testing.T) {
	s1 := NewGame()
	s1.Act(Heads)
	s2 := NewGame()
	s2.Act(Tails)

	if s1.InfoSetKey(1) != s2.InfoSetKey(1) {
		t.Errorf("player 1's info-set key should not depend on player 0's move: %q vs %q",
			s1.InfoSetKey(1), s2.InfoSetKey(1))
	}
}

func TestPenniesTerminalAfterTwoMoves(t *testing.T) {
	s := NewGame()
	if s.CurrentPlayer() != cfr.Player {
		t.Fatalf("fresh game should be a Player node, got %v", s.CurrentPlayer())
	}
	s.Act(Heads)
	s.Act(Tails)
	if s.CurrentPlayer() != cfr.Terminal {
		t.Fatalf("after two moves should be Terminal, got %v", s.CurrentPlayer())
	}
}
