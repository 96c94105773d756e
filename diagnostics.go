package cfr

// CountNodes walks every reachable node of game's full tree from its
// current state and returns the total count, including game itself and
// every Terminal leaf. Intended for test fixtures small enough to enumerate
// exhaustively; it explores every Chance outcome and every Player action,
// ignoring any sampling Params the engine might otherwise apply.
//
// Grounded on the teacher's tree_helpers.go, generalized from its
// pre-built-children GameTreeNode to the action-enumerating Game contract:
// counting now requires Clone+Act per action rather than indexing into
// already-materialized children.
func CountNodes[A comparable](game Game[A]) int {
	if game.CurrentPlayer() == Terminal {
		return 1
	}

	total := 1
	for _, a := range game.Actions() {
		child := game.Clone()
		child.Act(a)
		total += CountNodes[A](child)
	}
	return total
}

// CountTerminalNodes returns the number of Terminal leaves reachable from
// game's current state.
func CountTerminalNodes[A comparable](game Game[A]) int {
	if game.CurrentPlayer() == Terminal {
		return 1
	}

	total := 0
	for _, a := range game.Actions() {
		child := game.Clone()
		child.Act(a)
		total += CountTerminalNodes[A](child)
	}
	return total
}

// CountInfoSets returns the number of distinct info-set keys reachable from
// game's current state, across every player.
func CountInfoSets[A comparable](game Game[A]) int {
	seen := make(map[string]struct{})
	walkInfoSets[A](game, seen)
	return len(seen)
}

func walkInfoSets[A comparable](game Game[A], seen map[string]struct{}) {
	if game.CurrentPlayer() == Player {
		seen[game.InfoSetKey(game.Player())] = struct{}{}
	}

	if game.CurrentPlayer() == Terminal {
		return
	}

	for _, a := range game.Actions() {
		child := game.Clone()
		child.Act(a)
		walkInfoSets[A](child, seen)
	}
}
