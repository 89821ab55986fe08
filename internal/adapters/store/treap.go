package store

import "math/rand/v2"

// Treap-backed sorted set.
//
// Ordering: score ASC, then member ASC (byte-wise), which is what Redis does.
// Every node carries its subtree size so rank and select run in O(log n)
// expected time.

type node struct {
	member string
	score  float64
	prio   uint64
	left   *node
	right  *node
	size   int64
}

func nsize(n *node) int64 {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aMember) sorts before (bScore, bMember).
func less(aScore float64, aMember string, bScore float64, bMember string) bool {
	if aScore != bScore {
		return aScore < bScore
	}
	return aMember < bMember
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, member string, score float64) *node {
	if n == nil {
		return &node{member: member, score: score, prio: rand.Uint64(), size: 1}
	}
	if less(score, member, n.score, n.member) {
		n.left = insert(n.left, member, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, member, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, member string, score float64) *node {
	if n == nil {
		return nil
	}
	if score == n.score && member == n.member {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, member, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, member, score)
		}
	} else if less(score, member, n.score, n.member) {
		n.left = deleteNode(n.left, member, score)
	} else {
		n.right = deleteNode(n.right, member, score)
	}
	fix(n)
	return n
}

// rankOf returns the 0-based ascending position of (member, score).
func rankOf(n *node, member string, score float64) int64 {
	var r int64
	for n != nil {
		switch {
		case n.member == member && n.score == score:
			return r + nsize(n.left)
		case less(score, member, n.score, n.member):
			n = n.left
		default:
			r += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

// countBelow counts nodes whose score is < x, or <= x when inclusive.
func countBelow(n *node, x float64, inclusive bool) int64 {
	var c int64
	for n != nil {
		if n.score < x || (inclusive && n.score == x) {
			c += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return c
}

// collectRange appends nodes with ascending index in [start, stop].
// offset is the index of the leftmost node of n.
func collectRange(n *node, offset, start, stop int64, out *[]ScoredMember) {
	if n == nil {
		return
	}
	idx := offset + nsize(n.left)
	if start < idx {
		collectRange(n.left, offset, start, stop, out)
	}
	if idx >= start && idx <= stop {
		*out = append(*out, ScoredMember{Member: n.member, Score: n.score})
	}
	if stop > idx {
		collectRange(n.right, idx+1, start, stop, out)
	}
}

// zset is one sorted set: the treap plus a member index.
type zset struct {
	root     *node
	byMember map[string]float64
}

func newZSet() *zset {
	return &zset{byMember: make(map[string]float64)}
}

func (z *zset) card() int64 { return int64(len(z.byMember)) }

// add sets member's score and reports whether the member is new.
func (z *zset) add(member string, score float64) bool {
	old, exists := z.byMember[member]
	if exists {
		if old == score {
			return false
		}
		z.root = deleteNode(z.root, member, old)
	}
	z.byMember[member] = score
	z.root = insert(z.root, member, score)
	return !exists
}

func (z *zset) remove(member string) bool {
	old, exists := z.byMember[member]
	if !exists {
		return false
	}
	delete(z.byMember, member)
	z.root = deleteNode(z.root, member, old)
	return true
}

func (z *zset) rank(member string) (int64, bool) {
	score, ok := z.byMember[member]
	if !ok {
		return -1, false
	}
	return rankOf(z.root, member, score), true
}

// rangeAsc returns members with ascending index in [start, stop] after
// Redis-style normalization of negative indexes.
func (z *zset) rangeAsc(start, stop int64) []ScoredMember {
	start, stop, ok := normalizeRange(start, stop, z.card())
	if !ok {
		return []ScoredMember{}
	}
	out := make([]ScoredMember, 0, stop-start+1)
	collectRange(z.root, 0, start, stop, &out)
	return out
}

// rangeDesc is rangeAsc over the reversed order.
func (z *zset) rangeDesc(start, stop int64) []ScoredMember {
	card := z.card()
	start, stop, ok := normalizeRange(start, stop, card)
	if !ok {
		return []ScoredMember{}
	}
	out := make([]ScoredMember, 0, stop-start+1)
	collectRange(z.root, 0, card-1-stop, card-1-start, &out)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// scoreSpan returns the ascending index window holding scores in [min, max].
func (z *zset) scoreSpan(min, max float64) (int64, int64) {
	return countBelow(z.root, min, false), countBelow(z.root, max, true) - 1
}

func (z *zset) count(min, max float64) int64 {
	lo, hi := z.scoreSpan(min, max)
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

func (z *zset) removeMembers(ms []ScoredMember) int64 {
	var n int64
	for _, m := range ms {
		if z.remove(m.Member) {
			n++
		}
	}
	return n
}

// normalizeRange applies ZRANGE index semantics: negative indexes count from
// the end, out-of-range bounds are clamped, empty windows report false.
func normalizeRange(start, stop, card int64) (int64, int64, bool) {
	if start < 0 {
		start += card
	}
	if stop < 0 {
		stop += card
	}
	if start < 0 {
		start = 0
	}
	if start > stop || start >= card {
		return 0, 0, false
	}
	if stop >= card {
		stop = card - 1
	}
	return start, stop, true
}
