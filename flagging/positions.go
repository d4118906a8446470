package flagging

// PositionSet is a set of stream positions in [0, size). Adding positions
// outside that span is a no-op, which is how out-of-stream window edges are
// dropped.
type PositionSet struct {
	members []bool
	count   int
}

func NewPositionSet(size int) *PositionSet {
	if size < 0 {
		size = 0
	}
	return &PositionSet{members: make([]bool, size)}
}

func (s *PositionSet) Add(position int) {
	if position < 0 || position >= len(s.members) || s.members[position] {
		return
	}
	s.members[position] = true
	s.count++
}

// AddRange adds every position of r that exists in the set's span.
func (s *PositionSet) AddRange(r Range) {
	lo := max(r.Lo, 0)
	hi := min(r.Hi, len(s.members)-1)
	for p := lo; p <= hi; p++ {
		if !s.members[p] {
			s.members[p] = true
			s.count++
		}
	}
}

func (s *PositionSet) Contains(position int) bool {
	if s == nil || position < 0 || position >= len(s.members) {
		return false
	}
	return s.members[position]
}

func (s *PositionSet) Len() int {
	if s == nil {
		return 0
	}
	return s.count
}

func (s *PositionSet) IsEmpty() bool {
	return s.Len() == 0
}

// Positions returns the members in ascending order.
func (s *PositionSet) Positions() []int {
	if s == nil {
		return nil
	}

	positions := make([]int, 0, s.count)
	for p, ok := range s.members {
		if ok {
			positions = append(positions, p)
		}
	}
	return positions
}
