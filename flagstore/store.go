package flagstore

import (
	"sort"
	"strings"
	"sync"

	"github.com/timgluz/soilflag/reading"
)

// Flag is the quality label assigned to one reading.
type Flag string

// FlagGood is the pass label; every other label marks the reading as flagged.
const FlagGood Flag = "G"

func (f Flag) IsGood() bool {
	return f == FlagGood
}

// ParseFlag normalizes a stored label. Older flag files hold labels as set
// literals such as "{'G'}" or "{'C01', 'D06'}"; these become "G" and "C01,D06".
func ParseFlag(raw string) Flag {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
		parts := strings.Split(s, ",")
		labels := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.Trim(strings.TrimSpace(p), `'"`)
			if p != "" {
				labels = append(labels, p)
			}
		}
		s = strings.Join(labels, ",")
	}
	return Flag(s)
}

// Decision is a newly decided flag for one reading.
type Decision struct {
	UID  reading.UID `json:"uid"`
	Flag Flag        `json:"qflag"`
}

// UIDSet is a set of reading identities.
type UIDSet map[reading.UID]struct{}

func (s UIDSet) Has(uid reading.UID) bool {
	_, ok := s[uid]
	return ok
}

// Store maps reading identities to their most recent flag.
// It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	flags map[reading.UID]Flag
}

func NewStore() *Store {
	return &Store{flags: make(map[reading.UID]Flag)}
}

// NewStoreFromDecisions builds a store by merging decisions in order.
func NewStoreFromDecisions(decisions []Decision) *Store {
	s := NewStore()
	s.Merge(decisions)
	return s
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flags)
}

func (s *Store) Get(uid reading.UID) (Flag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flag, ok := s.flags[uid]
	return flag, ok
}

// Merge applies decisions with last-write-wins: a decision replaces any flag
// already stored for its uid, and within one call the last occurrence of a
// uid wins. It returns how many of the decisions replaced an existing entry.
func (s *Store) Merge(decisions []Decision) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := 0
	for _, d := range decisions {
		if _, ok := s.flags[d.UID]; ok {
			replaced++
		}
		s.flags[d.UID] = d.Flag
	}
	return replaced
}

// UIDs returns a snapshot of the identities currently in the store.
func (s *Store) UIDs() UIDSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uids := make(UIDSet, len(s.flags))
	for uid := range s.flags {
		uids[uid] = struct{}{}
	}
	return uids
}

// Decisions returns all entries ordered by uid.
func (s *Store) Decisions() []Decision {
	s.mu.RLock()
	decisions := make([]Decision, 0, len(s.flags))
	for uid, flag := range s.flags {
		decisions = append(decisions, Decision{UID: uid, Flag: flag})
	}
	s.mu.RUnlock()

	sort.Slice(decisions, func(i, j int) bool {
		return decisions[i].UID < decisions[j].UID
	})
	return decisions
}

// Page returns entries ordered by uid starting at offset, plus the total count.
func (s *Store) Page(offset, limit int) ([]Decision, int) {
	all := s.Decisions()
	total := len(all)

	if offset < 0 || offset >= total {
		return []Decision{}, total
	}
	if limit <= 0 || offset+limit > total {
		limit = total - offset
	}

	return all[offset : offset+limit], total
}
