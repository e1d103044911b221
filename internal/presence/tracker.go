package presence

import (
	"sort"
	"sync"
	"time"
)

type Member struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
}

type entry struct {
	member        Member
	lastHeartbeat time.Time
}

// Tracker keeps the set of currently-active collaborators per trip room.
// Membership is approximate: an entry exists only while heartbeats keep
// arriving, and departure is inferred from heartbeat silence. Stale entries
// are removed by the periodic sweep, not lazily on read.
type Tracker struct {
	ttl   time.Duration
	sweep time.Duration

	mu    sync.Mutex
	rooms map[string]map[string]entry

	stopOnce sync.Once
	stopCh   chan struct{}

	now func() time.Time
}

func NewTracker(ttl, sweepInterval time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if sweepInterval <= 0 {
		sweepInterval = 4 * time.Second
	}
	return &Tracker{
		ttl:    ttl,
		sweep:  sweepInterval,
		rooms:  map[string]map[string]entry{},
		stopCh: make(chan struct{}),
		now:    time.Now,
	}
}

// Heartbeat registers or refreshes a member in a trip room. Join and
// heartbeat are the same operation; repeated calls refresh the timestamp
// and never duplicate the entry.
func (t *Tracker) Heartbeat(tripID string, member Member) {
	if tripID == "" || member.UserID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.rooms[tripID]
	if room == nil {
		room = map[string]entry{}
		t.rooms[tripID] = room
	}
	room[member.UserID] = entry{member: member, lastHeartbeat: t.now()}
}

// Snapshot returns the members currently considered present in a room,
// sorted by user id. Entries past the TTL are excluded even if the sweep
// has not caught up with them yet.
func (t *Tracker) Snapshot(tripID string) []Member {
	cutoff := t.now().Add(-t.ttl)

	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.rooms[tripID]
	members := make([]Member, 0, len(room))
	for _, e := range room {
		if e.lastHeartbeat.Before(cutoff) {
			continue
		}
		members = append(members, e.member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members
}

// Sweep removes entries whose last heartbeat is older than the TTL and
// drops rooms that end up empty. Returns the number of entries removed.
func (t *Tracker) Sweep() int {
	cutoff := t.now().Add(-t.ttl)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for tripID, room := range t.rooms {
		for userID, e := range room {
			if e.lastHeartbeat.Before(cutoff) {
				delete(room, userID)
				removed++
			}
		}
		if len(room) == 0 {
			delete(t.rooms, tripID)
		}
	}
	return removed
}

// Run sweeps on the configured interval until Stop is called.
func (t *Tracker) Run() {
	ticker := time.NewTicker(t.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.Sweep()
		case <-t.stopCh:
			return
		}
	}
}

func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}
