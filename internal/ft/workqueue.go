// This file carries the in-process implementations of the Runner's
// scheduling collaborators: a serial per-phy work queue and a timer-backed
// off-channel dwell for drivers whose frame command handles channel
// residency itself.
package ft

import (
	"sort"
	"sync"
	"time"
)

// queuedItem is one inserted work item awaiting its grant.
type queuedItem struct {
	id       uint32
	priority int
	seq      uint64
	item     WorkItem
}

// SerialWork grants one work item per wiphy at a time: an insert onto an
// idle phy is granted synchronously (re-entering the item's DoWork before
// Insert returns), anything else queues by priority then insertion order.
// DoWork is called exactly once per insert; Done releases the slot and
// grants the next queued item.
type SerialWork struct {
	mu     sync.Mutex
	nextID uint32
	seq    uint64
	// busy holds the granted-but-unreleased item id per wiphy; a phy
	// absent from the map is idle.
	busy   map[uint32]uint32
	queues map[uint32][]queuedItem
}

// NewSerialWork returns an empty scheduler.
func NewSerialWork() *SerialWork {
	return &SerialWork{
		busy:   make(map[uint32]uint32),
		queues: make(map[uint32][]queuedItem),
	}
}

// Insert queues item on wiphy and returns its handle, granting immediately
// when the phy is idle.
func (w *SerialWork) Insert(wiphy uint32, priority int, item WorkItem) uint32 {
	w.mu.Lock()
	w.nextID++
	w.seq++
	q := queuedItem{id: w.nextID, priority: priority, seq: w.seq, item: item}

	if _, taken := w.busy[wiphy]; taken {
		items := append(w.queues[wiphy], q)
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].priority != items[j].priority {
				return items[i].priority < items[j].priority
			}
			return items[i].seq < items[j].seq
		})
		w.queues[wiphy] = items
		w.mu.Unlock()
		return q.id
	}

	w.busy[wiphy] = q.id
	w.mu.Unlock()

	if q.item.DoWork() {
		w.release(wiphy, q.id)
	}
	return q.id
}

// Done releases the slot id holds on wiphy and grants the next queued
// item. Releasing an id that is not the current holder is a no-op, so the
// owner and a consumed DoWork return cannot double-grant.
func (w *SerialWork) Done(wiphy uint32, id uint32) {
	w.release(wiphy, id)
}

func (w *SerialWork) release(wiphy uint32, id uint32) {
	for {
		w.mu.Lock()
		cur, taken := w.busy[wiphy]
		if !taken || cur != id {
			w.mu.Unlock()
			return
		}
		queue := w.queues[wiphy]
		if len(queue) == 0 {
			delete(w.busy, wiphy)
			w.mu.Unlock()
			return
		}
		next := queue[0]
		w.queues[wiphy] = queue[1:]
		w.busy[wiphy] = next.id
		w.mu.Unlock()

		if !next.item.DoWork() {
			return
		}
		id = next.id
	}
}

// Flush drops every queued (ungranted) item on wiphy, invoking Destroy on
// each; the currently granted item, if any, keeps its slot.
func (w *SerialWork) Flush(wiphy uint32) {
	w.mu.Lock()
	dropped := w.queues[wiphy]
	delete(w.queues, wiphy)
	w.mu.Unlock()

	for _, q := range dropped {
		q.item.Destroy()
	}
}

// TimerOffChannel satisfies the off-channel contract for drivers whose
// outgoing-frame command tunes to the requested frequency itself: onStart
// runs immediately and onEnd fires when the dwell elapses, unless the
// request is cancelled first.
type TimerOffChannel struct {
	mu     sync.Mutex
	nextID uint32
	timers map[uint32]*time.Timer
}

// NewTimerOffChannel returns an off-channel dweller with no outstanding
// requests.
func NewTimerOffChannel() *TimerOffChannel {
	return &TimerOffChannel{timers: make(map[uint32]*time.Timer)}
}

// Start begins a dwell: onStart synchronously, onEnd after dwell.
func (o *TimerOffChannel) Start(wdevID uint64, priority int, freq uint32, dwell time.Duration, onStart func(), onEnd func()) uint32 {
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.mu.Unlock()

	onStart()

	o.mu.Lock()
	o.timers[id] = time.AfterFunc(dwell, func() {
		o.mu.Lock()
		_, live := o.timers[id]
		delete(o.timers, id)
		o.mu.Unlock()
		if live && onEnd != nil {
			onEnd()
		}
	})
	o.mu.Unlock()
	return id
}

// Cancel stops a dwell's end callback; cancelling an unknown or finished
// id is a no-op.
func (o *TimerOffChannel) Cancel(wdevID uint64, id uint32) {
	o.mu.Lock()
	t, ok := o.timers[id]
	delete(o.timers, id)
	o.mu.Unlock()
	if ok {
		t.Stop()
	}
}
