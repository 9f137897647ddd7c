package ft

import (
	"testing"
	"time"
)

// recordedItem is a WorkItem that logs its grant and optionally consumes
// the slot immediately.
type recordedItem struct {
	name      string
	consume   bool
	log       *[]string
	destroyed bool
}

func (i *recordedItem) DoWork() bool {
	*i.log = append(*i.log, i.name)
	return i.consume
}

func (i *recordedItem) Destroy() { i.destroyed = true }

func TestSerialWorkGrantsIdlePhyImmediately(t *testing.T) {
	w := NewSerialWork()
	var log []string
	w.Insert(0, 1, &recordedItem{name: "a", consume: true, log: &log})
	if len(log) != 1 || log[0] != "a" {
		t.Fatalf("log = %v, want [a]", log)
	}
}

func TestSerialWorkSerializesPerWiphy(t *testing.T) {
	w := NewSerialWork()
	var log []string
	first := &recordedItem{name: "first", log: &log} // holds the slot
	idFirst := w.Insert(0, 1, first)
	w.Insert(0, 1, &recordedItem{name: "second", consume: true, log: &log})

	if len(log) != 1 {
		t.Fatalf("second item granted while first holds the slot: %v", log)
	}
	w.Done(0, idFirst)
	if len(log) != 2 || log[1] != "second" {
		t.Fatalf("log = %v, want [first second]", log)
	}
}

func TestSerialWorkGrantsByPriority(t *testing.T) {
	w := NewSerialWork()
	var log []string
	holder := &recordedItem{name: "holder", log: &log}
	id := w.Insert(0, 1, holder)
	w.Insert(0, 5, &recordedItem{name: "low", consume: true, log: &log})
	w.Insert(0, 1, &recordedItem{name: "high", consume: true, log: &log})

	w.Done(0, id)
	if len(log) != 3 || log[1] != "high" || log[2] != "low" {
		t.Fatalf("log = %v, want [holder high low]", log)
	}
}

func TestSerialWorkIndependentPhys(t *testing.T) {
	w := NewSerialWork()
	var log []string
	w.Insert(0, 1, &recordedItem{name: "phy0", log: &log})
	w.Insert(1, 1, &recordedItem{name: "phy1", log: &log})
	if len(log) != 2 {
		t.Fatalf("log = %v, want both phys granted", log)
	}
}

func TestSerialWorkDoneByNonHolderIsNoop(t *testing.T) {
	w := NewSerialWork()
	var log []string
	id := w.Insert(0, 1, &recordedItem{name: "holder", log: &log})
	w.Insert(0, 1, &recordedItem{name: "queued", consume: true, log: &log})

	w.Done(0, id+100) // stale handle
	if len(log) != 1 {
		t.Fatalf("stale Done granted the queue: %v", log)
	}
	w.Done(0, id)
	if len(log) != 2 {
		t.Fatalf("log = %v, want queued granted after real Done", log)
	}
}

func TestSerialWorkFlushDestroysQueued(t *testing.T) {
	w := NewSerialWork()
	var log []string
	holder := &recordedItem{name: "holder", log: &log}
	queued := &recordedItem{name: "queued", log: &log}
	id := w.Insert(0, 1, holder)
	w.Insert(0, 1, queued)

	w.Flush(0)
	if !queued.destroyed {
		t.Fatal("queued item not destroyed by Flush")
	}
	if holder.destroyed {
		t.Fatal("granted item destroyed by Flush")
	}
	w.Done(0, id)
	if len(log) != 1 {
		t.Fatalf("log = %v, want only holder", log)
	}
}

func TestTimerOffChannelStartAndEnd(t *testing.T) {
	o := NewTimerOffChannel()
	started := false
	ended := make(chan struct{})
	o.Start(1, 1, 2412, 5*time.Millisecond, func() { started = true }, func() { close(ended) })
	if !started {
		t.Fatal("onStart did not run synchronously")
	}
	select {
	case <-ended:
	case <-time.After(time.Second):
		t.Fatal("onEnd never fired")
	}
}

func TestTimerOffChannelCancelSuppressesEnd(t *testing.T) {
	o := NewTimerOffChannel()
	ended := make(chan struct{}, 1)
	id := o.Start(1, 1, 2412, 20*time.Millisecond, func() {}, func() { ended <- struct{}{} })
	o.Cancel(1, id)
	select {
	case <-ended:
		t.Fatal("onEnd fired after Cancel")
	case <-time.After(60 * time.Millisecond):
	}
	// Cancelling again is a no-op.
	o.Cancel(1, id)
}
