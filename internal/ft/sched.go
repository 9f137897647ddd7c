// This file drives pending attempts onto the air: it owns the collaborator
// interfaces FT consumes (frame transmitter, radio-work scheduler,
// off-channel requests), the three work-item variants those grants
// dispatch to, and the response/timeout race each transmitted request
// arms.
package ft

import (
	"net"
	"sync"
	"time"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// Management frame-type words the transmitter is handed, matching the
// 802.11 frame-control encoding the kernel expects in an outgoing-frame
// command.
const (
	FrameTypeAuth   uint16 = 0x00b0
	FrameTypeAction uint16 = 0x00d0
)

// Transmitter places a built management-frame body on the air toward dest
// at freq. The netlink layer's outgoing-frame command is the production
// implementation.
type Transmitter interface {
	TxFrame(ifindex int, frameType uint16, freq uint32, dest net.HardwareAddr, body []byte) error
}

// WorkItem is one granted unit of radio time. DoWork is called exactly
// once when the scheduler grants the slot; returning true releases the
// slot immediately, returning false leaves it held until the owner calls
// Done. Destroy releases whatever the item holds when the scheduler drops
// it without granting.
type WorkItem interface {
	DoWork() bool
	Destroy()
}

// RadioWork serializes access to a phy: one granted item per wiphy at a
// time. Insert queues item and returns a handle; Done releases the slot
// the item held.
type RadioWork interface {
	Insert(wiphy uint32, priority int, item WorkItem) uint32
	Done(wiphy uint32, id uint32)
}

// OffChannel parks the radio on freq for dwell, invoking onStart once the
// channel is reached and onEnd when the excursion runs out on its own.
// Cancel is idempotent and suppresses both callbacks; implementations must
// not invoke onEnd from inside Cancel.
type OffChannel interface {
	Start(wdevID uint64, priority int, freq uint32, dwell time.Duration, onStart func(), onEnd func()) uint32
	Cancel(wdevID uint64, id uint32)
}

const (
	ftWorkPriority = 1

	// authTimeout bounds the wait for the target's response after the
	// request hits the air; onchannelDwell is how long the on-channel
	// path holds the current channel around the exchange.
	authTimeout    = 200 * time.Millisecond
	onchannelDwell = 300 * time.Millisecond
)

// sched carries the cancellation handles one in-flight attempt holds: its
// response timer, its radio-work slot, and (on the on-channel path) its
// off-channel request.
type sched struct {
	timer      *time.Timer
	workID     uint32
	offchanID  uint32
	hasOffchan bool
}

// Runner owns the transmission side of the FT state machine. The Engine
// tracks what each attempt has proven; the Runner decides when its frames
// go out and what happens if nothing comes back. All entry points and all
// collaborator callbacks serialize on one mutex, so response handling and
// timeout expiry are mutually exclusive: whichever runs first removes the
// attempt and the loser finds it gone.
type Runner struct {
	mu      sync.Mutex
	engine  *Engine
	tx      Transmitter
	work    RadioWork
	offchan OffChannel
	pending map[attemptKey]*sched

	// OnDone, if set, is invoked (outside the Runner's lock) when an
	// attempt leaves the pending set: err is nil on handshake-ready,
	// or carries KindTimeout / KindRejected.
	OnDone func(a *Attempt, err error)

	// Timeout and Dwell default to authTimeout and onchannelDwell;
	// settable before first use.
	Timeout time.Duration
	Dwell   time.Duration
}

// NewRunner wires a Runner over engine and the three collaborators.
func NewRunner(engine *Engine, tx Transmitter, work RadioWork, offchan OffChannel) *Runner {
	return &Runner{
		engine:  engine,
		tx:      tx,
		work:    work,
		offchan: offchan,
		pending: make(map[attemptKey]*sched),
		Timeout: authTimeout,
		Dwell:   onchannelDwell,
	}
}

// Roam queues attempt for transmission, picking the work-item variant its
// flags select: FT Action request for over-DS, a dwelled on-channel
// authentication when Onchannel is set, an off-channel authentication
// otherwise. The attempt must already be registered with the Engine and
// still in its initial state.
func (r *Runner) Roam(a *Attempt) error {
	const op = "ft.Runner.Roam"

	r.mu.Lock()
	if a.State != StateInit {
		r.mu.Unlock()
		return wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	k := key(a.Ifindex, a.AA)
	if _, ok := r.pending[k]; ok {
		r.mu.Unlock()
		return wsderr.New(wsderr.KindAlreadyPresent, op, nil)
	}

	var item WorkItem
	switch {
	case a.OverDS:
		item = &actionWork{r: r, a: a}
	case a.Onchannel:
		item = &authOnChannelWork{r: r, a: a}
	default:
		item = &authOffChannelWork{r: r, a: a}
	}

	s := &sched{}
	r.pending[k] = s
	r.mu.Unlock()

	// Insert outside the lock: a free phy grants the slot synchronously,
	// re-entering through DoWork.
	id := r.work.Insert(a.Wiphy, ftWorkPriority, item)
	r.mu.Lock()
	if cur, ok := r.pending[k]; ok && cur == s {
		s.workID = id
	}
	r.mu.Unlock()
	return nil
}

// authOffChannelWork transmits the authentication request at the target's
// frequency; the kernel's frame command handles the channel excursion, so
// the slot is held only for the response window.
type authOffChannelWork struct {
	r *Runner
	a *Attempt
}

func (w *authOffChannelWork) DoWork() bool {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()
	w.r.sendAuthLocked(w.a, w.a.TargetFreq)
	return false
}

func (w *authOffChannelWork) Destroy() { w.r.dropAttempt(w.a) }

// authOnChannelWork requests a dwell on the target's channel around the
// exchange, transmitting once the channel is held. The off-channel
// request ending before a response counts as a timeout.
type authOnChannelWork struct {
	r *Runner
	a *Attempt
}

func (w *authOnChannelWork) DoWork() bool {
	r, a := w.r, w.a
	k := key(a.Ifindex, a.AA)

	r.mu.Lock()
	s, ok := r.pending[k]
	if !ok {
		r.mu.Unlock()
		return true
	}
	s.hasOffchan = true
	r.mu.Unlock()

	// Start outside the lock; onStart may run synchronously.
	id := r.offchan.Start(a.WdevID, ftWorkPriority, a.TargetFreq, r.Dwell,
		func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.sendAuthLocked(a, a.TargetFreq)
		},
		func() {
			r.expire(a)
		})

	r.mu.Lock()
	if cur, ok := r.pending[k]; ok && cur == s {
		s.offchanID = id
	}
	r.mu.Unlock()
	return false
}

func (w *authOnChannelWork) Destroy() { w.r.dropAttempt(w.a) }

// actionWork transmits the FT Action request on the current operating
// channel; no excursion is needed for over-DS.
type actionWork struct {
	r *Runner
	a *Attempt
}

func (w *actionWork) DoWork() bool {
	r, a := w.r, w.a
	r.mu.Lock()
	defer r.mu.Unlock()

	ies, err := r.engine.BuildAuthRequest(a)
	if err != nil {
		r.failLocked(a, err)
		return true
	}
	body := append([]byte{ActionCategoryFT, ActionFTRequest},
		BuildOverDSFrame(OverDSFrame{SPA: a.SPA, AA: a.AA, IEs: ies})...)
	if err := r.tx.TxFrame(a.Ifindex, FrameTypeAction, a.DSFreq, a.PrevBSSID, body); err != nil {
		r.failLocked(a, err)
		return true
	}
	r.armTimeoutLocked(a)
	return false
}

func (w *actionWork) Destroy() { w.r.dropAttempt(w.a) }

// sendAuthLocked renders and transmits the authentication request and arms
// the response timeout; any build or transmit failure fails the attempt in
// place.
func (r *Runner) sendAuthLocked(a *Attempt, freq uint32) {
	ies, err := r.engine.BuildAuthRequest(a)
	if err != nil {
		r.failLocked(a, err)
		return
	}
	if err := r.tx.TxFrame(a.Ifindex, FrameTypeAuth, freq, a.AA, ies); err != nil {
		r.failLocked(a, err)
		return
	}
	r.armTimeoutLocked(a)
}

func (r *Runner) armTimeoutLocked(a *Attempt) {
	s, ok := r.pending[key(a.Ifindex, a.AA)]
	if !ok {
		return
	}
	s.timer = time.AfterFunc(r.Timeout, func() { r.expire(a) })
}

// expire is the timeout edge: if the attempt is still waiting for its
// response, it becomes StateTimeout and leaves the pending set. A response
// that won the race has already removed it, making this a no-op.
func (r *Runner) expire(a *Attempt) {
	r.mu.Lock()
	s, ok := r.pending[key(a.Ifindex, a.AA)]
	// StateInit covers a dwell that ran out before the channel was ever
	// reached; anything past SentAuthReq means the response won the race.
	if !ok || (a.State != StateSentAuthReq && a.State != StateInit) {
		r.mu.Unlock()
		return
	}
	a.State = StateTimeout
	r.releaseLocked(a, s)
	r.mu.Unlock()

	if r.OnDone != nil {
		r.OnDone(a, wsderr.New(wsderr.KindTimeout, "ft.Runner", nil))
	}
}

// failLocked marks a rejected/errored and releases its scheduling state.
// Callers hold the lock, so the OnDone notification is deferred to its own
// goroutine rather than invoked inline.
func (r *Runner) failLocked(a *Attempt, err error) {
	a.State = StateRejected
	if s, ok := r.pending[key(a.Ifindex, a.AA)]; ok {
		r.releaseLocked(a, s)
	}
	if r.OnDone != nil {
		go r.OnDone(a, err)
	}
}

// releaseLocked tears down one attempt's scheduling state: timer stopped,
// off-channel cancelled, work slot released, attempt removed from both
// the pending map and the engine.
func (r *Runner) releaseLocked(a *Attempt, s *sched) {
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.hasOffchan {
		r.offchan.Cancel(a.WdevID, s.offchanID)
	}
	// workID is zero while Insert has not yet returned; a failure inside
	// the grant itself consumes the slot instead.
	if s.workID != 0 {
		r.work.Done(a.Wiphy, s.workID)
	}
	delete(r.pending, key(a.Ifindex, a.AA))
	r.engine.Remove(a.Ifindex, a.AA)
}

// dropAttempt is the Destroy path: the scheduler dropped the item without
// granting it, so the attempt just goes away.
func (r *Runner) dropAttempt(a *Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.pending[key(a.Ifindex, a.AA)]; ok {
		r.releaseLocked(a, s)
	}
}

// HandleAuthResponse processes an FT authentication (or over-DS action)
// response for (ifindex, aa): status is the frame's status code, ies the
// IE run after the fixed fields. A non-zero status rejects the attempt
// with that code. On success the response is validated against the
// attempt, the PMK-R1 name for the announced R1KH is computed, and the
// attempt parks in StateGotAuthResp awaiting the association exchange.
func (r *Runner) HandleAuthResponse(ifindex int, aa net.HardwareAddr, status uint16, ies []byte) error {
	const op = "ft.Runner.HandleAuthResponse"

	r.mu.Lock()
	a, err := r.engine.Lookup(ifindex, aa)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	s, ok := r.pending[key(ifindex, aa)]
	if !ok || a.State != StateSentAuthReq {
		r.mu.Unlock()
		return wsderr.New(wsderr.KindNotFound, op, nil)
	}
	if s.timer != nil {
		s.timer.Stop()
	}

	if status != 0 {
		a.Status = status
		a.State = StateRejected
		r.releaseLocked(a, s)
		r.mu.Unlock()
		err := wsderr.Rejected(op, status)
		if r.OnDone != nil {
			r.OnDone(a, err)
		}
		return err
	}

	if _, err := r.engine.ValidateAuthResponse(a, ies); err != nil {
		r.releaseLocked(a, s)
		r.mu.Unlock()
		if r.OnDone != nil {
			r.OnDone(a, err)
		}
		return err
	}
	if a.RSNE != nil {
		name, err := PMKR1Name(a.MICLen, a.PMKR0Name, net.HardwareAddr(a.R1KH), a.SPA)
		if err != nil {
			a.State = StateRejected
			r.releaseLocked(a, s)
			r.mu.Unlock()
			if r.OnDone != nil {
				r.OnDone(a, err)
			}
			return err
		}
		a.PMKR1Name = name
	}
	r.mu.Unlock()
	return nil
}

// HandleActionFrame demultiplexes an incoming FT action frame body
// (starting at the category byte) to HandleAuthResponse, checking that the
// response names this station.
func (r *Runner) HandleActionFrame(ifindex int, spa net.HardwareAddr, body []byte) error {
	const op = "ft.Runner.HandleActionFrame"
	if len(body) < 2 || body[0] != ActionCategoryFT || body[1] != ActionFTResponse {
		return wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	f, err := ParseOverDSFrame(body[2:])
	if err != nil {
		return err
	}
	if string(f.SPA) != string(spa) {
		return wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	return r.HandleAuthResponse(ifindex, f.AA, f.Status, f.IEs)
}

// FinishAssoc validates the (re)association response for (ifindex, aa) and
// removes the attempt on success: the transition is complete and the
// handshake owns the keys from here.
func (r *Runner) FinishAssoc(ifindex int, aa net.HardwareAddr, ies []byte) (*FTE, error) {
	r.mu.Lock()
	a, err := r.engine.Lookup(ifindex, aa)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	fte, err := r.engine.ValidateAssocResponse(a, ies)
	s := r.pending[key(ifindex, aa)]
	if err != nil {
		if s != nil {
			r.releaseLocked(a, s)
		}
		r.mu.Unlock()
		if r.OnDone != nil {
			r.OnDone(a, err)
		}
		return nil, err
	}
	a.State = StateDone
	if s != nil {
		r.releaseLocked(a, s)
	} else {
		r.engine.Remove(ifindex, aa)
	}
	r.mu.Unlock()
	if r.OnDone != nil {
		r.OnDone(a, nil)
	}
	return fte, nil
}

// ClearAuthentications cancels every pending attempt on ifindex: timers
// stopped, off-channel requests cancelled, work slots released, attempts
// removed. Calling it with nothing pending is a no-op.
func (r *Runner) ClearAuthentications(ifindex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.pending {
		if k.ifindex != ifindex {
			continue
		}
		if a, err := r.engine.Lookup(k.ifindex, net.HardwareAddr(k.aa)); err == nil {
			r.releaseLocked(a, s)
		} else {
			delete(r.pending, k)
		}
	}
}
