package plato

// Session is the protocol-level state shared by the host-word path and
// the keyset path: the ring buffer, the current graphics mode, the
// erase-abort counter, and any deferred echo reply. It has no knowledge
// of sockets, SPI, or audio -- see session.Session in internal/session
// for the aggregate that owns those alongside this one.
type Session struct {
	Ring Ring

	mode            GraphicsMode
	eraseAbortCount int
	pendingEcho     int32 // -1 means no reply pending
	Keyset          KeysetDecoder
}

// NewSession returns a Session ready for use.
func NewSession() *Session {
	return &Session{pendingEcho: -1}
}

// Mode returns the current tracked graphics mode.
func (s *Session) Mode() GraphicsMode { return s.mode }

// EraseAbortCount returns the number of screen-erase LDM words currently
// queued.
func (s *Session) EraseAbortCount() int { return s.eraseAbortCount }

// PendingEcho reports whether an echo reply is deferred, and its value.
func (s *Session) PendingEcho() (code uint16, pending bool) {
	if s.pendingEcho < 0 {
		return 0, false
	}
	return uint16(s.pendingEcho), true
}

// Enqueue adds a host word to the ring, tracking the erase-abort counter.
// ok is false if the ring was full and the word was dropped; a dropped
// screen-erase does not bump the counter, so the counter always equals
// the number of erase words actually queued.
func (s *Session) Enqueue(w Word) (ok bool) {
	if !s.Ring.Enqueue(w) {
		return false
	}
	if IsScreenClear(w) {
		s.eraseAbortCount++
	}
	return true
}

// dequeueRaw pulls words from the ring, discarding abortable ones while
// an erase-abort is in progress, until either a non-abortable word is
// found or the matching screen-erase LDM itself is dequeued (which
// always ends the discard regardless of its own abortability -- LDM is
// never abortable, so it is also always the word returned to the
// caller).
func (s *Session) dequeueRaw() Word {
	for {
		w := s.Ring.Dequeue()
		if s.eraseAbortCount == 0 {
			return w
		}
		if IsScreenClear(w) {
			s.eraseAbortCount--
		}
		if !IsAbortable(s.mode, w) {
			return w
		}
	}
}

// FlowEdge reports an XON or XOFF key that should be sent to the host
// because the ring depth just crossed one of its flow-control
// thresholds.
type FlowEdge int

const (
	FlowNone FlowEdge = iota
	FlowXON
	FlowXOFF
)

// DequeueResult carries everything a single Dequeue step produced: the
// word to transmit (NOPWord in place of any Load-Echo command this step
// resolved), any flow-control key to send, and any echo-reply key to
// send.
type DequeueResult struct {
	Word    Word
	HasWord bool // false only when the ring was empty
	Flow    FlowEdge
	EchoKey uint16
	HasEcho bool
}

// Dequeue pops the next unaborted word (if any), tracks the graphics
// mode, resolves Load-Echo commands into a deferred or immediate reply,
// and reports any XON edge. Callers combine this with the GSW
// interceptor (internal/gsw) before transmitting the returned word.
func (s *Session) Dequeue() DequeueResult {
	if s.Ring.Empty() {
		return DequeueResult{Word: NOPWord, HasWord: false}
	}

	w := s.dequeueRaw()
	s.mode = TrackMode(s.mode, w)

	result := DequeueResult{HasWord: true}
	word, echoKey, hasEcho := s.handleEcho(w)
	result.Word = word
	if hasEcho {
		result.EchoKey = echoKey
		result.HasEcho = true
	}

	count := s.Ring.Count()
	if !hasEcho {
		if code, pending := s.PendingEcho(); pending && count < XOFF1Limit {
			result.EchoKey = code
			result.HasEcho = true
			s.pendingEcho = -1
		}
	}
	if count == XON1Limit || count == XON2Limit {
		result.Flow = FlowXON
	}

	return result
}

// handleEcho resolves a Load-Echo command, which carries a 7-bit code in
// the low bits of its data field. If the ring is short it replies
// immediately; otherwise the reply is deferred in pendingEcho. Either
// way the LDE itself never reaches the terminal -- a NOP goes out in
// its place.
func (s *Session) handleEcho(w Word) (outWord Word, echoKey uint16, hasEcho bool) {
	if w.IsData() {
		return w, 0, false
	}
	if w.Opcode() != LDE {
		return w, 0, false
	}

	data := w.Data()
	code := uint16((data & 0x7F) | 0x80)

	if s.Ring.Count() > XOFF1Limit {
		s.pendingEcho = int32(code)
		return NOPWord, 0, false
	}
	s.pendingEcho = -1
	return NOPWord, code, true
}

// CheckEnqueueFlow reports the XOFF edge (if any) produced by the ring
// depth immediately after an Enqueue. Called separately from Enqueue so
// a caller can log the overflow/drop case distinctly from the edge
// check.
func (s *Session) CheckEnqueueFlow() FlowEdge {
	count := s.Ring.Count()
	if count == XOFF1Limit || count == XOFF2Limit {
		return FlowXOFF
	}
	return FlowNone
}

// Stop implements the terminal-initiated STOP/STOP1 abort: discard all
// pending output and clear the erase-abort counter. Any deferred echo
// reply is also discarded, since the LDE it was replying to is gone.
func (s *Session) Stop() {
	s.Ring.DiscardAll()
	s.eraseAbortCount = 0
	s.pendingEcho = -1
}
