package session

import (
	"log"
	"sort"
	"sync"
)

// StreamDelta is the local, transport-agnostic shape of one instruction
// the reconciler hands downstream to the materializer. eventbus.HubEmitter
// adapts it into an eventbus.Message for transmission.
type StreamDelta struct {
	API        string // "add_stream" | "remove_stream" | "set_quality"
	Meeting    MeetingKey
	SIP        string
	SPort      int
	SSRC       uint32
	SSRCRtx    uint32
	DIP        string
	DPort      int
	EgressPort int
	Quality    Quality
}

// Emitter receives reconciler deltas in emission order. Implementations
// must not block the reconciler's single mutation goroutine for long;
// the eventbus Hub queues internally.
type Emitter interface {
	Emit(StreamDelta)
}

// PortResolver maps a port name (e.g. "veth4") to a device egress port.
type PortResolver interface {
	EgressPort(portName string) (int, error)
}

// Reconciler owns the four session maps and derives the receive-stream
// set on every topology mutation. All exported methods are safe for
// concurrent use; mutation is serialized internally to keep recompose
// atomic from the caller's perspective, matching spec's single event
// loop model.
type Reconciler struct {
	mu       sync.Mutex
	ports    PortResolver
	emit     Emitter
	meetings map[MeetingKey]*Meeting
	parts    map[ParticipantKey]*Participant
	snd      map[SendStreamKey]*SendStream
	rcv      map[ReceiveStreamKey]*ReceiveStream
}

// New builds an empty Reconciler. ports resolves a send-stream's
// port-name hint to a device egress port; emit receives every delta
// recompose produces, in order.
func New(ports PortResolver, emit Emitter) *Reconciler {
	return &Reconciler{
		ports:    ports,
		emit:     emit,
		meetings: make(map[MeetingKey]*Meeting),
		parts:    make(map[ParticipantKey]*Participant),
		snd:      make(map[SendStreamKey]*SendStream),
		rcv:      make(map[ReceiveStreamKey]*ReceiveStream),
	}
}

// AddStream implicitly creates the meeting and participant if new, then
// inserts the send stream and recomposes. Returns changed=false if the
// stream already existed with this key (idempotent no-op, logged).
func (r *Reconciler) AddStream(meeting MeetingKey, sip string, sport int, ssrc, ssrcRtx uint32, portName string, media MediaType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := SendStreamKey{Meeting: meeting, SIP: sip, SPort: sport, SSRC: ssrc}
	if _, exists := r.snd[key]; exists {
		log.Printf("[session] duplicate add_stream for %+v ignored", key)
		return false, nil
	}

	if _, ok := r.meetings[meeting]; !ok {
		r.meetings[meeting] = &Meeting{ID: meeting}
	}

	pkey := ParticipantKey{Meeting: meeting, IP: sip, Port: sport}
	if _, ok := r.parts[pkey]; !ok {
		eport, err := r.ports.EgressPort(portName)
		if err != nil {
			return false, err
		}
		r.parts[pkey] = &Participant{Key: pkey, EgressPort: eport}
	}

	r.snd[key] = &SendStream{Key: key, SSRCRtx: ssrcRtx, MediaType: media}
	r.recompose(meeting)
	return true, nil
}

// RemoveStream removes a send stream, reclaiming the participant and
// meeting if they have no remaining references, and recomposes.
func (r *Reconciler) RemoveStream(meeting MeetingKey, sip string, sport int, ssrc uint32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := SendStreamKey{Meeting: meeting, SIP: sip, SPort: sport, SSRC: ssrc}
	if _, ok := r.snd[key]; !ok {
		log.Printf("[session] remove_stream for absent %+v ignored", key)
		return false, nil
	}
	delete(r.snd, key)

	participantActive := false
	for k := range r.snd {
		if k.Meeting == meeting && k.SIP == sip && k.SPort == sport {
			participantActive = true
			break
		}
	}
	if !participantActive {
		delete(r.parts, ParticipantKey{Meeting: meeting, IP: sip, Port: sport})
	}

	meetingActive := false
	for k := range r.parts {
		if k.Meeting == meeting {
			meetingActive = true
			break
		}
	}
	if !meetingActive {
		delete(r.meetings, meeting)
	}

	r.recompose(meeting)
	return true, nil
}

// SetQuality updates the quality of an existing receive stream and
// emits a set_quality delta. A missing receive stream is logged and
// ignored (spec §4.3: "Fails silently (log only) if the receive stream
// is absent").
func (r *Reconciler) SetQuality(meeting MeetingKey, sip string, sport int, ssrc uint32, dip string, dport int, q Quality) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ReceiveStreamKey{Meeting: meeting, SIP: sip, SPort: sport, DIP: dip, DPort: dport, SSRC: ssrc}
	rs, ok := r.rcv[key]
	if !ok {
		log.Printf("[session] set_quality: receive stream %+v not found", key)
		return
	}
	rs.Quality = q
	r.emit.Emit(StreamDelta{
		API: "set_quality", Meeting: meeting, SIP: sip, SPort: sport, SSRC: ssrc,
		DIP: dip, DPort: dport, Quality: q,
	})
}

// recompose computes the target receive-stream set for one meeting and
// emits remove deltas before add deltas, preserving quality on streams
// that persist across the mutation (spec §4.3, P1, P2). Callers must
// hold r.mu.
func (r *Reconciler) recompose(meeting MeetingKey) {
	target := make(map[ReceiveStreamKey]struct{})
	for sk, ss := range r.snd {
		if sk.Meeting != meeting {
			continue
		}
		for pk := range r.parts {
			if pk.Meeting != meeting {
				continue
			}
			if pk.IP == sk.SIP && pk.Port == sk.SPort {
				continue // a sender never receives its own stream
			}
			rk := ReceiveStreamKey{Meeting: meeting, SIP: sk.SIP, SPort: sk.SPort, DIP: pk.IP, DPort: pk.Port, SSRC: sk.SSRC}
			target[rk] = struct{}{}
		}
		_ = ss
	}

	var toRemove []ReceiveStreamKey
	for rk := range r.rcv {
		if rk.Meeting != meeting {
			continue
		}
		if _, ok := target[rk]; !ok {
			toRemove = append(toRemove, rk)
		}
	}
	sort.Slice(toRemove, func(i, j int) bool { return lessReceiveKey(toRemove[i], toRemove[j]) })
	for _, rk := range toRemove {
		old := r.rcv[rk]
		r.emit.Emit(StreamDelta{API: "remove_stream", Meeting: rk.Meeting, SIP: rk.SIP, SPort: rk.SPort, SSRC: rk.SSRC, SSRCRtx: old.SSRCRtx, DIP: rk.DIP, DPort: rk.DPort})
		delete(r.rcv, rk)
	}

	var toAdd []ReceiveStreamKey
	for rk := range target {
		if _, ok := r.rcv[rk]; !ok {
			toAdd = append(toAdd, rk)
		}
	}
	sort.Slice(toAdd, func(i, j int) bool { return lessReceiveKey(toAdd[i], toAdd[j]) })
	for _, rk := range toAdd {
		ss := r.snd[SendStreamKey{Meeting: rk.Meeting, SIP: rk.SIP, SPort: rk.SPort, SSRC: rk.SSRC}]
		dest := r.parts[ParticipantKey{Meeting: rk.Meeting, IP: rk.DIP, Port: rk.DPort}]
		rs := &ReceiveStream{
			Key:        rk,
			SSRCRtx:    ss.SSRCRtx,
			EgressPort: dest.EgressPort,
			MediaType:  ss.MediaType,
			Quality:    QualityHigh,
		}
		r.rcv[rk] = rs
		r.emit.Emit(StreamDelta{
			API: "add_stream", Meeting: rk.Meeting, SIP: rk.SIP, SPort: rk.SPort,
			SSRC: rk.SSRC, SSRCRtx: rs.SSRCRtx, DIP: rk.DIP, DPort: rk.DPort,
			EgressPort: rs.EgressPort,
		})
	}
}

func lessReceiveKey(a, b ReceiveStreamKey) bool {
	if a.SIP != b.SIP {
		return a.SIP < b.SIP
	}
	if a.SPort != b.SPort {
		return a.SPort < b.SPort
	}
	if a.DIP != b.DIP {
		return a.DIP < b.DIP
	}
	if a.DPort != b.DPort {
		return a.DPort < b.DPort
	}
	return a.SSRC < b.SSRC
}

// ReceiveStreams returns a snapshot of the currently active receive
// streams, keyed by identity, for inspection by tests and by the
// --test scenario in cmd/reconciler.
func (r *Reconciler) ReceiveStreams() map[ReceiveStreamKey]ReceiveStream {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[ReceiveStreamKey]ReceiveStream, len(r.rcv))
	for k, v := range r.rcv {
		out[k] = *v
	}
	return out
}

// Meetings returns the set of currently active meeting IDs.
func (r *Reconciler) Meetings() []MeetingKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MeetingKey, 0, len(r.meetings))
	for k := range r.meetings {
		out = append(out, k)
	}
	return out
}
