package session

import "testing"

type fakePorts struct{ next int }

func (f *fakePorts) EgressPort(name string) (int, error) {
	f.next++
	return f.next, nil
}

type recordingEmitter struct{ deltas []StreamDelta }

func (e *recordingEmitter) Emit(d StreamDelta) { e.deltas = append(e.deltas, d) }

func (e *recordingEmitter) reset() { e.deltas = nil }

func TestAddStreamDerivesReceiveStreamsForExistingParticipants(t *testing.T) {
	em := &recordingEmitter{}
	r := New(&fakePorts{}, em)

	if _, err := r.AddStream(0, "10.0.211.2", 1111, 110, 111, "veth4", MediaVideo); err != nil {
		t.Fatalf("AddStream p1: %v", err)
	}
	em.reset()

	if _, err := r.AddStream(0, "10.0.211.2", 2222, 210, 211, "veth6", MediaVideo); err != nil {
		t.Fatalf("AddStream p2: %v", err)
	}

	// P1's existing send stream must now be forwarded to the new participant.
	found := false
	for _, d := range em.deltas {
		if d.API == "add_stream" && d.SIP == "10.0.211.2" && d.SPort == 1111 && d.DPort == 2222 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected add_stream delta for pre-existing sender to new participant, got %+v", em.deltas)
	}

	rcv := r.ReceiveStreams()
	if len(rcv) != 2 {
		t.Fatalf("expected 2 receive streams (bidirectional), got %d: %+v", len(rcv), rcv)
	}
}

func TestReceiveStreamsExcludeSelf(t *testing.T) {
	em := &recordingEmitter{}
	r := New(&fakePorts{}, em)

	if _, err := r.AddStream(0, "10.0.211.2", 1111, 110, 111, "veth4", MediaVideo); err != nil {
		t.Fatal(err)
	}
	for rk := range r.ReceiveStreams() {
		if rk.SIP == rk.DIP && rk.SPort == rk.DPort {
			t.Fatalf("sender must never be its own receiver: %+v", rk)
		}
	}
}

func TestSetQualityPreservedAcrossUnrelatedMutation(t *testing.T) {
	em := &recordingEmitter{}
	r := New(&fakePorts{}, em)

	if _, err := r.AddStream(0, "10.0.211.2", 1111, 110, 111, "veth4", MediaVideo); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddStream(0, "10.0.211.2", 2222, 210, 211, "veth6", MediaVideo); err != nil {
		t.Fatal(err)
	}

	var target ReceiveStreamKey
	for rk := range r.ReceiveStreams() {
		target = rk
		break
	}
	r.SetQuality(target.Meeting, target.SIP, target.SPort, target.SSRC, target.DIP, target.DPort, QualityMid)

	if _, err := r.AddStream(0, "10.0.211.2", 3333, 310, 311, "veth6", MediaVideo); err != nil {
		t.Fatal(err)
	}

	rcv := r.ReceiveStreams()
	rs, ok := rcv[target]
	if !ok {
		t.Fatalf("expected receive stream %+v to persist", target)
	}
	if rs.Quality != QualityMid {
		t.Fatalf("expected quality preserved as mid, got %v", rs.Quality)
	}
}

func TestRemoveStreamReclaimsParticipantAndMeeting(t *testing.T) {
	em := &recordingEmitter{}
	r := New(&fakePorts{}, em)

	if _, err := r.AddStream(0, "10.0.211.2", 1111, 110, 111, "veth4", MediaVideo); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RemoveStream(0, "10.0.211.2", 1111, 110); err != nil {
		t.Fatal(err)
	}
	if len(r.Meetings()) != 0 {
		t.Fatalf("expected meeting to be reclaimed once empty, got %v", r.Meetings())
	}
	if len(r.ReceiveStreams()) != 0 {
		t.Fatalf("expected no receive streams left")
	}
}

func TestRemoveStreamEmitsRemoveDeltaFirst(t *testing.T) {
	em := &recordingEmitter{}
	r := New(&fakePorts{}, em)

	r.AddStream(0, "10.0.211.2", 1111, 110, 111, "veth4", MediaVideo)
	r.AddStream(0, "10.0.211.2", 2222, 210, 211, "veth6", MediaVideo)
	em.reset()

	if _, err := r.RemoveStream(0, "10.0.211.2", 1111, 110); err != nil {
		t.Fatal(err)
	}
	if len(em.deltas) == 0 || em.deltas[0].API != "remove_stream" {
		t.Fatalf("expected leading remove_stream delta, got %+v", em.deltas)
	}
}

func TestSetQualityOnAbsentStreamIsNoop(t *testing.T) {
	em := &recordingEmitter{}
	r := New(&fakePorts{}, em)
	r.SetQuality(0, "1.2.3.4", 1, 1, "5.6.7.8", 2, QualityBase)
	if len(em.deltas) != 0 {
		t.Fatalf("expected no emission for absent receive stream, got %+v", em.deltas)
	}
}

func TestDuplicateAddStreamIsIdempotent(t *testing.T) {
	em := &recordingEmitter{}
	r := New(&fakePorts{}, em)
	changed1, err := r.AddStream(0, "10.0.211.2", 1111, 110, 111, "veth4", MediaVideo)
	if err != nil || !changed1 {
		t.Fatalf("first add: changed=%v err=%v", changed1, err)
	}
	changed2, err := r.AddStream(0, "10.0.211.2", 1111, 110, 111, "veth4", MediaVideo)
	if err != nil || changed2 {
		t.Fatalf("duplicate add should be a no-op: changed=%v err=%v", changed2, err)
	}
}
