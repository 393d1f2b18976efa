package materializer

import (
	"context"
	"testing"

	"github.com/n0remac/sfu-control-plane/internal/runtime"
)

func newTestMaterializer(t *testing.T) (*Materializer, *runtime.Simulated) {
	t.Helper()
	rc := runtime.NewSimulated()
	m, err := New(context.Background(), rc, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, rc
}

func entryCount(t *testing.T, rc *runtime.Simulated, table string) int {
	t.Helper()
	rows, err := rc.GetAll(context.Background(), table)
	if err != nil {
		t.Fatalf("GetAll(%s): %v", table, err)
	}
	return len(rows)
}

func TestNewSeedsAV1TemplateTableAndCPUPort(t *testing.T) {
	_, rc := newTestMaterializer(t)
	if got := entryCount(t, rc, tableAV1TemplateIDModLookup); got != templateIDMax {
		t.Fatalf("expected %d av1 template entries, got %d", templateIDMax, got)
	}
	if got := entryCount(t, rc, tablePrePort); got != 1 {
		t.Fatalf("expected 1 pre.port entry for the CPU port, got %d", got)
	}
}

func TestAddStreamDefersSenderSideRulesUntilEportKnown(t *testing.T) {
	m, rc := newTestMaterializer(t)
	ctx := context.Background()

	// P1 -> P2: P2's eport (20) is known, P1's is not yet, so the
	// packet_replication/prune rules for P1 as a sender must wait.
	if err := m.AddStream(ctx, 1, "10.0.0.1", 5000, 100, 0, "10.0.0.2", 5000, 20); err != nil {
		t.Fatalf("AddStream: %v", err)
	}
	if got := entryCount(t, rc, tablePacketReplication); got != 0 {
		t.Fatalf("expected no packet_replication entry before sender eport is known, got %d", got)
	}

	// P2 -> P1: now P1's eport (10) becomes known as a destination, and
	// P2 was already a destination above so P2's replication installs now too.
	if err := m.AddStream(ctx, 1, "10.0.0.2", 5000, 200, 0, "10.0.0.1", 5000, 10); err != nil {
		t.Fatalf("AddStream: %v", err)
	}
	if got := entryCount(t, rc, tablePacketReplication); got != 1 {
		t.Fatalf("expected P2's replication entry installed once its destination role revealed its eport, got %d", got)
	}

	// A third message from P1, now that P1's eport is known from the
	// prior message, should finally install P1's own replication rule.
	if err := m.AddStream(ctx, 1, "10.0.0.1", 5000, 100, 0, "10.0.0.3", 5000, 30); err != nil {
		t.Fatalf("AddStream: %v", err)
	}
	if got := entryCount(t, rc, tablePacketReplication); got != 2 {
		t.Fatalf("expected 2 packet_replication entries once both senders' eports are known, got %d", got)
	}
}

func TestAddStreamIsIdempotent(t *testing.T) {
	m, rc := newTestMaterializer(t)
	ctx := context.Background()

	add := func() {
		if err := m.AddStream(ctx, 1, "10.0.0.1", 5000, 100, 0, "10.0.0.2", 5000, 20); err != nil {
			t.Fatalf("AddStream: %v", err)
		}
	}
	add()
	add()
	add()

	if got := entryCount(t, rc, tableIPv4Route); got != 1 {
		t.Fatalf("expected a single ipv4_route entry after repeated identical add_stream, got %d", got)
	}
	// The sender's own eport is never revealed in this one-directional
	// scenario (it never appears as a destination), so only the
	// destination's pre.node entry installs; see the deferred sender-side
	// rule handling in AddStream.
	if got := entryCount(t, rc, tablePreNode); got != 1 {
		t.Fatalf("expected exactly 1 pre.node entry (dest only, sender eport unknown), got %d", got)
	}
}

func TestAddStreamInstallsPreMgidMembershipSortedByAddress(t *testing.T) {
	m, rc := newTestMaterializer(t)
	ctx := context.Background()

	if err := m.AddStream(ctx, 1, "10.0.0.2", 5000, 100, 0, "10.0.0.1", 5000, 10); err != nil {
		t.Fatalf("AddStream: %v", err)
	}
	if got := entryCount(t, rc, tablePreMgid); got != 1 {
		t.Fatalf("expected one pre.mgid entry for the meeting, got %d", got)
	}

	action, err := rc.Get(ctx, tablePreMgid, runtime.Match{Fields: []runtime.KeyField{
		runtime.ExactKey{Name: "$MGID", Value: uintBytes(uint64(m.meetingMGID[1]))},
	}})
	if err != nil {
		t.Fatalf("Get pre.mgid: %v", err)
	}
	var nodes runtime.IntArrayData
	for _, f := range action.Fields {
		if ia, ok := f.(runtime.IntArrayData); ok && ia.Name == "$MULTICAST_NODE_ID" {
			nodes = ia
		}
	}
	if len(nodes.Value) != 2 {
		t.Fatalf("expected 2 multicast node ids, got %v", nodes.Value)
	}
	// 10.0.0.1 sorts before 10.0.0.2, so its NID (assigned second, since
	// it was the destination argument) must appear first.
	lowerAddrNID := m.participantNID[addr{IP: "10.0.0.1", Port: 5000}]
	if nodes.Value[0] != uint64(lowerAddrNID) {
		t.Fatalf("expected membership sorted by address, got %v want first=%d", nodes.Value, lowerAddrNID)
	}
}

func TestRemoveStreamReclaimsParticipantAndMeetingState(t *testing.T) {
	m, rc := newTestMaterializer(t)
	ctx := context.Background()

	if err := m.AddStream(ctx, 1, "10.0.0.1", 5000, 100, 0, "10.0.0.2", 5000, 20); err != nil {
		t.Fatalf("AddStream: %v", err)
	}
	if err := m.AddStream(ctx, 1, "10.0.0.2", 5000, 200, 0, "10.0.0.1", 5000, 10); err != nil {
		t.Fatalf("AddStream: %v", err)
	}
	firstRID := m.meetingMemberRID[meetingAddr{MID: 1, IP: "10.0.0.1", Port: 5000}]

	if err := m.RemoveStream(ctx, 1, "10.0.0.1", 5000, 100, 0, "10.0.0.2", 5000); err != nil {
		t.Fatalf("RemoveStream: %v", err)
	}
	if err := m.RemoveStream(ctx, 1, "10.0.0.2", 5000, 200, 0, "10.0.0.1", 5000); err != nil {
		t.Fatalf("RemoveStream: %v", err)
	}

	if got := entryCount(t, rc, tableIPv4Route); got != 0 {
		t.Fatalf("expected ipv4_route entries cleared, got %d", got)
	}
	if got := entryCount(t, rc, tablePacketReplication); got != 0 {
		t.Fatalf("expected packet_replication entries cleared, got %d", got)
	}
	if got := entryCount(t, rc, tablePreNode); got != 0 {
		t.Fatalf("expected pre.node entries cleared, got %d", got)
	}
	if got := entryCount(t, rc, tablePreMgid); got != 0 {
		t.Fatalf("expected pre.mgid entry deleted once meeting is empty, got %d", got)
	}
	if _, ok := m.meetingMGID[1]; ok {
		t.Fatalf("expected meeting 1's mgid released")
	}

	// A fresh meeting should reuse the smallest released RID.
	if err := m.AddStream(ctx, 2, "10.0.0.3", 5000, 300, 0, "10.0.0.4", 5000, 40); err != nil {
		t.Fatalf("AddStream: %v", err)
	}
	newRID := m.meetingMemberRID[meetingAddr{MID: 2, IP: "10.0.0.3", Port: 5000}]
	if newRID != firstRID {
		t.Fatalf("expected reclaimed RID %d to be reused, got %d", firstRID, newRID)
	}
}

func TestSetQualityClearsSuppressionAtHighAndInstallsAtLower(t *testing.T) {
	m, rc := newTestMaterializer(t)
	ctx := context.Background()

	if err := m.AddStream(ctx, 1, "10.0.0.1", 5000, 100, 0, "10.0.0.2", 5000, 20); err != nil {
		t.Fatalf("AddStream: %v", err)
	}

	if err := m.SetQuality(ctx, 1, "10.0.0.1", 5000, 100, "10.0.0.2", 5000, QualityBase); err != nil {
		t.Fatalf("SetQuality base: %v", err)
	}
	if got := entryCount(t, rc, tableVideoLayerSuppression); got != 1 {
		t.Fatalf("expected 1 video_layer_suppression entry at base quality, got %d", got)
	}

	if err := m.SetQuality(ctx, 1, "10.0.0.1", 5000, 100, "10.0.0.2", 5000, QualityHigh); err != nil {
		t.Fatalf("SetQuality high: %v", err)
	}
	if got := entryCount(t, rc, tableVideoLayerSuppression); got != 0 {
		t.Fatalf("expected video_layer_suppression cleared at high quality, got %d", got)
	}
}

func TestSetQualityOnUnknownStreamIsNoop(t *testing.T) {
	m, _ := newTestMaterializer(t)
	if err := m.SetQuality(context.Background(), 9, "10.0.0.9", 5000, 1, "10.0.0.8", 5000, QualityBase); err != nil {
		t.Fatalf("expected nil error for unknown stream, got %v", err)
	}
}

func TestUpdateAV1SVCStructureRepopulatesTable(t *testing.T) {
	m, rc := newTestMaterializer(t)
	ctx := context.Background()

	if err := m.UpdateAV1SVCStructure(ctx, "L1T3"); err != nil {
		t.Fatalf("UpdateAV1SVCStructure: %v", err)
	}
	if got := entryCount(t, rc, tableAV1TemplateIDModLookup); got != templateIDMax {
		t.Fatalf("expected %d entries after structure switch, got %d", templateIDMax, got)
	}
	if m.svcStructure != "L1T3" {
		t.Fatalf("expected svcStructure updated to L1T3, got %q", m.svcStructure)
	}
}

func TestUpdateAV1SVCStructureRejectsUnknownName(t *testing.T) {
	m, _ := newTestMaterializer(t)
	if err := m.UpdateAV1SVCStructure(context.Background(), "nonsense"); err != nil {
		t.Fatalf("expected nil error (soft reject) for unknown structure, got %v", err)
	}
	if m.svcStructure != "L1T2" {
		t.Fatalf("expected svcStructure to remain unchanged, got %q", m.svcStructure)
	}
}
