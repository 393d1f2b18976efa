// Package materializer translates session deltas into hardware table
// operations: the Rule Materializer (RM) half of the control plane.
package materializer

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/n0remac/sfu-control-plane/internal/alloc"
	"github.com/n0remac/sfu-control-plane/internal/runtime"
)

const (
	mgidCap = 64000
	nidCap  = (1 << 32) - 1
	ridCap  = (1 << 16) - 1

	noRtxSSRC uint32 = 0
)

type addr struct {
	IP   string
	Port int
}

type meetingAddr struct {
	MID  uint32
	IP   string
	Port int
}

type streamID struct {
	SIP   string
	SPort int
	SSRC  uint32
}

type replicationKey struct {
	streamID
	MGID, RID, L2XID uint32
}

type nodeKey struct {
	NID, RID uint32
	Eport    int
}

type routeKey struct {
	streamID
	RID   uint32
	DIP   string
	DPort int
}

type recvStreamKey struct {
	MID   uint32
	SIP   string
	SPort int
	SSRC  uint32
	DIP   string
	DPort int
}

// Materializer holds RM's six ID maps and five installed-rule sets and
// drives them from decoded event-bus messages.
type Materializer struct {
	mu           sync.Mutex
	rc           runtime.Client
	hardwareMode bool
	svcStructure string

	mgidNS *alloc.Namespace
	nidNS  *alloc.Namespace
	ridNS  *alloc.Namespace

	meetingMGID        map[uint32]uint32
	meetingMembers     map[uint32]map[addr]bool
	meetingMemberEport map[meetingAddr]int
	meetingMemberRID   map[meetingAddr]uint32
	meetingMemberRefs  map[meetingAddr]int
	participantNID     map[addr]uint32
	participantNIDRefs map[addr]int

	replicationRefs map[streamID]int
	replicationInst map[streamID]replicationKey

	nodesInstalled map[uint32]nodeKey

	mgidComposition map[uint32]mgidMembership

	l2ExclusionInstalled map[int]bool

	routesInstalled map[routeKey]bool

	// recvQuality tracks the last quality requested per receive stream
	// so set_quality and remove_stream can recompute the
	// video_layer_suppression table without re-deriving it from scratch.
	recvQuality map[recvStreamKey]Quality
}

type mgidMembership struct {
	nids     []uint32
	l1xids   []uint32
	validity []bool
}

func equalMembership(a, b mgidMembership) bool {
	if len(a.nids) != len(b.nids) {
		return false
	}
	for i := range a.nids {
		if a.nids[i] != b.nids[i] || a.l1xids[i] != b.l1xids[i] || a.validity[i] != b.validity[i] {
			return false
		}
	}
	return true
}

// New constructs a Materializer bound to rc, loads and flushes every
// table it owns, installs the CPU-port copy rule, and seeds the AV1
// template-id-mod table with the default L1T2 structure.
func New(ctx context.Context, rc runtime.Client, hardwareMode bool) (*Materializer, error) {
	m := &Materializer{
		rc:                   rc,
		hardwareMode:         hardwareMode,
		mgidNS:               alloc.NewNamespace("mgid", mgidCap),
		nidNS:                alloc.NewNamespace("nid", nidCap),
		ridNS:                alloc.NewNamespace("rid", ridCap),
		meetingMGID:          make(map[uint32]uint32),
		meetingMembers:       make(map[uint32]map[addr]bool),
		meetingMemberEport:   make(map[meetingAddr]int),
		meetingMemberRID:     make(map[meetingAddr]uint32),
		meetingMemberRefs:    make(map[meetingAddr]int),
		participantNID:       make(map[addr]uint32),
		participantNIDRefs:   make(map[addr]int),
		replicationRefs:      make(map[streamID]int),
		replicationInst:      make(map[streamID]replicationKey),
		nodesInstalled:       make(map[uint32]nodeKey),
		mgidComposition:      make(map[uint32]mgidMembership),
		l2ExclusionInstalled: make(map[int]bool),
		routesInstalled:      make(map[routeKey]bool),
		recvQuality:          make(map[recvStreamKey]Quality),
	}

	for _, t := range []string{
		tableAV1TemplateIDModLookup, tablePacketReplication, tableRecvReportForwarding,
		tableNackPliForwarding, tableVideoLayerSuppression, tablePreNode, tablePreMgid,
		tablePrePrune, tableIPv4Route, tablePrePort,
	} {
		if err := rc.LoadTable(ctx, t); err != nil {
			return nil, err
		}
		if err := rc.FlushTable(ctx, t); err != nil {
			return nil, err
		}
	}

	devPort := tofinoModelCPUPort
	if hardwareMode {
		devPort = tofinoHardwareCPUPort
	}
	err := rc.Add(ctx, tablePrePort, runtime.Entry{
		Match:  runtime.Match{Fields: []runtime.KeyField{runtime.ExactKey{Name: "$DEV_PORT", Value: uintBytes(uint64(devPort))}}},
		Action: runtime.Action{Fields: []runtime.DataField{runtime.BoolData{Name: "$COPY_TO_CPU_PORT_ENABLE", Value: true}}},
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[materializer] DEV_PORT %d configured as CPU port", devPort)

	m.svcStructure = "L1T2"
	if err := m.UpdateAV1SVCStructure(ctx, m.svcStructure); err != nil {
		return nil, err
	}
	return m, nil
}

func uintBytes(v uint64) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// UpdateAV1SVCStructure flushes and repopulates the AV1 template-id
// modulation table for the named SVC structure (L1T2 or L1T3). An
// unrecognized structure is rejected with a log, per spec.
func (m *Materializer) UpdateAV1SVCStructure(ctx context.Context, structure string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mods, ok := av1TemplateIDMods[structure]
	if !ok {
		log.Printf("[materializer] SVC structure %q unknown, ignoring update_av1_svc_structure", structure)
		return nil
	}
	if err := m.rc.FlushTable(ctx, tableAV1TemplateIDModLookup); err != nil {
		return err
	}
	for id := 0; id < templateIDMax; id++ {
		mod := uint64(id) % mods.Divisor
		err := m.rc.Add(ctx, tableAV1TemplateIDModLookup, runtime.Entry{
			Match:  runtime.Match{Fields: []runtime.KeyField{runtime.ExactKey{Name: "hdr.av1.dep_template_id", Value: uintBytes(uint64(id))}}},
			Action: runtime.Action{Name: "set_av1_template_id_mod", Fields: []runtime.DataField{runtime.IntData{Name: "mod", Value: mod}}},
		})
		if err != nil {
			return err
		}
	}
	m.svcStructure = structure
	return nil
}

// AddStream installs the hardware state for one receive stream: the
// five stages of spec §4.4, each gated on its own installed-rule set
// so repeated calls for the same stream are no-ops past the first.
func (m *Materializer) AddStream(ctx context.Context, mid uint32, sip string, sport int, ssrc, ssrcRtx uint32, dip string, dport int, eport int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	senderAddr := addr{IP: sip, Port: sport}
	destAddr := addr{IP: dip, Port: dport}
	senderMA := meetingAddr{MID: mid, IP: sip, Port: sport}
	destMA := meetingAddr{MID: mid, IP: dip, Port: dport}

	// Stage 1: meeting -> MGID
	mgid, ok := m.meetingMGID[mid]
	if !ok {
		id, err := m.mgidNS.Allocate()
		if err != nil {
			log.Printf("[materializer] add_stream: %v", err)
			return nil
		}
		mgid = id
		m.meetingMGID[mid] = mgid
		m.meetingMembers[mid] = make(map[addr]bool)
	}

	// Stage 2: participant -> NID (global, dense across all meetings).
	for _, a := range []addr{senderAddr, destAddr} {
		if _, ok := m.participantNID[a]; !ok {
			id, err := m.nidNS.Allocate()
			if err != nil {
				log.Printf("[materializer] add_stream: %v", err)
				return nil
			}
			m.participantNID[a] = id
		}
	}

	// record membership + eport (destination side known from the wire;
	// sender side becomes known once it has appeared as a destination
	// in some other receive stream).
	m.meetingMembers[mid][senderAddr] = true
	m.meetingMembers[mid][destAddr] = true
	if _, ok := m.meetingMemberEport[destMA]; !ok {
		m.meetingMemberEport[destMA] = eport
	}

	// Stage 3: meeting-participant -> RID (L1-XID ≡ RID, no separate storage).
	for _, ma := range []meetingAddr{senderMA, destMA} {
		if _, ok := m.meetingMemberRID[ma]; !ok {
			id, err := m.ridNS.Allocate()
			if err != nil {
				log.Printf("[materializer] add_stream: %v", err)
				return nil
			}
			m.meetingMemberRID[ma] = id
			m.participantNIDRefs[addr{IP: ma.IP, Port: ma.Port}]++
		}
	}
	m.meetingMemberRefs[senderMA]++
	m.meetingMemberRefs[destMA]++

	// Stage 4: L2-XID ≡ eport, nothing to allocate.

	// Stage 5a/5d need the sender's own eport; if it isn't known yet
	// (this address has never been a destination), defer those two
	// rule families until a later message reveals it.
	senderEport, senderEportKnown := m.meetingMemberEport[senderMA]

	if senderEportKnown {
		if err := m.installReplication(ctx, senderAddr, mgid, senderMA, senderEport, ssrc); err != nil {
			return err
		}
		if ssrcRtx != noRtxSSRC {
			if err := m.installReplication(ctx, senderAddr, mgid, senderMA, senderEport, ssrcRtx); err != nil {
				return err
			}
		}
	} else {
		log.Printf("[materializer] sender eport for %v not yet known, deferring packet_replication/prune rules", senderMA)
	}
	m.replicationRefs[streamID{SIP: sip, SPort: sport, SSRC: ssrc}]++
	if ssrcRtx != noRtxSSRC {
		m.replicationRefs[streamID{SIP: sip, SPort: sport, SSRC: ssrcRtx}]++
	}

	// Stage 5b: pre.node for sender and destination NIDs.
	for _, ma := range []meetingAddr{senderMA, destMA} {
		a := addr{IP: ma.IP, Port: ma.Port}
		nid := m.participantNID[a]
		rid := m.meetingMemberRID[ma]
		eportForAddr, known := m.meetingMemberEport[ma]
		if !known {
			continue
		}
		key := nodeKey{NID: nid, RID: rid, Eport: eportForAddr}
		if m.nodesInstalled[nid] == key {
			continue
		}
		err := m.rc.Add(ctx, tablePreNode, runtime.Entry{
			Match: runtime.Match{Fields: []runtime.KeyField{runtime.ExactKey{Name: "$MULTICAST_NODE_ID", Value: uintBytes(uint64(nid))}}},
			Action: runtime.Action{Fields: []runtime.DataField{
				runtime.IntData{Name: "$MULTICAST_RID", Value: uint64(rid)},
				runtime.IntArrayData{Name: "$DEV_PORT", Value: []uint64{uint64(eportForAddr)}},
			}},
		})
		if err != nil {
			return err
		}
		m.nodesInstalled[nid] = key
	}

	// Stage 5c: pre.mgid membership, sorted by (ip, port).
	if err := m.syncMgidMembership(ctx, mid, mgid); err != nil {
		return err
	}

	// Stage 5d: pre.prune L2 exclusion, keyed by sender's own eport.
	if senderEportKnown && !m.l2ExclusionInstalled[senderEport] {
		err := m.rc.Add(ctx, tablePrePrune, runtime.Entry{
			Match:  runtime.Match{Fields: []runtime.KeyField{runtime.ExactKey{Name: "$MULTICAST_L2_XID", Value: uintBytes(uint64(senderEport))}}},
			Action: runtime.Action{Fields: []runtime.DataField{runtime.IntArrayData{Name: "$DEV_PORT", Value: []uint64{uint64(senderEport)}}}},
		})
		if err != nil {
			return err
		}
		m.l2ExclusionInstalled[senderEport] = true
	}

	// Stage 5e: egress rewrite, keyed by the destination's RID.
	destRID := m.meetingMemberRID[destMA]
	if err := m.installRoute(ctx, sip, sport, ssrc, destRID, dip, dport); err != nil {
		return err
	}
	if ssrcRtx != noRtxSSRC {
		if err := m.installRoute(ctx, sip, sport, ssrcRtx, destRID, dip, dport); err != nil {
			return err
		}
	}

	rk := recvStreamKey{MID: mid, SIP: sip, SPort: sport, SSRC: ssrc, DIP: dip, DPort: dport}
	m.recvQuality[rk] = QualityHigh
	return nil
}

func (m *Materializer) installReplication(ctx context.Context, sender addr, mgid uint32, senderMA meetingAddr, senderEport int, ssrc uint32) error {
	sid := streamID{SIP: sender.IP, SPort: sender.Port, SSRC: ssrc}
	rid := m.meetingMemberRID[senderMA]
	key := replicationKey{streamID: sid, MGID: mgid, RID: rid, L2XID: uint32(senderEport)}
	if m.replicationInst[sid] == key {
		return nil
	}
	err := m.rc.Add(ctx, tablePacketReplication, runtime.Entry{
		Match: runtime.Match{Fields: []runtime.KeyField{
			runtime.ExactKey{Name: "hdr.ipv4.src_addr", Value: []byte(sender.IP)},
			runtime.ExactKey{Name: "hdr.udp.src_port", Value: uintBytes(uint64(sender.Port))},
			runtime.ExactKey{Name: "ig_md.rtp_rtcp_ssrc", Value: uintBytes(uint64(ssrc))},
		}},
		Action: runtime.Action{Name: "setup_replication", Fields: []runtime.DataField{
			runtime.IntData{Name: "mgid", Value: uint64(mgid)},
			runtime.IntData{Name: "packet_rid", Value: uint64(rid)},
			runtime.IntData{Name: "l2_xid", Value: uint64(senderEport)},
		}},
	})
	if err != nil {
		return err
	}
	m.replicationInst[sid] = key
	return nil
}

func (m *Materializer) installRoute(ctx context.Context, sip string, sport int, ssrc uint32, rid uint32, dip string, dport int) error {
	rk := routeKey{streamID: streamID{SIP: sip, SPort: sport, SSRC: ssrc}, RID: rid, DIP: dip, DPort: dport}
	if m.routesInstalled[rk] {
		return nil
	}
	err := m.rc.Add(ctx, tableIPv4Route, runtime.Entry{
		Match: runtime.Match{Fields: []runtime.KeyField{
			runtime.ExactKey{Name: "hdr.ipv4.src_addr", Value: []byte(sip)},
			runtime.ExactKey{Name: "hdr.udp.src_port", Value: uintBytes(uint64(sport))},
			runtime.ExactKey{Name: "eg_md.rtp_rtcp_ssrc", Value: uintBytes(uint64(ssrc))},
			runtime.ExactKey{Name: "eg_intr_md.egress_rid", Value: uintBytes(uint64(rid))},
		}},
		Action: runtime.Action{Name: "set_destination_headers", Fields: []runtime.DataField{
			runtime.BytesData{Name: "ip_dst_addr", Value: []byte(dip)},
			runtime.IntData{Name: "udp_dst_port", Value: uint64(dport)},
		}},
	})
	if err != nil {
		return err
	}
	m.routesInstalled[rk] = true
	return nil
}

func (m *Materializer) syncMgidMembership(ctx context.Context, mid, mgid uint32) error {
	members := make([]addr, 0, len(m.meetingMembers[mid]))
	for a := range m.meetingMembers[mid] {
		members = append(members, a)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].IP != members[j].IP {
			return members[i].IP < members[j].IP
		}
		return members[i].Port < members[j].Port
	})

	membership := mgidMembership{
		nids:     make([]uint32, 0, len(members)),
		l1xids:   make([]uint32, 0, len(members)),
		validity: make([]bool, 0, len(members)),
	}
	for _, a := range members {
		ma := meetingAddr{MID: mid, IP: a.IP, Port: a.Port}
		rid, ok := m.meetingMemberRID[ma]
		if !ok {
			continue // participant registered in membership but RID not yet assigned
		}
		membership.nids = append(membership.nids, m.participantNID[a])
		membership.l1xids = append(membership.l1xids, rid)
		membership.validity = append(membership.validity, false)
	}

	prev, existed := m.mgidComposition[mgid]
	if existed && equalMembership(prev, membership) {
		return nil
	}

	entry := runtime.Entry{
		Match: runtime.Match{Fields: []runtime.KeyField{runtime.ExactKey{Name: "$MGID", Value: uintBytes(uint64(mgid))}}},
		Action: runtime.Action{Fields: []runtime.DataField{
			runtime.IntArrayData{Name: "$MULTICAST_NODE_ID", Value: toUint64s(membership.nids)},
			runtime.IntArrayData{Name: "$MULTICAST_NODE_L1_XID", Value: toUint64s(membership.l1xids)},
			runtime.BoolArrayData{Name: "$MULTICAST_NODE_L1_XID_VALID", Value: membership.validity},
		}},
	}

	var err error
	if len(members) == 0 {
		err = m.rc.Delete(ctx, tablePreMgid, entry.Match)
		delete(m.mgidComposition, mgid)
		return err
	}
	if existed {
		err = m.rc.Modify(ctx, tablePreMgid, entry)
	} else {
		err = m.rc.Add(ctx, tablePreMgid, entry)
	}
	if err != nil {
		return err
	}
	m.mgidComposition[mgid] = membership
	return nil
}

func toUint64s(v []uint32) []uint64 {
	out := make([]uint64, len(v))
	for i, x := range v {
		out[i] = uint64(x)
	}
	return out
}

// RemoveStream tears down the hardware state for one receive stream,
// reclaiming meeting/participant/RID/NID/MGID entries once their last
// reference drops. Stream rules are cleared before any ID is released
// back to the allocator, per spec §4.4.
func (m *Materializer) RemoveStream(ctx context.Context, mid uint32, sip string, sport int, ssrc, ssrcRtx uint32, dip string, dport int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	senderMA := meetingAddr{MID: mid, IP: sip, Port: sport}
	destMA := meetingAddr{MID: mid, IP: dip, Port: dport}
	destRID := m.meetingMemberRID[destMA]

	// Stage 5e reverse: egress rewrite.
	if err := m.removeRoute(ctx, sip, sport, ssrc, destRID, dip, dport); err != nil {
		return err
	}
	if ssrcRtx != noRtxSSRC {
		if err := m.removeRoute(ctx, sip, sport, ssrcRtx, destRID, dip, dport); err != nil {
			return err
		}
	}

	// Stage 5a reverse: packet_replication, once no receive stream from
	// this sender/ssrc remains.
	m.decrementReplication(ctx, streamID{SIP: sip, SPort: sport, SSRC: ssrc})
	if ssrcRtx != noRtxSSRC {
		m.decrementReplication(ctx, streamID{SIP: sip, SPort: sport, SSRC: ssrcRtx})
	}

	rk := recvStreamKey{MID: mid, SIP: sip, SPort: sport, SSRC: ssrc, DIP: dip, DPort: dport}
	delete(m.recvQuality, rk)

	// Release participant-in-meeting references; reclaim membership,
	// pre.node entries, RID, and NID once each drops to zero.
	for _, ma := range []meetingAddr{senderMA, destMA} {
		m.meetingMemberRefs[ma]--
		if m.meetingMemberRefs[ma] > 0 {
			continue
		}
		delete(m.meetingMemberRefs, ma)
		a := addr{IP: ma.IP, Port: ma.Port}
		delete(m.meetingMembers[mid], a)
		delete(m.meetingMemberEport, ma)

		if nid, ok := m.participantNID[a]; ok {
			if _, installed := m.nodesInstalled[nid]; installed {
				err := m.rc.Delete(ctx, tablePreNode, runtime.Match{Fields: []runtime.KeyField{
					runtime.ExactKey{Name: "$MULTICAST_NODE_ID", Value: uintBytes(uint64(nid))},
				}})
				if err != nil {
					return err
				}
				delete(m.nodesInstalled, nid)
			}
		}

		if rid, ok := m.meetingMemberRID[ma]; ok {
			m.ridNS.Release(rid)
			delete(m.meetingMemberRID, ma)
		}

		m.participantNIDRefs[a]--
		if m.participantNIDRefs[a] <= 0 {
			if nid, ok := m.participantNID[a]; ok {
				m.nidNS.Release(nid)
				delete(m.participantNID, a)
			}
			delete(m.participantNIDRefs, a)
		}
	}

	mgid, ok := m.meetingMGID[mid]
	if ok {
		if err := m.syncMgidMembership(ctx, mid, mgid); err != nil {
			return err
		}
		if len(m.meetingMembers[mid]) == 0 {
			m.mgidNS.Release(mgid)
			delete(m.meetingMGID, mid)
			delete(m.meetingMembers, mid)
		}
	}
	return nil
}

func (m *Materializer) removeRoute(ctx context.Context, sip string, sport int, ssrc uint32, rid uint32, dip string, dport int) error {
	rk := routeKey{streamID: streamID{SIP: sip, SPort: sport, SSRC: ssrc}, RID: rid, DIP: dip, DPort: dport}
	if !m.routesInstalled[rk] {
		return nil
	}
	err := m.rc.Delete(ctx, tableIPv4Route, runtime.Match{Fields: []runtime.KeyField{
		runtime.ExactKey{Name: "hdr.ipv4.src_addr", Value: []byte(sip)},
		runtime.ExactKey{Name: "hdr.udp.src_port", Value: uintBytes(uint64(sport))},
		runtime.ExactKey{Name: "eg_md.rtp_rtcp_ssrc", Value: uintBytes(uint64(ssrc))},
		runtime.ExactKey{Name: "eg_intr_md.egress_rid", Value: uintBytes(uint64(rid))},
	}})
	if err != nil {
		return err
	}
	delete(m.routesInstalled, rk)
	return nil
}

func (m *Materializer) decrementReplication(ctx context.Context, sid streamID) {
	m.replicationRefs[sid]--
	if m.replicationRefs[sid] > 0 {
		return
	}
	delete(m.replicationRefs, sid)
	if _, ok := m.replicationInst[sid]; !ok {
		return
	}
	err := m.rc.Delete(ctx, tablePacketReplication, runtime.Match{Fields: []runtime.KeyField{
		runtime.ExactKey{Name: "hdr.ipv4.src_addr", Value: []byte(sid.SIP)},
		runtime.ExactKey{Name: "hdr.udp.src_port", Value: uintBytes(uint64(sid.SPort))},
		runtime.ExactKey{Name: "ig_md.rtp_rtcp_ssrc", Value: uintBytes(uint64(sid.SSRC))},
	}})
	if err != nil {
		log.Printf("[materializer] remove_stream: packet_replication delete failed: %v", err)
		return
	}
	delete(m.replicationInst, sid)
}

// SetQuality updates video_layer_suppression for one receive stream:
// quality=high clears all suppression for that stream; lower qualities
// mark the template-id-mod classes above the selected layer as
// suppressed, using the current SVC structure's template_id_mods map.
func (m *Materializer) SetQuality(ctx context.Context, mid uint32, sip string, sport int, ssrc uint32, dip string, dport int, quality Quality) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rk := recvStreamKey{MID: mid, SIP: sip, SPort: sport, SSRC: ssrc, DIP: dip, DPort: dport}
	if _, ok := m.recvQuality[rk]; !ok {
		log.Printf("[materializer] set_quality: receive stream %+v not found", rk)
		return nil
	}

	mods, ok := av1TemplateIDMods[m.svcStructure]
	if !ok {
		log.Printf("[materializer] set_quality: current SVC structure %q unknown", m.svcStructure)
		return nil
	}

	match := runtime.Match{Fields: []runtime.KeyField{
		runtime.ExactKey{Name: "hdr.ipv4.src_addr", Value: []byte(sip)},
		runtime.ExactKey{Name: "hdr.udp.src_port", Value: uintBytes(uint64(sport))},
		runtime.ExactKey{Name: "ig_md.rtp_rtcp_ssrc", Value: uintBytes(uint64(ssrc))},
	}}

	if quality == QualityHigh {
		if err := m.rc.Delete(ctx, tableVideoLayerSuppression, match); err != nil {
			return err
		}
	} else {
		allowed := mods.TemplateMods[quality]
		allowedSet := make(map[uint64]bool, len(allowed))
		for _, v := range allowed {
			allowedSet[v] = true
		}
		suppressed := false
		for _, highMod := range mods.TemplateMods[QualityHigh] {
			if !allowedSet[highMod] {
				suppressed = true
				break
			}
		}
		entry := runtime.Entry{
			Match:  match,
			Action: runtime.Action{Name: "suppress", Fields: []runtime.DataField{runtime.BoolData{Name: "suppressed", Value: suppressed}}},
		}
		if _, err := m.rc.Get(ctx, tableVideoLayerSuppression, match); err == nil {
			if err := m.rc.Modify(ctx, tableVideoLayerSuppression, entry); err != nil {
				return err
			}
		} else {
			if err := m.rc.Add(ctx, tableVideoLayerSuppression, entry); err != nil {
				return err
			}
		}
	}

	m.recvQuality[rk] = quality
	return nil
}
