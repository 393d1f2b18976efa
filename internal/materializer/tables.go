package materializer

// Table names match the P4 program's fully qualified table identifiers
// the BFRuntime agent addresses entries by.
const (
	tableAV1TemplateIDModLookup = "SwitchIngress.av1_template_id_mod_lookup"
	tablePacketReplication      = "SwitchIngress.packet_replication"
	tableRecvReportForwarding   = "SwitchIngress.recv_report_forwarding"
	tableNackPliForwarding      = "SwitchIngress.nack_pli_forwarding"
	tableVideoLayerSuppression  = "SwitchIngress.video_layer_suppression"
	tablePreNode                = "$pre.node"
	tablePreMgid                = "$pre.mgid"
	tablePrePrune               = "$pre.prune"
	tableIPv4Route              = "SwitchEgress.ipv4_route"
	tablePrePort                = "$pre.port"
)

const (
	templateIDBits = 6 // AV1 dependency template id is a 6-bit field: 0..63
	templateIDMax  = 1 << templateIDBits

	tofinoModelCPUPort    = 64
	tofinoHardwareCPUPort = 192
)

// svcLayerMods describes how a spatial/temporal SVC structure maps
// template ids (via modulus) onto named enhancement-layer classes.
type svcLayerMods struct {
	Divisor      uint64
	TemplateMods map[Quality][]uint64
}

// Quality mirrors session.Quality without importing the session
// package, since the wire protocol carries quality as a bare string.
type Quality string

const (
	QualityBase Quality = "base"
	QualityMid  Quality = "mid"
	QualityHigh Quality = "high"
)

// av1TemplateIDMods is the per-SVC-structure table of template-id
// modulus classes, grounded on the reference agent's
// AV1_TEMPLATE_ID_MODS table.
var av1TemplateIDMods = map[string]svcLayerMods{
	"L1T2": {
		Divisor: 3,
		TemplateMods: map[Quality][]uint64{
			QualityBase: {1},
			QualityMid:  {1},     // L1T2 has no mid layer; treated as base
			QualityHigh: {1, 2},
		},
	},
	"L1T3": {
		Divisor: 5,
		TemplateMods: map[Quality][]uint64{
			QualityBase: {1},
			QualityMid:  {1, 2},
			QualityHigh: {1, 2, 3, 4},
		},
	},
}
