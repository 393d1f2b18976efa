// Package ports resolves veth-style interface names to device egress
// ports, mirroring the static port map the switch agent is compiled
// with on a given rack.
package ports

import "fmt"

// Map holds a static portname -> egress-port table.
type Map map[string]int

// Default returns the standard veth0..veth32 (even-numbered) plus
// veth250 loopback/CPU-adjacent port assignment.
func Default() Map {
	return Map{
		"veth0":   0,
		"veth2":   1,
		"veth4":   2,
		"veth6":   3,
		"veth8":   4,
		"veth10":  5,
		"veth12":  6,
		"veth14":  7,
		"veth16":  8,
		"veth18":  9,
		"veth20":  10,
		"veth22":  11,
		"veth24":  12,
		"veth26":  13,
		"veth28":  14,
		"veth30":  15,
		"veth32":  16,
		"veth250": 64,
	}
}

// EgressPort implements session.PortResolver.
func (m Map) EgressPort(name string) (int, error) {
	p, ok := m[name]
	if !ok {
		return 0, fmt.Errorf("ports: unknown interface %q", name)
	}
	return p, nil
}
