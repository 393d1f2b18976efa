package ports

import "testing"

func TestDefaultMapResolvesKnownInterfaces(t *testing.T) {
	m := Default()
	cases := map[string]int{"veth0": 0, "veth4": 2, "veth32": 16, "veth250": 64}
	for name, want := range cases {
		got, err := m.EgressPort(name)
		if err != nil {
			t.Fatalf("EgressPort(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("EgressPort(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestUnknownInterfaceErrors(t *testing.T) {
	m := Default()
	if _, err := m.EgressPort("veth999"); err == nil {
		t.Fatal("expected error for unknown interface")
	}
}
