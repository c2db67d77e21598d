package metric

import (
	"errors"
	"testing"

	"driftwatch/domain/core"
	"driftwatch/ports"
)

func TestRegistryResolvesBuiltins(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"psi", "ks"} {
		m, err := r.Get(name)
		if err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
		if m.Name() != name {
			t.Errorf("Get(%s).Name() = %s", name, m.Name())
		}
	}
}

func TestRegistryUnknownMetric(t *testing.T) {
	_, err := NewRegistry().Get("wasserstein")
	if err == nil {
		t.Fatal("expected error for unknown metric")
	}
	if !errors.Is(err, core.ErrUnknownMetric) {
		t.Errorf("error = %v, want ErrUnknownMetric", err)
	}
	if !core.IsConfigurationError(err) {
		t.Errorf("error = %v, want a configuration error", err)
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	names := NewRegistry().Names()
	if len(names) != 2 || names[0] != "ks" || names[1] != "psi" {
		t.Errorf("Names() = %v, want [ks psi]", names)
	}
}

func TestRegistryCustomMetric(t *testing.T) {
	r := NewRegistry()
	r.Register("always-psi", func() ports.DriftMetric { return NewPSI() })

	m, err := r.Get("always-psi")
	if err != nil {
		t.Fatalf("Get(always-psi): %v", err)
	}
	if m.Name() != "psi" {
		t.Errorf("custom registration resolved to %s", m.Name())
	}
	if len(r.Names()) != 3 {
		t.Errorf("Names() = %v, want 3 entries", r.Names())
	}
}
