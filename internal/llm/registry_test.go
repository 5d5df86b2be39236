package llm

import (
	"strings"
	"testing"
)

func TestRegisterAndOpen(t *testing.T) {
	Register("registry-test-a", func() Backend { return nil })
	Register("registry-test-b", func() Backend { return nil })

	if _, err := Open("registry-test-a"); err != nil {
		t.Fatalf("Open: %v", err)
	}

	_, err := Open("registry-test-missing")
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "registry-test-a") {
		t.Fatalf("error should list available backends: %v", err)
	}

	names := Backends()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("Backends() not sorted: %v", names)
		}
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate Register")
		}
	}()
	Register("registry-test-dup", func() Backend { return nil })
	Register("registry-test-dup", func() Backend { return nil })
}

func TestRegisterNilFactoryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on nil factory")
		}
	}()
	Register("registry-test-nil", nil)
}
