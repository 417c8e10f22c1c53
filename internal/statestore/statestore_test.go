package statestore

import (
	"testing"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := s.Set("router/active_session", "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	v, found, err := s.Get("router/active_session")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || v != "abc" {
		t.Errorf("Get = (%q, %v), want (abc, true)", v, found)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Values survive reopen.
	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	v, found, err = s2.Get("router/active_session")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !found || v != "abc" {
		t.Errorf("Get after reopen = (%q, %v), want (abc, true)", v, found)
	}
}

func TestSQLiteStore_Overwrite(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.Set("k", "one"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("k", "two"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	v, found, err := s.Get("k")
	if err != nil || !found {
		t.Fatalf("Get = (%q, %v, %v)", v, found, err)
	}
	if v != "two" {
		t.Errorf("value = %q, want two", v)
	}
}

func TestSQLiteStore_MissingKey(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	_, found, err := s.Get("nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("missing key should report found=false, not an error")
	}
}

func TestSQLiteStore_DeleteAbsentKey(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.Delete("never-set"); err != nil {
		t.Errorf("Delete absent key = %v, want nil", err)
	}
}

func TestMemoryStore_Basics(t *testing.T) {
	s := NewMemory()

	if err := s.Set("a", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, found, _ := s.Get("a")
	if !found || v != "1" {
		t.Errorf("Get = (%q, %v), want (1, true)", v, found)
	}

	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := s.Get("a"); found {
		t.Error("deleted key still present")
	}
}

func TestMemoryStore_FailWrites(t *testing.T) {
	s := NewMemory()
	s.FailWrites = true

	if err := s.Set("a", "1"); err == nil {
		t.Error("Set should fail when FailWrites is set")
	}
	if err := s.Delete("a"); err == nil {
		t.Error("Delete should fail when FailWrites is set")
	}
}
