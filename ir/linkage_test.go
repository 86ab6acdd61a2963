package ir

import "testing"

func TestLinkageRoundTrip(t *testing.T) {
	for l, name := range linkageNames {
		got, ok := ParseLinkage(name)
		if !ok || got != l {
			t.Errorf("ParseLinkage(%q) = %v, %v", name, got, ok)
		}
		if l.String() != name {
			t.Errorf("String(%d) = %q, want %q", l, l.String(), name)
		}
	}
	if _, ok := ParseLinkage("sideways"); ok {
		t.Error("ParseLinkage accepted unknown keyword")
	}
}

func TestLinkagePredicates(t *testing.T) {
	tests := []struct {
		l             Linkage
		local         bool
		weakAny       bool
		linkOnce      bool
		weakForLinker bool
	}{
		{External, false, false, false, false},
		{Internal, true, false, false, false},
		{Private, true, false, false, false},
		{Weak, false, true, false, true},
		{WeakODR, false, false, false, true},
		{LinkOnce, false, false, true, true},
		{LinkOnceODR, false, false, true, true},
		{Appending, false, false, false, false},
		{Common, false, false, false, true},
		{ExternWeak, false, false, false, true},
		{AvailableExternally, false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.l.String(), func(t *testing.T) {
			if tt.l.IsLocal() != tt.local {
				t.Errorf("IsLocal: got %v", tt.l.IsLocal())
			}
			if tt.l.IsWeakAny() != tt.weakAny {
				t.Errorf("IsWeakAny: got %v", tt.l.IsWeakAny())
			}
			if tt.l.IsLinkOnce() != tt.linkOnce {
				t.Errorf("IsLinkOnce: got %v", tt.l.IsLinkOnce())
			}
			if tt.l.IsWeakForLinker() != tt.weakForLinker {
				t.Errorf("IsWeakForLinker: got %v", tt.l.IsWeakForLinker())
			}
		})
	}
}
