package ir

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/modlink/modlink/errors"
)

func TestVerifyAcceptsSample(t *testing.T) {
	m := mustParse(t, "a.mir", sampleText)
	if err := Verify(m); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestVerifyRejections(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"duplicate symbol",
			"global @x external i32 = 0\nfunc @x external () -> void {\n ret\n}\n",
			"defined more than once",
		},
		{
			"internal declaration",
			"func @f internal () -> void\n",
			"requires a definition",
		},
		{
			"weak declaration",
			"global @g weak i32\n",
			"declaration cannot have",
		},
		{
			"defined extern_weak",
			"global @g extern_weak i32 = 0\n",
			"cannot be defined",
		},
		{
			"unresolved reference",
			"func @f external () -> void {\n call @missing\n}\n",
			"undefined symbol @missing",
		},
		{
			"initializer reference unresolved",
			"global @p external ptr = @nowhere\n",
			"undefined symbol @nowhere",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseBytes("bad.mir", []byte(tt.text))
			if err != nil {
				t.Fatalf("ParseBytes: %v", err)
			}
			err = Verify(m)
			if err == nil {
				t.Fatal("expected verify error")
			}
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseVerify, Kind: errors.KindBrokenModule}) {
				t.Errorf("wrong taxonomy: %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestVerifyLazyModule(t *testing.T) {
	m, err := ParseBytesLazy("a.mir", []byte(sampleText))
	if err != nil {
		t.Fatalf("ParseBytesLazy: %v", err)
	}
	if err := Verify(m); err != nil {
		t.Errorf("Verify on lazy module: %v", err)
	}
	if m.Func("helper").Materialized() {
		t.Error("Verify must not force materialization")
	}
}

func TestVerifyAppendingOnFunc(t *testing.T) {
	m := NewModule("x")
	m.AppendFunc(&Function{
		Symbol: Symbol{Name: "f", Linkage: Appending},
		Result: "void",
		Body:   []string{"ret"},
	})
	err := Verify(m)
	if err == nil || !strings.Contains(err.Error(), "only valid on globals") {
		t.Errorf("expected appending rejection, got %v", err)
	}
}
