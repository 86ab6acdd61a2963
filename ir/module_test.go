package ir

import (
	"reflect"
	"testing"
)

func TestRefs(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{"no refs", []string{"%0 = add %1, %2", "ret %0"}, nil},
		{"single ref", []string{"%0 = call @helper, 1"}, []string{"helper"}},
		{
			"dedup and order",
			[]string{"%0 = call @a", "%1 = call @b, @a", "store @b"},
			[]string{"a", "b"},
		},
		{"dotted names", []string{"call @helper.a1b2c3d4"}, []string{"helper.a1b2c3d4"}},
		{"bare at", []string{"%0 = add @ , %1"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := refsOf(tt.lines)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("refsOf(%v) = %v, want %v", tt.lines, got, tt.want)
			}
		})
	}
}

func TestRenameSymbol(t *testing.T) {
	m, err := ParseBytes("a.mir", []byte(sampleText))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	helper := m.Func("helper")
	m.RenameSymbol(helper, "helper.deadbeef")

	if m.Func("helper") != nil {
		t.Error("old name still resolves")
	}
	if m.Func("helper.deadbeef") == nil {
		t.Fatal("new name does not resolve")
	}

	main := m.Func("main")
	if main.Body[0] != "%0 = call @helper.deadbeef, 41" {
		t.Errorf("call site not rewritten: %q", main.Body[0])
	}
	table := m.GlobalVar("table")
	if !reflect.DeepEqual(table.Init, []string{"@helper.deadbeef", "@main"}) {
		t.Errorf("initializer not rewritten: %v", table.Init)
	}
}

func TestRenameSymbolDoesNotClobberPrefixes(t *testing.T) {
	m := NewModule("t")
	m.AppendFunc(&Function{
		Symbol: Symbol{Name: "f", Linkage: Internal},
		Result: "void",
		Body:   []string{"call @f", "call @f2"},
	})
	m.AppendFunc(&Function{
		Symbol: Symbol{Name: "f2", Linkage: External},
		Result: "void",
		Body:   []string{},
	})

	m.RenameSymbol(m.Func("f"), "g")

	body := m.Func("g").Body
	if body[0] != "call @g" || body[1] != "call @f2" {
		t.Errorf("rewrite touched the wrong tokens: %v", body)
	}
}

func TestRemoveNamedValue(t *testing.T) {
	m, _ := ParseBytes("a.mir", []byte(sampleText))

	if !m.RemoveNamedValue("counter") {
		t.Fatal("expected removal of @counter")
	}
	if m.GlobalVar("counter") != nil {
		t.Error("@counter still present")
	}
	if m.RemoveNamedValue("counter") {
		t.Error("second removal should report false")
	}
	if !m.RemoveNamedValue("log") {
		t.Error("expected removal of @log")
	}
}

func TestConsume(t *testing.T) {
	m := NewModule("x")
	if m.Consumed() {
		t.Error("fresh module reported consumed")
	}
	m.Consume()
	if !m.Consumed() {
		t.Error("Consume did not mark the module")
	}
}

func TestMaterializeMetadataBadLine(t *testing.T) {
	m := NewModule("x")
	m.SetDeferredMetadata([]string{"meta key notquoted"})
	if err := m.MaterializeMetadata(); err == nil {
		t.Error("expected error for malformed deferred metadata")
	}
}
