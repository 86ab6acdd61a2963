package link

import (
	"context"
	"os"
	"testing"

	mlerrors "github.com/modlink/modlink/errors"
	"github.com/modlink/modlink/ir"
	"github.com/modlink/modlink/summary"
)

// mapLoader serves modules from in-memory text.
type mapLoader map[string]string

func (ml mapLoader) Load(ctx context.Context, path string, lazy bool) (*ir.Module, error) {
	text, ok := ml[path]
	if !ok {
		return nil, mlerrors.Load(path, os.ErrNotExist)
	}
	if lazy {
		return ir.ParseBytesLazy(path, []byte(text))
	}
	return ir.ParseBytes(path, []byte(text))
}

func TestLinkFilesMergesInOrder(t *testing.T) {
	files := mapLoader{
		"a.mir": `module "a"
func @f weak () -> i32 {
  ret 1
}
`,
		"b.mir": `module "b"
func @f weak () -> i32 {
  ret 2
}
global @g external i32 = 3
`,
	}
	l := New(ir.NewModule("out"))
	s := NewSequencer(l, files, nil)

	if err := s.LinkFiles(context.Background(), []string{"a.mir", "b.mir"}, FlagNone); err != nil {
		t.Fatal(err)
	}

	if got := l.Composite().Func("f").Body[0]; got != "ret 1" {
		t.Errorf("first weak definition should win, got %q", got)
	}
	if l.Composite().GlobalVar("g") == nil {
		t.Error("composite missing @g")
	}
}

func TestLinkFilesFirstFileSuppression(t *testing.T) {
	files := mapLoader{
		"a.mir": `module "a"
func @a external () -> i32 {
  %0 = call @need
  ret %0
}
func @need external () -> i32
`,
		"b.mir": `module "b"
func @need external () -> i32 {
  ret 5
}
func @extra external () -> i32 {
  ret 6
}
`,
	}
	l := New(ir.NewModule("out"))
	s := NewSequencer(l, files, nil)

	flags := FlagInternalizeLinkedSymbols | FlagLinkOnlyNeeded
	if err := s.LinkFiles(context.Background(), []string{"a.mir", "b.mir"}, flags); err != nil {
		t.Fatal(err)
	}
	out := l.Composite()

	// The first file is linked in full with nothing internalized.
	if got := out.Func("a").Linkage; got != ir.External {
		t.Errorf("first file must not be internalized, @a is %s", got)
	}
	// From the second file on, both behaviors apply.
	need := out.Func("need")
	if need == nil || need.IsDeclaration() {
		t.Fatal("needed definition not linked from second file")
	}
	if need.Linkage != ir.Internal {
		t.Errorf("@need should be internalized, got %s", need.Linkage)
	}
	if out.Func("extra") != nil {
		t.Error("only-needed must drop unreferenced second-file definitions")
	}
}

func TestLinkFilesSuppressionResetsPerCall(t *testing.T) {
	files := mapLoader{
		"a.mir": `module "a"
func @a external () -> i32 {
  ret 1
}
`,
		"b.mir": `module "b"
func @b external () -> i32 {
  ret 2
}
`,
	}
	l := New(ir.NewModule("out"))
	s := NewSequencer(l, files, nil)
	ctx := context.Background()

	if err := s.LinkFiles(ctx, []string{"a.mir"}, FlagInternalizeLinkedSymbols); err != nil {
		t.Fatal(err)
	}
	if err := s.LinkFiles(ctx, []string{"b.mir"}, FlagInternalizeLinkedSymbols); err != nil {
		t.Fatal(err)
	}

	// Each call starts a fresh list, so its first file is exempt too.
	if got := l.Composite().Func("b").Linkage; got != ir.External {
		t.Errorf("first file of a new call must not be internalized, got %s", got)
	}
}

func TestLinkFilesOverridePassesThroughFirstFile(t *testing.T) {
	files := mapLoader{
		"a.mir": `module "a"
func @f external () -> i32 {
  ret 1
}
`,
		"b.mir": `module "b"
func @f external () -> i32 {
  ret 2
}
`,
	}
	l := New(ir.NewModule("out"))
	s := NewSequencer(l, files, nil)

	err := s.LinkFiles(context.Background(), []string{"a.mir", "b.mir"}, FlagOverrideFromSrc)
	if err != nil {
		t.Fatal(err)
	}
	if got := l.Composite().Func("f").Body[0]; got != "ret 2" {
		t.Errorf("override must apply across the whole list, got %q", got)
	}
}

func TestLinkFilesLoadErrorFatal(t *testing.T) {
	l := New(ir.NewModule("out"))
	s := NewSequencer(l, mapLoader{}, nil)

	err := s.LinkFiles(context.Background(), []string{"missing.mir"}, FlagNone)
	wantKind(t, err, mlerrors.PhaseLoad, mlerrors.KindFileMissing)
}

func TestLinkFilesPromotionSkipsModule(t *testing.T) {
	files := mapLoader{
		"a.mir": `module "a"
func @priv internal () -> i32 {
  ret 1
}
`,
		"b.mir": `module "b"
func @f external () -> i32 {
  ret 2
}
`,
	}
	l := New(ir.NewModule("out"))
	// An empty index cannot account for @priv, so a.mir is dropped as
	// already satisfied. The walk continues with the remaining files.
	s := NewSequencer(l, files, &summary.Index{})

	if err := s.LinkFiles(context.Background(), []string{"a.mir", "b.mir"}, FlagNone); err != nil {
		t.Fatal(err)
	}
	out := l.Composite()
	if len(out.Funcs) != 1 || out.Func("f") == nil {
		t.Errorf("want only @f from b.mir, got %v", out.SymbolNames())
	}
}

func TestLinkFilesOverrideListWins(t *testing.T) {
	files := mapLoader{
		"a.mir": `module "a"
func @k external () -> i32 {
  ret 1
}
`,
		"b.mir": `module "b"
func @k external () -> i32 {
  ret 2
}
`,
	}
	l := New(ir.NewModule("out"))
	s := NewSequencer(l, files, nil)
	ctx := context.Background()

	// Primary pass without override semantics, then the override list.
	if err := s.LinkFiles(ctx, []string{"a.mir"}, FlagNone); err != nil {
		t.Fatal(err)
	}
	if err := s.LinkFiles(ctx, []string{"b.mir"}, FlagOverrideFromSrc); err != nil {
		t.Fatal(err)
	}
	if got := l.Composite().Func("k").Body[0]; got != "ret 2" {
		t.Errorf("override list must win, got %q", got)
	}
}
