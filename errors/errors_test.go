package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string
	}{
		{
			name: "phase and kind",
			err:  &Error{Phase: PhaseLink, Kind: KindDuplicateSymbol},
			want: []string{"[link]", "duplicate_symbol"},
		},
		{
			name: "module and symbol",
			err:  DuplicateSymbol("b.mir", "f"),
			want: []string{"[link]", "in b.mir", "at @f", "multiply defined"},
		},
		{
			name: "cause included",
			err:  Load("a.mir", fmt.Errorf("no such file")),
			want: []string{"[load]", "in a.mir", "caused by: no such file"},
		},
		{
			name: "malformed request quotes input",
			err:  MalformedRequest("foo/a.mir"),
			want: []string{"[import]", `"foo/a.mir"`, "missing ':'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("Error() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := DuplicateSymbol("b.mir", "f")

	if !stderrors.Is(err, &Error{Phase: PhaseLink, Kind: KindDuplicateSymbol}) {
		t.Error("expected match on phase and kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseImport, Kind: KindDuplicateSymbol}) {
		t.Error("unexpected match across phases")
	}
	if stderrors.Is(err, &Error{Phase: PhaseLink, Kind: KindTypeConflict}) {
		t.Error("unexpected match across kinds")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(PhaseWrite, KindIO, cause, "write output")

	if !stderrors.Is(err, cause) {
		t.Error("expected unwrap to reach the cause")
	}
}
