package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  New(KindInternal, "boom"),
			want: "boom",
		},
		{
			name: "with op and context",
			err:  NotFound("ast-extractor", "/opt/llvm.build/bin/ast-extractor").WithOp("transpile"),
			want: "transpile: ast-extractor not found (/opt/llvm.build/bin/ast-extractor)",
		},
		{
			name: "with underlying",
			err:  Malformed("cannot parse compilation database").WithUnderlying(errors.New("unexpected EOF")),
			want: "cannot parse compilation database: unexpected EOF",
		},
		{
			name: "process with signal",
			err:  Process("ast-extractor -p . a.c", -1, "SIGSEGV"),
			want: "command received signal SIGSEGV (ast-extractor -p . a.c)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("extract a.c: %w", Trust("expected signature not found"))

	assert.True(t, errors.Is(err, New(KindTrustFailed, "")))
	assert.False(t, errors.Is(err, New(KindNotFound, "")))
	assert.True(t, IsKind(err, KindTrustFailed))
	assert.Equal(t, KindTrustFailed, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestError_BuildersCopy(t *testing.T) {
	base := New(KindMalformedInput, "missing marker")
	derived := base.WithOp("configure").WithContext("build.ninja")

	assert.Empty(t, base.Op)
	assert.Empty(t, base.Context)
	assert.Equal(t, "configure", derived.Op)
	assert.Equal(t, "build.ninja", derived.Context)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("x"), 1},
		{"process exit code mirrored", Process("ninja ast-extractor", 2, ""), 2},
		{"process wrapped", fmt.Errorf("build: %w", Process("cmake", 7, "")), 7},
		{"process signal", Process("ast-extractor", -1, "SIGSEGV"), 128 + 11},
		{"process unknown signal", Process("ast-extractor", -1, "SIGBOGUS"), 1},
		{"process negative code", Process("ast-extractor", -1, ""), 1},
		{"not found", NotFound("gpg", ""), 2},
		{"trust", Trust("bad signature"), 1},
		{"provenance", New(KindProvenanceMismatch, "gcc objects"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
