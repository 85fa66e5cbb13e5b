package compdb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/astforge/internal/testutil/mocks"
)

func TestObjectPath(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{
			name:  "command with -o",
			entry: Entry{Directory: "/src", File: "foo.c", Command: "cc -c foo.c -o build/out.o"},
			want:  "/src/build/out.o",
		},
		{
			name:  "arguments with -o",
			entry: Entry{Directory: "/src", File: "foo.c", Arguments: []string{"cc", "-c", "-o", "build/out.o", "foo.c"}},
			want:  "/src/build/out.o",
		},
		{
			name:  "absolute -o",
			entry: Entry{Directory: "/src", File: "foo.c", Command: "cc -o /tmp/obj/foo.o -c foo.c"},
			want:  "/tmp/obj/foo.o",
		},
		{
			name:  "first -o wins",
			entry: Entry{Directory: "/src", File: "foo.c", Command: "cc -o a.o -c foo.c -o b.o"},
			want:  "/src/a.o",
		},
		{
			name:  "no -o",
			entry: Entry{Directory: "/src", File: "foo.c", Command: "cc -c foo.c"},
			want:  "/src/foo.o",
		},
		{
			name:  "no -o in arguments",
			entry: Entry{Directory: "/src", File: "lib/foo.c", Arguments: []string{"cc", "-c", "lib/foo.c"}},
			want:  "/src/lib/foo.o",
		},
		{
			name:  "-o to a non-object",
			entry: Entry{Directory: "/src", File: "foo.c", Command: "cc -E foo.c -o foo.i"},
			want:  "/src/foo.o",
		},
		{
			name:  "-o glued to its value",
			entry: Entry{Directory: "/src", File: "foo.c", Command: "cc -c foo.c -obuild/out.o"},
			want:  "/src/foo.o",
		},
		{
			name:  ".c inside directory names is kept",
			entry: Entry{Directory: "/src/lib.c", File: "foo.c", Command: "cc -c foo.c"},
			want:  "/src/lib.c/foo.o",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectPath(tt.entry))
		})
	}
}

func TestLocate(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/src/build/out.o", "ELF")

	path, ok := Locate(fs, Entry{Directory: "/src", File: "foo.c", Command: "cc -c foo.c -o build/out.o"})
	assert.True(t, ok)
	assert.Equal(t, "/src/build/out.o", path)

	path, ok = Locate(fs, Entry{Directory: "/src", File: "bar.c", Command: "cc -c bar.c"})
	assert.False(t, ok)
	assert.Empty(t, path)
}
