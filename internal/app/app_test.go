package app

import (
	"github.com/felixgeelhaar/astforge/internal/adapters/logging"
	"github.com/felixgeelhaar/astforge/internal/domain/config"
	"github.com/felixgeelhaar/astforge/internal/domain/platform"
	"github.com/felixgeelhaar/astforge/internal/ports"
	"github.com/felixgeelhaar/astforge/internal/testutil/mocks"
)

const (
	workDB = "/work/compile_commands.json"
	// clangComment is what readelf prints for an object clang built.
	clangComment = "\nString dump of section '.comment':\n  [     0]  clang version 4.0.1 (tags/RELEASE_401/final)\n\n"
	gccComment   = "\nString dump of section '.comment':\n  [     0]  GCC: (Ubuntu 5.4.0-6ubuntu1~16.04.4) 5.4.0 20160609\n\n"
	clangSearch  = "clang -cc1 version 4.0.1 based upon LLVM 4.0.1 default target x86_64-pc-linux-gnu\n" +
		"#include \"...\" search starts here:\n" +
		"#include <...> search starts here:\n" +
		" /usr/local/include\n" +
		" /usr/lib/llvm-4.0/lib/clang/4.0.1/include\n" +
		" /usr/include\n" +
		"End of search list.\n"
)

type fixture struct {
	app    *Astforge
	cfg    *config.Config
	fs     *mocks.FileSystem
	runner *mocks.CommandRunner
}

func newFixture(p *platform.Platform) *fixture {
	fs := mocks.NewFileSystem()
	runner := mocks.NewCommandRunner()
	cfg := config.Defaults("/r")
	a := newAstforge(cfg, logging.NewNopLogger(), runner, fs, mocks.NewUnarchiver(fs), p)
	return &fixture{app: a, cfg: cfg, fs: fs, runner: runner}
}

// withPipelineTools installs the extractor, the importer and a clang
// reporting its search path.
func (f *fixture) withPipelineTools() *fixture {
	f.fs.AddFile(f.cfg.ExtractorPath(), "ELF")
	f.fs.AddFile(f.cfg.Importer, "ELF")
	f.runner.AddHandler(f.cfg.ExtractorPath(), func(cmd ports.Command) (ports.CommandResult, error) {
		return ports.CommandResult{}, f.fs.WriteFile(cmd.Args[2]+".cbor", []byte("cbor"), 0o644)
	})
	f.runner.AddHandler(f.cfg.Importer, func(ports.Command) (ports.CommandResult, error) {
		return ports.CommandResult{}, nil
	})
	f.runner.AddHandler("clang", func(ports.Command) (ports.CommandResult, error) {
		return ports.CommandResult{Stderr: clangSearch}, nil
	})
	return f
}

// withProject writes a compilation database of a.c and b.c with their
// objects, all built by clang.
func (f *fixture) withProject() *fixture {
	f.fs.AddFile(workDB, `[
  {"directory": "/work", "file": "a.c", "arguments": ["clang", "-c", "-o", "a.o", "a.c"]},
  {"directory": "/work", "file": "b.c", "command": "clang -c -o b.o b.c"}
]`)
	for _, name := range []string{"a", "b"} {
		f.fs.AddFile("/work/"+name+".c", "int "+name+";")
		f.fs.AddFile("/work/"+name+".o", "ELF")
		f.runner.AddResult("readelf", []string{"-p", ".comment", "/work/" + name + ".o"},
			ports.CommandResult{Stdout: clangComment})
	}
	return f
}
