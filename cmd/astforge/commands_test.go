package main

import (
	"bytes"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCmd_Flags(t *testing.T) {
	for _, name := range []string{"clean-all", "debug", "test"} {
		flag := buildCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestBuildCmd_RejectsArguments(t *testing.T) {
	assert.Error(t, buildCmd.Args(buildCmd, []string{"extra"}))
	assert.NoError(t, buildCmd.Args(buildCmd, nil))
}

func TestTranspileCmd_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{name: "import-only", shorthand: "i", def: "false"},
		{name: "filter", shorthand: "f", def: ""},
		{name: "jobs", shorthand: "j", def: strconv.Itoa(runtime.NumCPU())},
		{name: "lenient-import", def: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := transpileCmd.Flags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
			assert.Equal(t, tt.def, flag.DefValue)
		})
	}
}

func TestTranspileCmd_RequiresCompileDB(t *testing.T) {
	assert.Error(t, transpileCmd.Args(transpileCmd, nil))
	assert.Error(t, transpileCmd.Args(transpileCmd, []string{"a.json", "b.json"}))
	assert.NoError(t, transpileCmd.Args(transpileCmd, []string{"compile_commands.json"}))
}

func TestTranspileCmd_RejectsZeroJobs(t *testing.T) {
	old := transpileJobs
	transpileJobs = 0
	defer func() { transpileJobs = old }()

	err := runTranspile(transpileCmd, []string{"compile_commands.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--jobs must be at least 1")
}

func TestVersionCmd_Output(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, out.String(), "astforge "+version)
	assert.Contains(t, out.String(), "commit: "+commit)
	assert.Contains(t, out.String(), "go:     "+runtime.Version())
}
