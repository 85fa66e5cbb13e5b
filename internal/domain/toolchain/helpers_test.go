package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/packet"

	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
	"github.com/felixgeelhaar/astforge/internal/testutil/mocks"
)

const testIdentity = "Release Signer <signer@example.org>"

var (
	signerOnce sync.Once
	signer     *openpgp.Entity
	signerErr  error
)

// testSigner returns a throwaway signing key shared by the package tests.
func testSigner(t *testing.T) *openpgp.Entity {
	t.Helper()
	signerOnce.Do(func() {
		signer, signerErr = openpgp.NewEntity("Release Signer", "", "signer@example.org", &packet.Config{RSABits: 1024})
	})
	require.NoError(t, signerErr)
	return signer
}

func testKeyID(t *testing.T) string {
	return fmt.Sprintf("%016X", testSigner(t).PrimaryKey.KeyId)
}

func detachSign(t *testing.T, data string, armored bool) []byte {
	t.Helper()
	var sig bytes.Buffer
	var err error
	if armored {
		err = openpgp.ArmoredDetachSign(&sig, testSigner(t), strings.NewReader(data), nil)
	} else {
		err = openpgp.DetachSign(&sig, testSigner(t), strings.NewReader(data), nil)
	}
	require.NoError(t, err)
	return sig.Bytes()
}

// remote simulates the download server: curl writes the registered
// content for a URL to its -o target and fails with 22 otherwise.
type remote struct {
	mu    sync.Mutex
	fs    ports.FileSystem
	files map[string][]byte
}

func newRemote(fs ports.FileSystem) *remote {
	return &remote{fs: fs, files: make(map[string][]byte)}
}

func (r *remote) add(url string, content []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[url] = content
}

func (r *remote) curl(cmd ports.Command) (ports.CommandResult, error) {
	var dest, url string
	for i := 0; i < len(cmd.Args); i++ {
		switch {
		case cmd.Args[i] == "-o" && i+1 < len(cmd.Args):
			dest = cmd.Args[i+1]
			i++
		case !strings.HasPrefix(cmd.Args[i], "-"):
			url = cmd.Args[i]
		}
	}

	r.mu.Lock()
	content, ok := r.files[url]
	r.mu.Unlock()
	if !ok {
		return ports.CommandResult{ExitCode: 22, Stderr: "curl: (22) The requested URL returned error: 404"}, nil
	}
	if err := r.fs.WriteFile(dest, content, 0o644); err != nil {
		return ports.CommandResult{}, err
	}
	return ports.CommandResult{}, nil
}

// gpgHandler answers --recv-key and --verify like gpg would for a good
// signature by identity.
func gpgHandler(identity string, verifyExit int) mocks.CommandHandler {
	return func(cmd ports.Command) (ports.CommandResult, error) {
		if len(cmd.Args) > 0 && cmd.Args[0] == "--verify" {
			return ports.CommandResult{
				ExitCode: verifyExit,
				Stderr:   fmt.Sprintf("gpg: Signature made Tue Jul  4 17:49:52 2017\ngpg: Good signature from %q [unknown]\n", identity),
			}, nil
		}
		return ports.CommandResult{Stderr: "gpg: key imported"}, nil
	}
}

func newTestTools() (Tools, *mocks.FileSystem, *mocks.CommandRunner, *mocks.Unarchiver) {
	fs := mocks.NewFileSystem()
	runner := mocks.NewCommandRunner()
	unarchiver := mocks.NewUnarchiver(fs)
	return Tools{Runner: runner, FS: fs, Unarchiver: unarchiver}, fs, runner, unarchiver
}

func addAllTools(runner *mocks.CommandRunner) {
	for _, name := range RequiredTools {
		runner.AddPath(name, "/usr/bin/"+name)
	}
}

func runCtx() stage.RunContext {
	return stage.NewRunContext(context.Background())
}

func mustCheck(t *testing.T, step stage.Step) stage.StepStatus {
	t.Helper()
	status, err := step.Check(runCtx())
	require.NoError(t, err)
	return status
}
