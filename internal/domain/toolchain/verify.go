package toolchain

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/astforge/internal/domain/config"
	"github.com/felixgeelhaar/astforge/internal/domain/failure"
	"github.com/felixgeelhaar/astforge/internal/domain/stage"
	"github.com/felixgeelhaar/astforge/internal/ports"
)

// Verifier authenticates archives with gpg against a known signer.
//
// Trust requires both a zero gpg exit status and the expected
// "Good signature from" line in its output. Before gpg runs, the
// signature's issuer key id is compared with the configured key.
type Verifier struct {
	tools     Tools
	keyServer string
	publicKey string
	identity  string
}

// NewVerifier creates a Verifier from the LLVM trust settings.
func NewVerifier(cfg config.LLVMConfig, tools Tools) *Verifier {
	return &Verifier{
		tools:     tools,
		keyServer: cfg.KeyServer,
		publicKey: cfg.PublicKey,
		identity:  cfg.SignerIdentity,
	}
}

// ExpectedLine is the gpg output line that proves the signer identity.
func (v *Verifier) ExpectedLine() string {
	return fmt.Sprintf("Good signature from %q", v.identity)
}

// Verify checks archive against its detached signature.
func (v *Verifier) Verify(ctx stage.RunContext, archive, signature string) error {
	name := filepath.Base(archive)
	ctx.Logger().Debug(ctx.Context(), "checking signature", ports.F("archive", name))

	data, err := v.tools.FS.ReadFile(signature)
	if err != nil {
		return failure.NotFound("signature", signature).WithUnderlying(err)
	}
	issuer, err := signatureIssuer(data)
	if err != nil {
		return failure.Trust("unreadable signature for %s", name).WithUnderlying(err)
	}
	if !keyIDMatches(v.publicKey, issuer) {
		return failure.Trust("%s is signed by key %016X, expected %s", name, issuer, v.publicKey)
	}

	recv := ports.NewCommand("gpg", "--keyserver", v.keyServer, "--recv-key", v.publicKey)
	if _, err := v.tools.run(ctx, recv); err != nil {
		return err
	}

	verify := ports.NewCommand("gpg", "--verify", signature, archive)
	result, err := v.tools.Runner.Run(ctx.Context(), verify)
	if err != nil {
		return failure.FromCommand(verify, result, err)
	}
	if !result.Success() {
		return failure.Trust("gpg signature check failed for %s: gpg exit code %d", name, result.ExitCode)
	}
	if !strings.Contains(result.Stderr, v.ExpectedLine()) {
		return failure.Trust("gpg signature check failed for %s: expected signature not found", name)
	}
	return nil
}
