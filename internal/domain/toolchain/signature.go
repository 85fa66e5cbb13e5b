package toolchain

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/packet"
)

var errNoSignature = errors.New("no signature packet")

// signatureIssuer returns the issuer key id of the first signature packet
// in a detached signature, binary or ASCII armored.
func signatureIssuer(data []byte) (uint64, error) {
	var r io.Reader = bytes.NewReader(data)
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")) {
		block, err := armor.Decode(r)
		if err != nil {
			return 0, fmt.Errorf("decoding armor: %w", err)
		}
		r = block.Body
	}

	packets := packet.NewReader(r)
	for {
		p, err := packets.Next()
		if errors.Is(err, io.EOF) {
			return 0, errNoSignature
		}
		if err != nil {
			return 0, fmt.Errorf("reading signature: %w", err)
		}

		switch sig := p.(type) {
		case *packet.Signature:
			if sig.IssuerKeyId == nil {
				return 0, errors.New("signature carries no issuer key id")
			}
			return *sig.IssuerKeyId, nil
		case *packet.SignatureV3:
			return sig.IssuerKeyId, nil
		}
	}
}

// keyIDMatches reports whether issuer is the long key id of configured,
// which may be a 16 digit key id or a full fingerprint.
func keyIDMatches(configured string, issuer uint64) bool {
	want := strings.ToUpper(strings.TrimPrefix(strings.ReplaceAll(configured, " ", ""), "0x"))
	return want != "" && strings.HasSuffix(want, fmt.Sprintf("%016X", issuer))
}
