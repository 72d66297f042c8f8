package verifier

import (
	"crypto/sha256"
	"crypto/subtle"
)

// DigestScheme names the placeholder verifier used outside production: the
// verification key holds the SHA-256 digest the proof payload must hash to.
const DigestScheme = "sha256-digest"

// Digest accepts a proof whose payload hashes to the key's stored digest.
// It stands in for a real pairing-based verifier in dev and test setups.
func Digest() ProofVerifier {
	return Func(func(key VerificationKey, proof Proof) bool {
		if key.Scheme != DigestScheme || len(proof.Data) == 0 {
			return false
		}
		sum := sha256.Sum256(proof.Data)
		return subtle.ConstantTimeCompare(sum[:], key.Data) == 1
	})
}
