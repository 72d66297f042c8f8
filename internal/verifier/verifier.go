// Package verifier is the boundary to the zero-knowledge proof checker. The
// game core stores opaque verification keys and consumes a boolean verdict;
// the pairing math lives on the other side of the interface.
package verifier

// VerificationKey is stored per (hunt, challenge) and handed to the verifier
// untouched.
type VerificationKey struct {
	Scheme string `json:"scheme"`
	Data   []byte `json:"data"`
}

type Proof struct {
	Data []byte `json:"data"`
}

type ProofVerifier interface {
	Verify(key VerificationKey, proof Proof) bool
}

// Func adapts a plain function to ProofVerifier.
type Func func(key VerificationKey, proof Proof) bool

func (f Func) Verify(key VerificationKey, proof Proof) bool { return f(key, proof) }
