// Package srptest implements the server half of the SRP-6a exchange used by
// the client. It exists so that the client stack can be exercised end to end
// in tests without a real backend.
package srptest

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/protopass/internal/cryptox"
)

// Ephemeral is the server key pair b, B = k*v + g^b mod N.
type Ephemeral struct {
	Public string
	Secret string
}

// Session holds the server side result of a successful exchange.
type Session struct {
	Key   string
	Proof string
}

// GenerateEphemeral creates the server key pair for the given verifier.
func GenerateEphemeral(verifier string) (Ephemeral, error) {
	grp := cryptox.SRPGroup()

	v, err := cryptox.ParseHexInt(verifier)
	if err != nil {
		return Ephemeral{}, err
	}

	raw, err := cryptox.RandomBytes(32)
	if err != nil {
		return Ephemeral{}, err
	}
	b := new(big.Int).SetBytes(raw)

	pub := new(big.Int).Mul(grp.K, v)
	pub.Add(pub, new(big.Int).Exp(grp.G, b, grp.N))
	pub.Mod(pub, grp.N)

	return Ephemeral{
		Public: hex.EncodeToString(grp.Pad(pub)),
		Secret: hex.EncodeToString(raw),
	}, nil
}

// DeriveSession verifies the client proof and returns the server proof.
// A wrong password on the client side surfaces here as cryptox.ErrProofMismatch.
func DeriveSession(serverSecret, clientPublic string, salt []byte, email, verifier, clientProof string) (Session, error) {
	grp := cryptox.SRPGroup()

	b, err := cryptox.ParseHexInt(serverSecret)
	if err != nil {
		return Session{}, err
	}
	a, err := cryptox.ParseHexInt(clientPublic)
	if err != nil {
		return Session{}, err
	}
	v, err := cryptox.ParseHexInt(verifier)
	if err != nil {
		return Session{}, err
	}
	if new(big.Int).Mod(a, grp.N).Sign() == 0 {
		return Session{}, fmt.Errorf("client public: %w", cryptox.ErrInvalidSRPParameter)
	}

	pubB := new(big.Int).Mul(grp.K, v)
	pubB.Add(pubB, new(big.Int).Exp(grp.G, b, grp.N))
	pubB.Mod(pubB, grp.N)

	u := grp.Scramble(a, pubB)

	// S = (A * v^u) ^ b mod N
	base := new(big.Int).Mul(a, new(big.Int).Exp(v, u, grp.N))
	base.Mod(base, grp.N)
	s := new(big.Int).Exp(base, b, grp.N)

	key := cryptox.Hash(grp.Pad(s))
	expected := grp.ProofM(email, salt, a, pubB, key)

	got, err := hex.DecodeString(clientProof)
	if err != nil || subtle.ConstantTimeCompare(expected, got) != 1 {
		return Session{}, cryptox.ErrProofMismatch
	}

	return Session{
		Key:   hex.EncodeToString(key),
		Proof: hex.EncodeToString(grp.ProofP(a, expected, key)),
	}, nil
}
