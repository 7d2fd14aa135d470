package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// SRP-6a over the RFC 5054 2048-bit group with g = 2 and SHA-256.
// Values cross the wire as lowercase hex; group elements are left-padded to
// the byte length of N before hashing.
const rfc5054N2048 = `
AC6BDB41 324A9A9B F166DE5E 1389582F AF72B665 1987EE07 FC319294 3DB56050
A37329CB B4A099ED 8193E075 7767A13D D52312AB 4B03310D CD7F48A9 DA04FD50
E8083969 EDB767B0 CF609517 9A163AB3 661A05FB D5FAAAE8 2918A996 2F0B93B8
55F97993 EC975EEA A80D740A DBF4FF74 7359D041 D5C33EA7 1D281E44 6B14773B
CA97B43A 23FB8016 76BD207A 436C6481 F1D2B907 8717461A 5B9D32E6 88F87748
544523B5 24B0D57D 5EA77A27 75D2ECFA 032CFBDB F52FB378 61602790 04E57AE6
AF874E73 03CE5329 9CCC041C 7BC308D8 2A5698F3 A8D0C382 71AE35F8 E9DBFBB6
94B5C803 D89F7AE4 35DE236D 525F5475 9B65E372 FCD68EF2 0FA7111F 9E4AFF73`

// ephemeralSecretSize is the byte length of the random SRP secrets a and b.
const ephemeralSecretSize = sha256.Size

var (
	ErrProofMismatch       = errors.New("srp proof mismatch")
	ErrInvalidSRPParameter = errors.New("invalid srp parameter")
)

// Group is the fixed set of SRP-6a parameters shared by client and server.
type Group struct {
	N *big.Int
	G *big.Int
	K *big.Int
}

var group = newGroup()

func newGroup() *Group {
	n, ok := new(big.Int).SetString(strings.Join(strings.Fields(rfc5054N2048), ""), 16)
	if !ok {
		panic("cryptox: malformed srp prime")
	}
	g := big.NewInt(2)

	grp := &Group{N: n, G: g}
	grp.K = new(big.Int).SetBytes(Hash(grp.Pad(n), grp.Pad(g)))
	return grp
}

// SRPGroup returns the protocol group. The returned value must not be modified.
func SRPGroup() *Group {
	return group
}

// Size is the byte length of N.
func (g *Group) Size() int {
	return (g.N.BitLen() + 7) / 8
}

// Pad encodes x big-endian, left-padded to the byte length of N.
func (g *Group) Pad(x *big.Int) []byte {
	return x.FillBytes(make([]byte, g.Size()))
}

// Hash is SHA-256 over the concatenation of parts.
func Hash(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// ProofM computes M = H(H(N) xor H(g), H(I), s, A, B, K).
func (g *Group) ProofM(email string, salt []byte, a, b *big.Int, key []byte) []byte {
	hn := Hash(g.N.Bytes())
	hg := Hash(g.G.Bytes())
	for i := range hn {
		hn[i] ^= hg[i]
	}
	return Hash(hn, Hash([]byte(email)), salt, g.Pad(a), g.Pad(b), key)
}

// ProofP computes the server proof P = H(A, M, K).
func (g *Group) ProofP(a *big.Int, m, key []byte) []byte {
	return Hash(g.Pad(a), m, key)
}

var scramble = (*Group).Scramble

// Scramble computes u = H(PAD(A), PAD(B)).
func (g *Group) Scramble(a, b *big.Int) *big.Int {
	return new(big.Int).SetBytes(Hash(g.Pad(a), g.Pad(b)))
}

// ParseHexInt decodes a hex encoded SRP integer.
func ParseHexInt(s string) (*big.Int, error) {
	if s == "" {
		return nil, ErrInvalidSRPParameter
	}
	x, ok := new(big.Int).SetString(s, 16)
	if !ok || x.Sign() < 0 {
		return nil, ErrInvalidSRPParameter
	}
	return x, nil
}

// Ephemeral is a one-shot SRP key pair, hex encoded.
type Ephemeral struct {
	Public string
	Secret string
}

// Session is the outcome of the client side key agreement.
type Session struct {
	Key   string
	Proof string
}

// DerivePrivateKey computes the SRP private key x for the given credentials
// as hex(Stretch(utf8(email + ":" + password), salt)).
func DerivePrivateKey(email, password string, salt []byte) (string, error) {
	input := []byte(email + ":" + password)
	defer Wipe(input)

	x, err := Stretch(input, salt)
	if err != nil {
		return "", err
	}
	defer Wipe(x)

	return hex.EncodeToString(x), nil
}

// DeriveVerifier computes v = g^x mod N.
func DeriveVerifier(privateKey string) (string, error) {
	x, err := ParseHexInt(privateKey)
	if err != nil {
		return "", err
	}
	v := new(big.Int).Exp(group.G, x, group.N)
	return hex.EncodeToString(group.Pad(v)), nil
}

// GenerateEphemeral creates the client key pair a, A = g^a mod N.
func GenerateEphemeral() (Ephemeral, error) {
	raw, err := RandomBytes(ephemeralSecretSize)
	if err != nil {
		return Ephemeral{}, err
	}
	defer Wipe(raw)

	a := new(big.Int).SetBytes(raw)
	pub := new(big.Int).Exp(group.G, a, group.N)

	return Ephemeral{
		Public: hex.EncodeToString(group.Pad(pub)),
		Secret: hex.EncodeToString(raw),
	}, nil
}

// DeriveSession computes the shared key and the client proof from the
// client secret, the server public value B, the salt, the identity and the
// private key. B congruent to zero modulo N is rejected.
func DeriveSession(secret, serverPublic string, salt []byte, email, privateKey string) (Session, error) {
	a, err := ParseHexInt(secret)
	if err != nil {
		return Session{}, fmt.Errorf("client secret: %w", err)
	}
	b, err := ParseHexInt(serverPublic)
	if err != nil {
		return Session{}, fmt.Errorf("server public: %w", err)
	}
	x, err := ParseHexInt(privateKey)
	if err != nil {
		return Session{}, fmt.Errorf("private key: %w", err)
	}

	n := group.N
	if new(big.Int).Mod(b, n).Sign() == 0 {
		return Session{}, fmt.Errorf("server public: %w", ErrInvalidSRPParameter)
	}

	pubA := new(big.Int).Exp(group.G, a, n)
	u := scramble(group, pubA, b)
	if u.Sign() == 0 {
		return Session{}, fmt.Errorf("scrambling parameter: %w", ErrInvalidSRPParameter)
	}

	// S = (B - k*g^x) ^ (a + u*x) mod N
	kv := new(big.Int).Mul(group.K, new(big.Int).Exp(group.G, x, n))
	base := new(big.Int).Sub(b, kv)
	base.Mod(base, n)
	exp := new(big.Int).Add(a, new(big.Int).Mul(u, x))
	s := new(big.Int).Exp(base, exp, n)

	key := Hash(group.Pad(s))
	m := group.ProofM(email, salt, pubA, b, key)

	return Session{
		Key:   hex.EncodeToString(key),
		Proof: hex.EncodeToString(m),
	}, nil
}

// VerifySession checks the server proof P = H(A, M, K) against the locally
// derived session. Any mismatch, including undecodable input, yields
// ErrProofMismatch.
func VerifySession(clientPublic string, session Session, serverProof string) error {
	pubA, err := ParseHexInt(clientPublic)
	if err != nil {
		return ErrProofMismatch
	}
	m, err := hex.DecodeString(session.Proof)
	if err != nil {
		return ErrProofMismatch
	}
	key, err := hex.DecodeString(session.Key)
	if err != nil {
		return ErrProofMismatch
	}
	got, err := hex.DecodeString(serverProof)
	if err != nil {
		return ErrProofMismatch
	}

	expected := group.ProofP(pubA, m, key)
	if subtle.ConstantTimeCompare(expected, got) != 1 {
		return ErrProofMismatch
	}
	return nil
}
