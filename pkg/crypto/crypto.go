package crypto

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github.com/rodneyosodo/mosaic/model"
	"github.com/rodneyosodo/mosaic/pkg/errors"
)

// Verifier authenticates an update before the coordinator is allowed to
// record it. An update failing verification is never applied to round
// state.
type Verifier interface {
	Verify(update model.Update, publicKey []byte) error
}

// Digest computes the canonical SHA3-256 digest an update is signed
// over. Fields are length-framed so no two distinct updates share a
// digest.
func Digest(u model.Update) [32]byte {
	h := sha3.New256()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], u.RoundID)
	h.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], uint64(len(u.ParticipantID)))
	h.Write(buf[:])
	h.Write([]byte(u.ParticipantID))

	binary.BigEndian.PutUint64(buf[:], uint64(len(u.Payload)))
	h.Write(buf[:])
	h.Write(u.Payload)

	binary.BigEndian.PutUint64(buf[:], u.NumSamples)
	h.Write(buf[:])

	var digest [32]byte
	h.Sum(digest[:0])

	return digest
}

type ed25519Verifier struct{}

func NewEd25519Verifier() Verifier {
	return ed25519Verifier{}
}

func (ed25519Verifier) Verify(update model.Update, publicKey []byte) error {
	if len(publicKey) != ed25519.PublicKeySize || len(update.Signature) != ed25519.SignatureSize {
		return errors.ErrAuthenticationFailed
	}

	digest := Digest(update)
	if !ed25519.Verify(ed25519.PublicKey(publicKey), digest[:], update.Signature) {
		return errors.ErrAuthenticationFailed
	}

	return nil
}

// Sign produces the signature a participant attaches to an update.
// Server-side it only backs tests and the provisioning CLI.
func Sign(priv ed25519.PrivateKey, update model.Update) []byte {
	digest := Digest(update)

	return ed25519.Sign(priv, digest[:])
}

// TokenIssuer mints per-round session tokens for admitted participants.
// Tokens are HMAC-SHA256 over (round id, participant id) under a server
// key, so they are cheap to validate and cannot be transferred across
// rounds.
type TokenIssuer struct {
	key []byte
}

func NewTokenIssuer(key []byte) TokenIssuer {
	return TokenIssuer{key: key}
}

func (t TokenIssuer) Issue(roundID uint64, participantID string) string {
	mac := hmac.New(sha256.New, t.key)

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], roundID)
	mac.Write(buf[:])
	mac.Write([]byte(participantID))

	return hex.EncodeToString(mac.Sum(nil))
}

func (t TokenIssuer) Validate(token string, roundID uint64, participantID string) bool {
	want := t.Issue(roundID, participantID)

	return hmac.Equal([]byte(token), []byte(want))
}
