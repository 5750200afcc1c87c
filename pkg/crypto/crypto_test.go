package crypto_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodneyosodo/mosaic/model"
	"github.com/rodneyosodo/mosaic/pkg/crypto"
	pkgerrors "github.com/rodneyosodo/mosaic/pkg/errors"
)

func signedUpdate(t *testing.T) (model.Update, ed25519.PublicKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	update := model.Update{
		RoundID:       7,
		ParticipantID: "participant-1",
		Payload:       []byte("payload"),
		NumSamples:    100,
	}
	update.Signature = crypto.Sign(priv, update)

	return update, pub
}

func TestVerifyValidSignature(t *testing.T) {
	t.Parallel()

	update, pub := signedUpdate(t)

	v := crypto.NewEd25519Verifier()
	assert.NoError(t, v.Verify(update, pub))
}

func TestVerifyRejectsTampering(t *testing.T) {
	t.Parallel()

	v := crypto.NewEd25519Verifier()

	cases := []struct {
		desc   string
		mutate func(u *model.Update)
	}{
		{
			desc:   "payload changed",
			mutate: func(u *model.Update) { u.Payload = []byte("other") },
		},
		{
			desc:   "round changed",
			mutate: func(u *model.Update) { u.RoundID++ },
		},
		{
			desc:   "participant changed",
			mutate: func(u *model.Update) { u.ParticipantID = "participant-2" },
		},
		{
			desc:   "sample count changed",
			mutate: func(u *model.Update) { u.NumSamples++ },
		},
		{
			desc:   "signature truncated",
			mutate: func(u *model.Update) { u.Signature = u.Signature[:10] },
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			update, pub := signedUpdate(t)
			tc.mutate(&update)
			assert.ErrorIs(t, v.Verify(update, pub), pkgerrors.ErrAuthenticationFailed)
		})
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	t.Parallel()

	update, _ := signedUpdate(t)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	v := crypto.NewEd25519Verifier()
	assert.ErrorIs(t, v.Verify(update, otherPub), pkgerrors.ErrAuthenticationFailed)
}

func TestVerifyRejectsMalformedKey(t *testing.T) {
	t.Parallel()

	update, _ := signedUpdate(t)

	v := crypto.NewEd25519Verifier()
	assert.ErrorIs(t, v.Verify(update, []byte("short")), pkgerrors.ErrAuthenticationFailed)
}

func TestDigestLengthFraming(t *testing.T) {
	t.Parallel()

	// The two updates concatenate to the same byte stream without
	// framing; digests must still differ.
	a := model.Update{ParticipantID: "ab", Payload: []byte("c")}
	b := model.Update{ParticipantID: "a", Payload: []byte("bc")}

	assert.NotEqual(t, crypto.Digest(a), crypto.Digest(b))
}

func TestTokenIssueValidate(t *testing.T) {
	t.Parallel()

	issuer := crypto.NewTokenIssuer([]byte("server-key"))

	token := issuer.Issue(3, "participant-1")
	assert.True(t, issuer.Validate(token, 3, "participant-1"))
	assert.False(t, issuer.Validate(token, 4, "participant-1"))
	assert.False(t, issuer.Validate(token, 3, "participant-2"))

	other := crypto.NewTokenIssuer([]byte("other-key"))
	assert.False(t, other.Validate(token, 3, "participant-1"))
}
