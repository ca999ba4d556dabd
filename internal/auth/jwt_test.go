package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret")

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCodec(t *testing.T) (*Codec, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Unix(1700000000, 0).UTC()}
	c, err := NewCodec(testSecret, WithClock(clock.Now))
	require.NoError(t, err)
	return c, clock
}

func signRaw(secret []byte, header, payload string) string {
	h := base64.RawURLEncoding.EncodeToString([]byte(header))
	p := base64.RawURLEncoding.EncodeToString([]byte(payload))
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(h + "." + p))
	return h + "." + p + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

const stdHeader = `{"alg":"HS256","typ":"JWT"}`

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSecret)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "JWT_SECRET", cfgErr.Key)
}

func TestZeroCodecMintFailsWithConfigurationError(t *testing.T) {
	var c Codec
	_, _, err := c.Mint(SubjectClaims{Subject: "u", Tier: TierFree}, time.Minute)
	assert.ErrorIs(t, err, ErrMissingSecret)
	assert.Equal(t, StatusInvalid, c.Verify("a.b.c").Status)
}

func TestMintAndVerify(t *testing.T) {
	c, clock := newTestCodec(t)
	lapse := time.Unix(1800000000, 0).UTC()

	tok, minted, err := c.Mint(SubjectClaims{
		Subject:       "user-1",
		Email:         "user@example.com",
		Tier:          TierPlus,
		TierExpiresAt: &lapse,
	}, time.Hour)
	require.NoError(t, err)
	require.Len(t, strings.Split(tok, "."), 3)

	assert.Equal(t, clock.Now().Unix(), minted.IssuedAt.Unix())
	assert.Equal(t, clock.Now().Add(time.Hour).Unix(), minted.ExpiresAt.Unix())

	v := c.Verify(tok)
	require.Equal(t, StatusValid, v.Status, "reason %s", v.Reason)
	assert.Equal(t, ReasonNone, v.Reason)
	assert.Equal(t, "user-1", v.Claims.Subject)
	assert.Equal(t, "user@example.com", v.Claims.Email)
	assert.Equal(t, TierPlus, v.Claims.Tier)
	require.NotNil(t, v.Claims.TierExpiresAt)
	assert.Equal(t, lapse.Unix(), v.Claims.TierExpiresAt.Unix())
	assert.Equal(t, minted.IssuedAt.Unix(), v.Claims.IssuedAt.Unix())
	assert.Equal(t, minted.ExpiresAt.Unix(), v.Claims.ExpiresAt.Unix())
}

func TestMintIsCompatibleWithPlainHMACVerifiers(t *testing.T) {
	c, _ := newTestCodec(t)
	tok, _, err := c.Mint(SubjectClaims{Subject: "user-1", Tier: TierFree}, time.Minute)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.Equal(t, stdHeader, string(header))
	assert.NotContains(t, tok, "=")

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.Equal(t, `{"sub":"user-1","tier":"free","iat":1700000000,"exp":1700000060}`, string(payload))

	mac := hmac.New(sha256.New, testSecret)
	mac.Write([]byte(parts[0] + "." + parts[1]))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), parts[2])
}

func TestMintRejectsInvalidInput(t *testing.T) {
	c, _ := newTestCodec(t)

	cases := []struct {
		name string
		sc   SubjectClaims
		ttl  time.Duration
	}{
		{"empty subject", SubjectClaims{Tier: TierFree}, time.Minute},
		{"unknown tier", SubjectClaims{Subject: "u", Tier: "gold"}, time.Minute},
		{"empty tier", SubjectClaims{Subject: "u"}, time.Minute},
		{"zero ttl", SubjectClaims{Subject: "u", Tier: TierFree}, 0},
		{"sub-second ttl", SubjectClaims{Subject: "u", Tier: TierFree}, 500 * time.Millisecond},
		{"negative ttl", SubjectClaims{Subject: "u", Tier: TierFree}, -time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := c.Mint(tc.sc, tc.ttl)
			assert.ErrorIs(t, err, ErrInvalidClaims)
		})
	}
}

func TestVerifyRejectsSignatureBitFlips(t *testing.T) {
	c, _ := newTestCodec(t)
	tok, _, err := c.Mint(SubjectClaims{Subject: "user-1", Tier: TierPro}, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	for i := 0; i < len(sig)*8; i++ {
		flipped := append([]byte(nil), sig...)
		flipped[i/8] ^= 1 << (i % 8)
		forged := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(flipped)

		v := c.Verify(forged)
		if v.Status != StatusInvalid || v.Reason != ReasonBadSignature {
			t.Fatalf("bit %d: got %s/%s, want invalid/bad_signature", i, v.Status, v.Reason)
		}
	}
}

func TestVerifyRejectsEncodedSignatureBitFlips(t *testing.T) {
	c, clock := newTestCodec(t)

	for n := 0; n < 20; n++ {
		tok, _, err := c.Mint(SubjectClaims{Subject: fmt.Sprintf("user-%d", n), Tier: TierPlus}, time.Hour)
		require.NoError(t, err)
		clock.Advance(time.Second)

		sigStart := strings.LastIndexByte(tok, '.') + 1
		for i := sigStart; i < len(tok); i++ {
			for bit := 0; bit < 8; bit++ {
				b := []byte(tok)
				b[i] ^= 1 << bit
				forged := string(b)

				v := c.Verify(forged)
				want := ReasonBadSignature
				if b[i] == '.' {
					// An extra separator changes the segment count.
					want = ReasonMalformed
				}
				if v.Status != StatusInvalid || v.Reason != want {
					t.Fatalf("token %d char %d bit %d (%q -> %q): got %s/%s, want invalid/%s",
						n, i-sigStart, bit, tok[i], b[i], v.Status, v.Reason, want)
				}
			}
		}
	}
}

func TestVerifyRejectsNonCanonicalSignatureEncoding(t *testing.T) {
	c, _ := newTestCodec(t)
	tok, _, err := c.Mint(SubjectClaims{Subject: "user-1", Tier: TierFree}, time.Hour)
	require.NoError(t, err)
	parts := strings.Split(tok, ".")

	// 32 bytes encode to 43 characters; the last one carries 2 padding bits.
	require.Len(t, parts[2], 43)
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	last := strings.IndexByte(alphabet, parts[2][42])
	require.GreaterOrEqual(t, last, 0)

	for pad := 1; pad < 4; pad++ {
		alt := parts[2][:42] + string(alphabet[last|pad])
		v := c.Verify(parts[0] + "." + parts[1] + "." + alt)
		assert.Equal(t, StatusInvalid, v.Status, "padding bits %d", pad)
		assert.Equal(t, ReasonBadSignature, v.Reason, "padding bits %d", pad)
	}

	for name, sig := range map[string]string{
		"outside alphabet": "***",
		"std padding":      parts[2] + "=",
		"embedded newline": parts[2][:20] + "\n" + parts[2][20:],
	} {
		v := c.Verify(parts[0] + "." + parts[1] + "." + sig)
		assert.Equal(t, StatusInvalid, v.Status, name)
		assert.Equal(t, ReasonBadSignature, v.Reason, name)
	}
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	c, _ := newTestCodec(t)
	other, err := NewCodec([]byte("another-secret"))
	require.NoError(t, err)

	tok, _, err := other.Mint(SubjectClaims{Subject: "user-1", Tier: TierFree}, time.Hour)
	require.NoError(t, err)

	v := c.Verify(tok)
	assert.Equal(t, StatusInvalid, v.Status)
	assert.Equal(t, ReasonBadSignature, v.Reason)
	assert.Nil(t, v.Claims)
}

func TestVerifyExpiry(t *testing.T) {
	c, clock := newTestCodec(t)
	tok, _, err := c.Mint(SubjectClaims{Subject: "user-1", Tier: TierPlus}, time.Second)
	require.NoError(t, err)

	require.Equal(t, StatusValid, c.Verify(tok).Status)

	clock.Advance(time.Second)
	v := c.Verify(tok)
	assert.Equal(t, StatusExpired, v.Status)
	assert.Equal(t, ReasonExpired, v.Reason)
	require.NotNil(t, v.Claims, "expired verification keeps decoded claims")
	assert.Equal(t, "user-1", v.Claims.Subject)
	assert.Equal(t, TierPlus, v.Claims.Tier)

	clock.Advance(time.Hour)
	assert.Equal(t, StatusExpired, c.Verify(tok).Status)
}

func TestVerifyMalformed(t *testing.T) {
	c, _ := newTestCodec(t)
	good, _, err := c.Mint(SubjectClaims{Subject: "user-1", Tier: TierFree}, time.Hour)
	require.NoError(t, err)
	parts := strings.Split(good, ".")

	cases := map[string]string{
		"empty":             "",
		"one segment":       "abc",
		"two segments":      parts[0] + "." + parts[1],
		"four segments":     good + ".x",
		"empty header":      "." + parts[1] + "." + parts[2],
		"empty payload":     parts[0] + ".." + parts[2],
		"empty signature":   parts[0] + "." + parts[1] + ".",
		"payload not json":  signRaw(testSecret, stdHeader, "not json"),
		"header not json":   signRaw(testSecret, "nope", `{"sub":"u","tier":"free","iat":1700000000,"exp":1700000600}`),
		"missing sub":       signRaw(testSecret, stdHeader, `{"tier":"free","iat":1700000000,"exp":1700000600}`),
		"missing exp":       signRaw(testSecret, stdHeader, `{"sub":"u","tier":"free","iat":1700000000}`),
		"missing iat":       signRaw(testSecret, stdHeader, `{"sub":"u","tier":"free","exp":1700000600}`),
		"unknown tier":      signRaw(testSecret, stdHeader, `{"sub":"u","tier":"gold","iat":1700000000,"exp":1700000600}`),
		"exp before iat":    signRaw(testSecret, stdHeader, `{"sub":"u","tier":"free","iat":1700000000,"exp":1699999999}`),
		"wrong field types": signRaw(testSecret, stdHeader, `{"sub":1,"tier":"free","iat":1700000000,"exp":1700000600}`),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			v := c.Verify(tok)
			assert.Equal(t, StatusInvalid, v.Status)
			assert.Equal(t, ReasonMalformed, v.Reason)
			assert.Nil(t, v.Claims)
		})
	}
}

func TestVerifyRejectsNonHS256Header(t *testing.T) {
	c, _ := newTestCodec(t)
	tok := signRaw(testSecret, `{"alg":"none","typ":"JWT"}`, `{"sub":"u","tier":"free","iat":1700000000,"exp":1700000600}`)
	v := c.Verify(tok)
	assert.Equal(t, StatusInvalid, v.Status)
}

func TestVerifyMissingTierDefaultsToFree(t *testing.T) {
	c, _ := newTestCodec(t)
	tok := signRaw(testSecret, stdHeader, `{"sub":"u","iat":1700000000,"exp":1700000600}`)
	v := c.Verify(tok)
	require.Equal(t, StatusValid, v.Status, "reason %s", v.Reason)
	assert.Equal(t, TierFree, v.Claims.Tier)
}

func TestVerifyIssuedInFuture(t *testing.T) {
	c, _ := newTestCodec(t)
	tok := signRaw(testSecret, stdHeader, `{"sub":"u","tier":"free","iat":1700000100,"exp":1700000600}`)
	v := c.Verify(tok)
	assert.Equal(t, StatusInvalid, v.Status)
	assert.Equal(t, ReasonNotYetValid, v.Reason)
}

func TestMintVerifyRandomClaims(t *testing.T) {
	c, _ := newTestCodec(t)
	rng := rand.New(rand.NewSource(42))
	tiers := []Tier{TierFree, TierPlus, TierPro}

	for i := 0; i < 1000; i++ {
		sc := SubjectClaims{
			Subject: fmt.Sprintf("user-%d-%x", i, rng.Int63()),
			Tier:    tiers[rng.Intn(len(tiers))],
		}
		if rng.Intn(2) == 0 {
			sc.Email = fmt.Sprintf("u%d+%s@example.com", i, strings.Repeat("é", rng.Intn(3)))
		}
		if rng.Intn(2) == 0 {
			lapse := time.Unix(1700000000+rng.Int63n(1e8), 0).UTC()
			sc.TierExpiresAt = &lapse
		}
		ttl := time.Duration(1+rng.Intn(86400)) * time.Second

		tok, _, err := c.Mint(sc, ttl)
		require.NoError(t, err)

		v := c.Verify(tok)
		require.Equal(t, StatusValid, v.Status, "iteration %d: %s", i, v.Reason)
		assert.Equal(t, sc, v.Claims.SubjectClaims(), "iteration %d", i)
		assert.Equal(t, int64(ttl/time.Second), v.Claims.ExpiresAt.Unix()-v.Claims.IssuedAt.Unix())
	}
}

func TestTierOrdering(t *testing.T) {
	assert.True(t, TierPro.AtLeast(TierPlus))
	assert.True(t, TierPlus.AtLeast(TierPlus))
	assert.False(t, TierFree.AtLeast(TierPlus))
	assert.False(t, Tier("gold").AtLeast(TierFree))

	_, err := ParseTier("enterprise")
	assert.Error(t, err)
	got, err := ParseTier("pro")
	require.NoError(t, err)
	assert.Equal(t, TierPro, got)
}
