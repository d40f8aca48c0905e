package token

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	data, err := hex.DecodeString("118a08c9d4cc46c576282e0daf050bbdb04f03313e35e5db3f3def69fa1eeec42b15a9cd4bef2cd809e464570d2a6cbd9bcc64e32ea4ebbcf748757bbb3dd5bd000084e2506ce67c000000000000000000000000000000000000000000000000000000000000000000000000010000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)

	mint, err := base58.Decode("2BU1Xgyzqixhjaq9Pa5cNsaa1gSejLeNtDaDRv29qoZm")
	require.NoError(t, err)

	var a Account
	require.True(t, a.Unmarshal(data))
	assert.Equal(t, mint, []byte(a.Mint))
	assert.Equal(t, uint64(9e13*1e5), a.Amount)
	assert.Empty(t, a.Delegate)
	assert.Empty(t, a.CloseAuthority)

	var rtt Account
	rtt.Unmarshal(a.Marshal())
	assert.Equal(t, a, rtt)
}

func TestRoundTrip(t *testing.T) {
	mint := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := 0; i < len(mint); i++ {
		mint[i] = 1
	}
	owner := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := 0; i < len(owner); i++ {
		owner[i] = 2
	}
	delegate := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := 0; i < len(delegate); i++ {
		delegate[i] = 3
	}
	closeAuthority := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := 0; i < len(closeAuthority); i++ {
		closeAuthority[i] = 2
	}

	isNative := uint64(2)
	expected := Account{
		Mint:           mint,
		Owner:          owner,
		Amount:         10,
		Delegate:       delegate,
		State:          AccountStateFrozen,
		IsNative:       &isNative,
		CloseAuthority: closeAuthority,
	}

	var actual Account
	require.True(t, actual.Unmarshal(expected.Marshal()))
	assert.Equal(t, expected, actual)
}

func TestUnmarshal_Invalid(t *testing.T) {
	var a Account
	assert.False(t, a.Unmarshal(make([]byte, AccountSize-1)))
	assert.False(t, a.Unmarshal(make([]byte, AccountSize+1)))

	require.True(t, a.Unmarshal(make([]byte, AccountSize)))
	assert.False(t, a.IsInitialized())
	assert.False(t, a.IsFrozen())
}

func TestUnmarshal_ResetsOptionals(t *testing.T) {
	delegate := make(ed25519.PublicKey, ed25519.PublicKeySize)
	delegate[0] = 9

	withDelegate := Account{
		Mint:     make(ed25519.PublicKey, ed25519.PublicKeySize),
		Owner:    make(ed25519.PublicKey, ed25519.PublicKeySize),
		Delegate: delegate,
		State:    AccountStateInitialized,
	}
	withoutDelegate := withDelegate
	withoutDelegate.Delegate = nil

	var a Account
	require.True(t, a.Unmarshal(withDelegate.Marshal()))
	assert.EqualValues(t, delegate, a.Delegate)

	require.True(t, a.Unmarshal(withoutDelegate.Marshal()))
	assert.Nil(t, a.Delegate)
	assert.True(t, a.IsInitialized())
	assert.Contains(t, a.String(), "amount=0")
}
