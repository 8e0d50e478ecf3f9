package crypto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublicKeyString(t *testing.T) {
	// the system program is 32 zero bytes
	system := MustPublicKeyFromString("11111111111111111111111111111111")
	require.True(t, system.IsZero())
	require.Equal(t, "11111111111111111111111111111111", system.String())
	// the token program
	token, err := NewPublicKeyFromString("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	require.NoError(t, err)
	require.Equal(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", token.String())
	// invalid inputs
	_, err = NewPublicKeyFromString("")
	require.ErrorIs(t, err, ErrEmptyString)
	_, err = NewPublicKeyFromString("abc")
	require.ErrorIs(t, err, ErrPublicKeySize)
	_, err = NewPublicKeyFromString("0OIl")
	require.Error(t, err)
}

func TestPublicKeyJSON(t *testing.T) {
	pk := NewRandomPublicKey()
	bz, err := json.Marshal(struct {
		Key PublicKey `json:"key"`
	}{pk})
	require.NoError(t, err)
	require.Equal(t, `{"key":"`+pk.String()+`"}`, string(bz))
	got := struct {
		Key PublicKey `json:"key"`
	}{}
	require.NoError(t, json.Unmarshal(bz, &got))
	require.Equal(t, pk, got.Key)
}

func TestNewRandomPublicKeyIsOnCurve(t *testing.T) {
	seen := make(map[PublicKey]struct{})
	for i := 0; i < 64; i++ {
		pk := NewRandomPublicKey()
		require.True(t, IsOnCurve(pk[:]))
		seen[pk] = struct{}{}
	}
	require.Len(t, seen, 64)
}
