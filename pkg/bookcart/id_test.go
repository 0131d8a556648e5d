package bookcart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDPreservesJSONToken(t *testing.T) {
	var payload struct {
		Num ID `json:"num"`
		Str ID `json:"str"`
		Nil ID `json:"nil"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"num": 42, "str": "b-7", "nil": null}`), &payload))

	assert.Equal(t, "42", payload.Num.String())
	assert.Equal(t, "b-7", payload.Str.String())
	assert.True(t, payload.Nil.IsZero())

	out, err := json.Marshal(map[string]ID{"num": payload.Num, "str": payload.Str})
	require.NoError(t, err)
	assert.JSONEq(t, `{"num": 42, "str": "b-7"}`, string(out))
}

func TestIDEqual(t *testing.T) {
	assert.True(t, IntID(7).Equal(IntID(7)))
	assert.True(t, StringID("b-7").Equal(StringID("b-7")))
	assert.False(t, IntID(7).Equal(IntID(8)))
	assert.False(t, ID{}.Equal(ID{}))
	assert.False(t, IntID(7).Equal(ID{}))
}

func TestIDEqualKeepsJSONKind(t *testing.T) {
	assert.False(t, IntID(7).Equal(StringID("7")))
	assert.False(t, StringID("7").Equal(IntID(7)))

	var f ID
	require.NoError(t, json.Unmarshal([]byte(`7.0`), &f))
	assert.True(t, IntID(7).Equal(f))
}

func TestZeroIDMarshalsNull(t *testing.T) {
	out, err := json.Marshal(CartRequest{BookID: IntID(1), Quantity: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId": null, "bookId": 1, "quantity": 1}`, string(out))
}
