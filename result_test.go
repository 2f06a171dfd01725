// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type notFound struct {
	ID int `json:"id" cbor:"id"`
}

func TestResult(t *testing.T) {
	require := require.New(t)

	ok := Ok[string, notFound]("ada")
	require.False(ok.Failed())
	v, e := ok.Get()
	require.Equal("ada", v)
	require.Nil(e)

	failed := Fail[string](notFound{ID: 7})
	require.True(failed.Failed())
	v, e = failed.Get()
	require.Empty(v)
	require.Equal(&notFound{ID: 7}, e)

	var zero Result[string, notFound]
	require.False(zero.Failed())
	v, e = zero.Get()
	require.Empty(v)
	require.Nil(e)
}

func TestResultWire(t *testing.T) {
	require := require.New(t)

	data, err := JSONCodec{}.Encode(Ok[int, notFound](1))
	require.NoError(err)
	require.Equal(`{"ok":1}`, string(data))

	data, err = JSONCodec{}.Encode(Fail[int](notFound{ID: 2}))
	require.NoError(err)
	require.Equal(`{"err":{"id":2}}`, string(data))

	for _, c := range []Codec{JSONCodec{}, CBORCodec{}} {
		data, err := c.Encode(Fail[int](notFound{ID: 3}))
		require.NoError(err)

		var got Result[int, notFound]
		require.NoError(c.Decode(data, &got))
		require.Equal(Fail[int](notFound{ID: 3}), got)
	}
}

func TestResultRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload any
	}{
		{"empty", map[string]any{}},
		{"null", nil},
		{"both", map[string]any{"ok": 1, "err": map[string]any{"id": 2}}},
		{"not an object", []int{1}},
		{"wrong ok type", map[string]any{"ok": "one"}},
	}
	for _, c := range []Codec{JSONCodec{}, CBORCodec{}} {
		for _, test := range tests {
			t.Run(c.Name()+"/"+test.name, func(t *testing.T) {
				data, err := c.Encode(test.payload)
				require.NoError(t, err)

				var got Result[int, notFound]
				require.ErrorIs(t, c.Decode(data, &got), ErrMalformed)
				require.False(t, got.Failed())
			})
		}
	}
}

func TestResultNullValue(t *testing.T) {
	for _, c := range []Codec{JSONCodec{}, CBORCodec{}} {
		data, err := c.Encode(Ok[*int, notFound](nil))
		require.NoError(t, err)

		var got Result[*int, notFound]
		require.NoError(t, c.Decode(data, &got))
		require.False(t, got.Failed())
		v, e := got.Get()
		require.Nil(t, v)
		require.Nil(t, e)
	}
}
