package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Title    Optional[string]   `json:"title"`
	Category Optional[string]   `json:"category"`
	Tags     Optional[[]string] `json:"tags"`
}

func TestOptionalConstructors(t *testing.T) {
	v := NewOptional("x")
	assert.True(t, v.IsSet())
	assert.True(t, v.HasValue())
	assert.Equal(t, "x", *v.Value())

	u := Unset[string]()
	assert.True(t, u.IsSet())
	assert.True(t, u.IsUnset())
	assert.False(t, u.HasValue())

	var n Optional[string]
	assert.False(t, n.IsSet())
	assert.False(t, n.IsUnset())
}

func TestOptionalUnmarshalDistinguishesAbsentFromNull(t *testing.T) {
	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Go","category":null}`), &p))

	assert.True(t, p.Title.HasValue())
	assert.Equal(t, "Go", *p.Title.Value())
	assert.True(t, p.Category.IsUnset())
	assert.False(t, p.Tags.IsSet())
}

func TestOptionalUnmarshalSlice(t *testing.T) {
	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"tags":["a","b"]}`), &p))
	require.True(t, p.Tags.HasValue())
	assert.Equal(t, []string{"a", "b"}, *p.Tags.Value())
}

func TestOptionalUnmarshalTypeMismatch(t *testing.T) {
	var p payload
	assert.Error(t, json.Unmarshal([]byte(`{"title":42}`), &p))
}
