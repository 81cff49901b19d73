package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	t.Run("string form", func(t *testing.T) {
		var d Duration
		require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
		assert.Equal(t, 90*time.Second, d.Duration)
	})

	t.Run("integer nanoseconds", func(t *testing.T) {
		var d Duration
		require.NoError(t, json.Unmarshal([]byte(`3000000000`), &d))
		assert.Equal(t, 3*time.Second, d.Duration)
	})

	t.Run("invalid string", func(t *testing.T) {
		var d Duration
		require.Error(t, json.Unmarshal([]byte(`"not-a-duration"`), &d))
	})

	t.Run("invalid type", func(t *testing.T) {
		var d Duration
		require.Error(t, json.Unmarshal([]byte(`{"x":1}`), &d))
	})
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{42 * time.Second})
	require.NoError(t, err)
	assert.JSONEq(t, `"42s"`, string(b))
}
