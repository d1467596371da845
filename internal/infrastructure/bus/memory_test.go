package bus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryBus(t *testing.T) {
	b := NewMemoryBus()

	require.True(t, b.GetBoolean("clientMode", "gearMode", true))
	require.NoError(t, b.PutBoolean("clientMode", "gearMode", false))
	require.False(t, b.GetBoolean("clientMode", "gearMode", true))

	_, ok := b.GetNumber("target", "x")
	require.False(t, ok)
	require.NoError(t, b.PutNumber("target", "x", 0.5))
	v, ok := b.GetNumber("target", "x")
	require.True(t, ok)
	require.Equal(t, 0.5, v)

	// таблицы не пересекаются
	require.False(t, b.GetBoolean("other", "gearMode", false))
}
