package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameEmpty(t *testing.T) {
	require.True(t, EmptyFrame(FeedPrimary).Empty())
	require.True(t, Frame{Width: 2, Height: 2, Pix: make([]byte, 3)}.Empty())
	require.False(t, Frame{Width: 2, Height: 2, Pix: make([]byte, 12)}.Empty())
}

func TestParseFeed(t *testing.T) {
	f, ok := ParseFeed("secondary")
	require.True(t, ok)
	require.Equal(t, FeedSecondary, f)

	_, ok = ParseFeed("rear")
	require.False(t, ok)
}
