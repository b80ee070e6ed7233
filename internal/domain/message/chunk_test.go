package message

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkByRecipients_Example(t *testing.T) {
	m := New("body", "100", "200", "300", "400", "500")
	m.Direction = DirectionOutgoing

	chunks := ChunkByRecipients(m, 2)

	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"100", "200"}, chunks[0].Recipients)
	assert.Equal(t, []string{"300", "400"}, chunks[1].Recipients)
	assert.Equal(t, []string{"500"}, chunks[2].Recipients)
}

func TestChunkByRecipients_NoSplit(t *testing.T) {
	m := New("body", "1", "2", "3")

	for _, size := range []int{-1, 0, 3, 10} {
		chunks := ChunkByRecipients(m, size)
		require.Len(t, chunks, 1, "size %d", size)
		assert.Same(t, m, chunks[0], "size %d", size)
	}
}

func TestChunkByRecipients_Partition(t *testing.T) {
	for n := 2; n <= 23; n++ {
		for size := 1; size < n; size++ {
			recipients := make([]string, n)
			for i := range recipients {
				recipients[i] = fmt.Sprintf("+%d", 1000+i)
			}
			m := New("hello", recipients...)
			m.Direction = DirectionOutgoing
			m.GatewayID = "gw"
			m.SetOption("x", "y")

			chunks := ChunkByRecipients(m, size)

			assert.Len(t, chunks, (n+size-1)/size)

			var got []string
			for _, c := range chunks {
				assert.LessOrEqual(t, len(c.Recipients), size)
				assert.Equal(t, m.Body, c.Body)
				assert.Equal(t, m.UUID, c.UUID)
				assert.Equal(t, m.GatewayID, c.GatewayID)
				assert.Equal(t, m.Direction, c.Direction)
				assert.Equal(t, m.Options, c.Options)
				assert.Equal(t, m.Automated, c.Automated)
				got = append(got, c.Recipients...)
			}
			assert.Equal(t, recipients, got)
		}
	}
}
