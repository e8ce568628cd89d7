package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPut(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)

	_, ok := c.Get("standup tonight at 7pm")
	assert.False(t, ok)

	c.Put("standup tonight at 7pm", "ducktape calendar create \"Standup\" today 19:00 20:00 \"Work\"")
	got, ok := c.Get("standup tonight at 7pm")
	require.True(t, ok)
	assert.Contains(t, got, "Standup")

	c.Put("standup tonight at 7pm", "second")
	got, _ = c.Get("standup tonight at 7pm")
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, c.Len())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.Put("a", "A")
	c.Put("b", "B")
	_, _ = c.Get("a")
	c.Put("c", "C")

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Key(""))
	assert.Len(t, Key("anything"), 64)
	assert.NotEqual(t, Key("a"), Key("A"))
}

func TestPurge(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)
	c.Put("x", "y")
	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestSchedulePurgeRejectsBadSpec(t *testing.T) {
	c, err := New(10)
	require.NoError(t, err)

	_, err = c.SchedulePurge("every tuesday")
	assert.Error(t, err)

	stop, err := c.SchedulePurge("0 4 * * *")
	require.NoError(t, err)
	stop()
}

func TestConcurrentAccess(t *testing.T) {
	c, err := New(50)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", (i*200+j)%75)
				c.Put(key, key)
				if v, ok := c.Get(key); ok {
					assert.Equal(t, key, v)
				}
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}
