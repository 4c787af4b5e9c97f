package activity

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerEmpty(t *testing.T) {
	tr := NewTracker(nil)
	text, age := tr.Peek()
	assert.Equal(t, "", text)
	assert.Zero(t, age)

	_, _, ok := tr.Recent(20 * time.Second)
	assert.False(t, ok)
}

func TestTrackerAgesOut(t *testing.T) {
	now := time.Unix(0, 0)
	tr := NewTracker(func() time.Time { return now })

	tr.Note("/ping user")

	now = now.Add(15 * time.Second)
	text, age, ok := tr.Recent(20 * time.Second)
	assert.True(t, ok)
	assert.Equal(t, "/ping user", text)
	assert.Equal(t, 15*time.Second, age)

	now = now.Add(10 * time.Second)
	_, _, ok = tr.Recent(20 * time.Second)
	assert.False(t, ok)

	// Aged out, not cleared.
	text, age = tr.Peek()
	assert.Equal(t, "/ping user", text)
	assert.Equal(t, 25*time.Second, age)
}

func TestTrackerLastWriteWins(t *testing.T) {
	now := time.Unix(100, 0)
	tr := NewTracker(func() time.Time { return now })

	tr.Note("/status alice")
	now = now.Add(time.Second)
	tr.Note("/ip bob")

	text, age := tr.Peek()
	assert.Equal(t, "/ip bob", text)
	assert.Zero(t, age)
}

func TestTrackerEmptyTextIsNotRecent(t *testing.T) {
	tr := NewTracker(nil)
	tr.Note("")
	_, _, ok := tr.Recent(time.Minute)
	assert.False(t, ok)
}

func TestTrackerConcurrentWriters(t *testing.T) {
	tr := NewTracker(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr.Note(fmt.Sprintf("/ping user%d", i))
			tr.Peek()
		}(i)
	}
	wg.Wait()

	text, _ := tr.Peek()
	assert.Contains(t, text, "/ping user")
}
