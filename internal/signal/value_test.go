package signal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_SetNotifiesOnChange(t *testing.T) {
	v := NewComparable(false)
	var got []bool
	v.Subscribe(func(b bool) { got = append(got, b) })

	assert.True(t, v.Set(true))
	assert.False(t, v.Set(true), "same value must not notify")
	assert.True(t, v.Set(false))

	assert.Equal(t, []bool{true, false}, got)
	assert.False(t, v.Get())
}

func TestValue_NilEqualAlwaysNotifies(t *testing.T) {
	v := New[int](0, nil)
	count := 0
	v.Subscribe(func(int) { count++ })

	v.Set(1)
	v.Set(1)
	assert.Equal(t, 2, count)
}

func TestValue_Unsubscribe(t *testing.T) {
	v := NewComparable("")
	var a, b int
	unsubA := v.Subscribe(func(string) { a++ })
	v.Subscribe(func(string) { b++ })

	v.Set("x")
	unsubA()
	unsubA() // idempotent
	v.Set("y")

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, v.Subscribers())
}

func TestValue_SubscriberOrder(t *testing.T) {
	v := NewComparable(0)
	var order []string
	v.Subscribe(func(int) { order = append(order, "first") })
	v.Subscribe(func(int) { order = append(order, "second") })

	v.Set(1)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestValue_CallbackMaySetWithoutDeadlock(t *testing.T) {
	v := NewComparable(0)
	v.Subscribe(func(n int) {
		if n < 3 {
			v.Set(n + 1)
		}
	})
	v.Set(1)
	assert.Equal(t, 3, v.Get())
}

func TestValue_ConcurrentSet(t *testing.T) {
	v := New[int](0, nil)
	var mu sync.Mutex
	count := 0
	v.Subscribe(func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v.Set(n)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, count)
}

func TestValue_SetDuringDeliveryIsQueuedInOrder(t *testing.T) {
	v := NewComparable(0)
	var mu sync.Mutex
	var got []int
	entered := make(chan struct{})
	release := make(chan struct{})
	v.Subscribe(func(n int) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
		if n == 1 {
			close(entered)
			<-release
		}
	})

	done := make(chan struct{})
	go func() {
		v.Set(1)
		close(done)
	}()
	<-entered

	// Stored immediately, delivered after the change already in progress.
	assert.True(t, v.Set(2))
	assert.Equal(t, 2, v.Get())
	mu.Lock()
	assert.Equal(t, []int{1}, got)
	mu.Unlock()

	close(release)
	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, got)
}

func TestValue_ConcurrentSetLastDeliveredMatchesGet(t *testing.T) {
	for round := 0; round < 20; round++ {
		v := NewComparable(false)
		var mu sync.Mutex
		var last bool
		delivered := 0
		v.Subscribe(func(b bool) {
			mu.Lock()
			last = b
			delivered++
			mu.Unlock()
		})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(b bool) {
				defer wg.Done()
				v.Set(b)
			}(i%2 == 0)
		}
		wg.Wait()

		mu.Lock()
		if delivered > 0 {
			assert.Equal(t, v.Get(), last, "round %d", round)
		}
		mu.Unlock()
	}
}
