package cart

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payetonkawa/storefront/internal/services/storefront/events"
)

func TestStoreNotifiesObserversWithNewValue(t *testing.T) {
	t.Parallel()
	var seen []int
	store := NewStore(Cart{}, func(c Cart) { seen = append(seen, c.TotalItems()) })

	store.AddItem(product(1, "1.00"), 1)
	store.AddItem(product(1, "1.00"), 2)
	store.UpdateQuantity(1, 7)
	store.RemoveItem(1)

	assert.Equal(t, []int{1, 3, 7, 0}, seen)
}

func TestStoreAddOneThenTwo(t *testing.T) {
	t.Parallel()
	store := NewStore(Cart{})

	store.AddItem(product(5, "2.50"), 1)
	got := store.AddItem(product(5, "2.50"), 2)

	line, ok := got.Line(5)
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, 3, store.TotalItems())
	assert.True(t, store.TotalPrice().Equal(dec("7.50")))
}

func TestStoreClearsOnSessionEnded(t *testing.T) {
	t.Parallel()
	bus := events.NewBus()
	var last Cart
	store := NewStore(Cart{}.Add(product(1, "4.00"), 2), func(c Cart) { last = c })
	unsubscribe := store.Subscribe(bus)

	bus.Publish(events.Event{Type: events.SessionEnded, Reason: events.ReasonLogout})

	assert.True(t, store.Snapshot().IsEmpty())
	assert.True(t, last.IsEmpty())

	unsubscribe()
	store.AddItem(product(1, "4.00"), 1)
	bus.Publish(events.Event{Type: events.SessionEnded})
	assert.Equal(t, 1, store.TotalItems())
}

func TestStoreSerializesConcurrentMutations(t *testing.T) {
	t.Parallel()
	store := NewStore(Cart{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.AddItem(product(1, "1.00"), 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.TotalItems())
	assert.Equal(t, 1, store.Snapshot().Len())
}
