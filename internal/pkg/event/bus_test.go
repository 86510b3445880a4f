package event

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBus_PublishDeliversToSubscribers(t *testing.T) {
	bus := NewEventBusWithSize(2, 16)

	var wg sync.WaitGroup
	var got atomic.Int32
	wg.Add(3)
	bus.Subscribe(IntakeAppended, func(payload interface{}) {
		got.Add(int32(payload.(int)))
		wg.Done()
	})

	for i := 1; i <= 3; i++ {
		bus.Publish(IntakeAppended, i)
	}
	wg.Wait()
	bus.Shutdown()

	assert.Equal(t, int32(6), got.Load())
}

func TestEventBus_PanickingHandlerDoesNotStopWorker(t *testing.T) {
	bus := NewEventBusWithSize(1, 4)

	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe(IntakeRemoved, func(payload interface{}) {
		panic("boom")
	})
	bus.Subscribe(DraftPurged, func(payload interface{}) {
		wg.Done()
	})

	bus.Publish(IntakeRemoved, nil)
	bus.Publish(DraftPurged, "d1")
	wg.Wait()
	bus.Shutdown()
}

func TestEventBus_PublishAfterShutdownIsDropped(t *testing.T) {
	bus := NewEventBusWithSize(1, 1)
	bus.Shutdown()

	assert.NotPanics(t, func() {
		bus.Publish(IntakeAppended, 1)
	})
	// 重复关闭是安全的
	bus.Shutdown()
}
