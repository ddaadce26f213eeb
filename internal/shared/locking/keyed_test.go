package locking

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("proposal-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 64 {
		t.Fatalf("expected 64 increments, got %d", counter)
	}
}

func TestKeyedMutexReleasesIdleEntries(t *testing.T) {
	locks := NewKeyedMutex()

	unlock := locks.Lock("proposal-1")
	unlock()
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.entries) != 0 {
		t.Fatalf("expected empty entry table, got %d entries", len(locks.entries))
	}
}

func TestKeyedMutexDistinctKeysDoNotBlock(t *testing.T) {
	locks := NewKeyedMutex()

	unlockA := locks.Lock("proposal-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("proposal-b")
		unlockB()
		close(done)
	}()
	<-done
}
