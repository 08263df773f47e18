// Package registry provides the process-wide table mapping invocation
// handler IDs to Go closures backing dynamic proxies.
//
// The Java side only ever holds a 64-bit ID; the closure stays on the Go
// heap and is looked up here when the JVM calls back into native code.
// IDs are unique among live handlers and may be reused after removal.
package registry

import (
	"math"
	"sync"
	"time"

	"github.com/obinnaokechukwu/jnigo/jni"
)

// Handler is the dispatch contract of a dynamic proxy: given the calling
// thread's environment, the invoked java.lang.reflect.Method and the boxed
// argument references, produce a result reference (null for void) or an
// error. Handlers may be invoked from any JVM thread, concurrently and
// reentrantly.
type Handler func(env jni.Env, method jni.Ref, args []jni.Ref) (jni.Ref, error)

var (
	mu       sync.Mutex
	handlers = make(map[int64]Handler)
	startup  = time.Now()
)

// Register stores the handler under a freshly generated ID and returns the
// ID. Generation and insertion happen under one lock acquisition, so two
// concurrent registrations can never observe the same fresh ID.
func Register(h Handler) int64 {
	mu.Lock()
	defer mu.Unlock()
	id := freshIDLocked()
	handlers[id] = h
	return id
}

// freshIDLocked derives a candidate ID from the elapsed time since package
// startup, reduced into the positive int64 range, retrying on collision.
// The nanosecond clock makes collisions practically impossible; the loop
// keeps them impossible in theory too.
func freshIDLocked() int64 {
	for {
		id := int64(uint64(time.Since(startup).Nanoseconds()) % uint64(math.MaxInt64))
		if _, exists := handlers[id]; !exists {
			return id
		}
	}
}

// Lookup returns the handler registered under id. The returned handler is
// safe to invoke after the lock is dropped, so a handler may re-enter the
// registry (register or remove proxies) without deadlocking.
func Lookup(id int64) (Handler, bool) {
	mu.Lock()
	defer mu.Unlock()
	h, ok := handlers[id]
	return h, ok
}

// Remove deletes the handler registered under id, reporting whether it was
// present. Safe to call from cleanup paths; removing an absent ID is a
// no-op.
func Remove(id int64) bool {
	mu.Lock()
	defer mu.Unlock()
	_, ok := handlers[id]
	delete(handlers, id)
	return ok
}

// Count returns the number of live handlers. Useful for leak checks in
// tests.
func Count() int {
	mu.Lock()
	defer mu.Unlock()
	return len(handlers)
}
