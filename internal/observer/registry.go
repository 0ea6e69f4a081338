// Package observer provides the ordered listener registry shared by the
// workspace and the undo history.
package observer

// ID is the handle returned by Registry.Add.
type ID uint64

type listener struct {
	id ID
	fn func()
}

// Registry keeps zero-argument listeners in registration order.
// The zero value is ready to use.
type Registry struct {
	next      ID
	listeners []listener
}

// Add registers fn and returns the handle that removes it.
func (r *Registry) Add(fn func()) ID {
	r.next++
	r.listeners = append(r.listeners, listener{id: r.next, fn: fn})
	return r.next
}

// Remove unregisters the listener with the given handle. It reports
// whether the handle was registered.
func (r *Registry) Remove(id ID) bool {
	for i, l := range r.listeners {
		if l.id == id {
			r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Notify calls every listener in registration order.
func (r *Registry) Notify() {
	// Listeners may unsubscribe while being notified.
	snapshot := append([]listener(nil), r.listeners...)
	for _, l := range snapshot {
		l.fn()
	}
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	return len(r.listeners)
}
