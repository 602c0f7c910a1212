// Package pool provides a reusable-object registry that hands out free slots
// without allocating during steady-state operation.
package pool

// Pool keeps objects in slots that are either free or locked. Freed slot
// indices are queued in a ring buffer addressed by two wrapping cursors, so
// allocating and freeing are O(1). Slots are never deleted; capacity only
// grows until Clear is called.
type Pool[T any] struct {
	objects []T
	free    []bool

	// ring of free indices: head is the oldest free entry, tail the next
	// write position
	queue []int
	head  int
	tail  int
	count int
}

// New creates an empty pool with room for capacity objects
func New[T any](capacity int) *Pool[T] {
	return &Pool[T]{
		objects: make([]T, 0, capacity),
		free:    make([]bool, 0, capacity),
		queue:   make([]int, 0, capacity),
	}
}

// AddObject appends obj in a locked slot and returns its index
func (p *Pool[T]) AddObject(obj T) int {
	p.objects = append(p.objects, obj)
	p.free = append(p.free, false)
	p.growQueue()
	return len(p.objects) - 1
}

// growQueue keeps the ring as large as the slot count, unrolling it so the
// queued entries stay in order.
func (p *Pool[T]) growQueue() {
	size := len(p.objects)
	if len(p.queue) >= size {
		return
	}
	queue := make([]int, size, cap(p.objects))
	for i := 0; i < p.count; i++ {
		queue[i] = p.queue[(p.head+i)%len(p.queue)]
	}
	p.queue = queue
	p.head = 0
	p.tail = p.count % size
}

// MarkAsFree flags the slot reusable. Already free slots are left alone.
func (p *Pool[T]) MarkAsFree(index int) {
	if index < 0 || index >= len(p.objects) || p.free[index] {
		return
	}
	p.free[index] = true
	p.queue[p.tail] = index
	p.tail = (p.tail + 1) % len(p.queue)
	p.count++
}

// GetFreeObject locks and returns the oldest free object. The boolean is
// false when no slot is free.
func (p *Pool[T]) GetFreeObject() (T, int, bool) {
	var zero T
	if p.count == 0 {
		return zero, -1, false
	}
	index := p.queue[p.head]
	if !p.free[index] {
		return zero, -1, false
	}
	p.head = (p.head + 1) % len(p.queue)
	p.count--
	p.free[index] = false
	return p.objects[index], index, true
}

// Acquire returns a free object, or adds one made by create when the pool
// is exhausted. The returned slot is locked.
func (p *Pool[T]) Acquire(create func() T) (T, int) {
	if obj, index, ok := p.GetFreeObject(); ok {
		return obj, index
	}
	obj := create()
	return obj, p.AddObject(obj)
}

// Get returns the object in the slot regardless of its state
func (p *Pool[T]) Get(index int) T {
	return p.objects[index]
}

// IsFree reports whether the slot is free
func (p *Pool[T]) IsFree(index int) bool {
	return p.free[index]
}

// Len returns the number of slots
func (p *Pool[T]) Len() int {
	return len(p.objects)
}

// FreeCount returns the number of free slots
func (p *Pool[T]) FreeCount() int {
	return p.count
}

// LockedCount returns the number of slots in use
func (p *Pool[T]) LockedCount() int {
	return len(p.objects) - p.count
}

// HasLockedObjects reports whether any slot is in use
func (p *Pool[T]) HasLockedObjects() bool {
	return p.LockedCount() > 0
}

// ForEachLocked calls fn for every slot in use, in index order. fn may mark
// the visited slot as free.
func (p *Pool[T]) ForEachLocked(fn func(index int, obj T)) {
	for i := range p.objects {
		if !p.free[i] {
			fn(i, p.objects[i])
		}
	}
}

// Clear drops every slot
func (p *Pool[T]) Clear() {
	p.objects = p.objects[:0]
	p.free = p.free[:0]
	p.queue = p.queue[:0]
	p.head, p.tail, p.count = 0, 0, 0
}
