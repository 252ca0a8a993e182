package sequence

import "container/heap"

type priorityItem[T any] struct {
	value    T
	priority int
	index    int
}

type priorityHeap[T any] struct {
	items []*priorityItem[T]
}

func (pq *priorityHeap[T]) Len() int {
	return len(pq.items)
}

func (pq *priorityHeap[T]) Less(i, j int) bool {
	return pq.items[i].priority > pq.items[j].priority
}

func (pq *priorityHeap[T]) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
	pq.items[i].index = i
	pq.items[j].index = j
}

func (pq *priorityHeap[T]) Push(x any) {
	item := x.(*priorityItem[T])
	item.index = len(pq.items)
	pq.items = append(pq.items, item)
}

func (pq *priorityHeap[T]) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	pq.items = old[0 : n-1]
	return item
}

// PriorityQueue is a max-priority queue: Dequeue returns the element with
// the highest priority first. Ties are broken by insertion order only as
// far as the underlying heap allows; callers that need strict ordering
// should encode it into the priority.
type PriorityQueue[T any] struct {
	pq priorityHeap[T]
}

func NewPriorityQueue[T any]() *PriorityQueue[T] {
	pq := &PriorityQueue[T]{}
	heap.Init(&pq.pq)
	return pq
}

func (pq *PriorityQueue[T]) Enqueue(value T, priority int) {
	heap.Push(&pq.pq, &priorityItem[T]{value: value, priority: priority})
}

func (pq *PriorityQueue[T]) Dequeue() (T, bool) {
	if pq.pq.Len() == 0 {
		var zero T
		return zero, false
	}
	item := heap.Pop(&pq.pq).(*priorityItem[T])
	return item.value, true
}

func (pq *PriorityQueue[T]) Len() int {
	return pq.pq.Len()
}

func (pq *PriorityQueue[T]) IsEmpty() bool {
	return pq.pq.Len() == 0
}
