// Implements the VehicleQueue, which holds small vehicles waiting to unload
// at a transfer station. Vehicles are enqueued on arrival.

package sim

import (
	"strings"
)

// VehicleQueue is a FIFO queue of small vehicles ordered by arrival at a
// transfer station. Queue order is preserved: a vehicle leaves the queue only
// by completing an unload at the head or by explicit redirection.
type VehicleQueue struct {
	queue []*SmallVehicle
}

// Enqueue adds a vehicle to the back of the queue.
func (q *VehicleQueue) Enqueue(v *SmallVehicle) {
	q.queue = append(q.queue, v)
}

// Dequeue removes and returns the vehicle at the front of the queue.
// Returns nil if the queue is empty.
func (q *VehicleQueue) Dequeue() *SmallVehicle {
	if len(q.queue) == 0 {
		return nil
	}
	head := q.queue[0]
	q.queue = q.queue[1:]
	return head
}

// Peek returns the vehicle at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (q *VehicleQueue) Peek() *SmallVehicle {
	if len(q.queue) == 0 {
		return nil
	}
	return q.queue[0]
}

// Len returns the number of vehicles in the queue.
func (q *VehicleQueue) Len() int {
	return len(q.queue)
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage -- callers within the
// sim package may iterate over it but MUST NOT append to or reslice it.
func (q *VehicleQueue) Items() []*SmallVehicle {
	return q.queue
}

func (q *VehicleQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, v := range q.queue {
		sb.WriteString(v.Plate)
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
