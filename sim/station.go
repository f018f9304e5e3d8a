package sim

import (
	"fmt"
)

// Station is a transfer site where small vehicles queue to unload into an
// assigned large vehicle or, when configured, into a bounded waste buffer.
// The queue is strict FIFO: a vehicle leaves it only by completing an unload
// at the head or by explicit redirection.
type Station struct {
	Name string
	Zone *Zone // home zone, used for travel-time computation

	MaxQueueWait int // minutes a queued small vehicle may wait before escalation

	Queue *VehicleQueue
	Large *LargeVehicle // zero-or-one assigned haul vehicle

	BufferCapacity int // kg; 0 disables the buffer
	Buffer         int // kg currently buffered
}

// NewStation validates and builds a transfer station located in zone.
func NewStation(name string, zone *Zone, maxQueueWait, bufferCapacity int) (*Station, error) {
	if name == "" {
		return nil, fmt.Errorf("station name must not be empty")
	}
	if zone == nil {
		return nil, fmt.Errorf("station %s needs a home zone", name)
	}
	if maxQueueWait <= 0 {
		return nil, fmt.Errorf("station %s: max queue wait must be positive, got %d", name, maxQueueWait)
	}
	if bufferCapacity < 0 {
		return nil, fmt.Errorf("station %s: buffer capacity must be non-negative, got %d", name, bufferCapacity)
	}
	return &Station{
		Name:           name,
		Zone:           zone,
		MaxQueueWait:   maxQueueWait,
		Queue:          &VehicleQueue{},
		BufferCapacity: bufferCapacity,
	}, nil
}

// ReceiveSmall registers an arriving small vehicle at the back of the queue.
func (st *Station) ReceiveSmall(v *SmallVehicle) {
	v.State = SmallQueued
	v.QueueWait = 0
	v.CurrentZone = st.Zone
	v.DestStation = nil
	st.Queue.Enqueue(v)
}

// AssignLarge attaches a haul vehicle to the station. Assigning while one is
// already attached is a precondition violation and is rejected.
func (st *Station) AssignLarge(v *LargeVehicle) error {
	if st.Large != nil {
		return fmt.Errorf("station %s already has large vehicle %s assigned", st.Name, st.Large.Plate)
	}
	v.ArriveAtStation()
	v.OriginStation = st
	st.Large = v
	return nil
}

// DetachLarge removes and returns the assigned haul vehicle, or nil.
func (st *Station) DetachLarge() *LargeVehicle {
	v := st.Large
	st.Large = nil
	return v
}

// IncrementWaits accrues one minute of wait for every vehicle sitting in the
// queue, and for the waiting haul vehicle.
func (st *Station) IncrementWaits() {
	for _, v := range st.Queue.Items() {
		if v.State == SmallQueued {
			v.QueueWait++
		}
	}
	if st.Large != nil && st.Large.State == LargeWaiting {
		st.Large.WaitAccum++
	}
}

// WaitExceeded reports whether any queued vehicle has waited longer than the
// station's configured maximum.
func (st *Station) WaitExceeded() bool {
	for _, v := range st.Queue.Items() {
		if v.State == SmallQueued && v.QueueWait > st.MaxQueueWait {
			return true
		}
	}
	return false
}

// BufferFree is the kg of buffer space left.
func (st *Station) BufferFree() int {
	return max(st.BufferCapacity-st.Buffer, 0)
}

// DrainBuffer moves buffered waste into the assigned haul vehicle and
// returns the amount moved.
func (st *Station) DrainBuffer() int {
	if st.Large == nil || st.Buffer == 0 {
		return 0
	}
	moved := st.Large.Receive(st.Buffer)
	st.Buffer -= moved
	return moved
}

// ReleaseLargeIfNeeded detaches and returns the haul vehicle when its
// release condition holds (loaded and full, or loaded past tolerance).
// Returns nil when no release happens.
func (st *Station) ReleaseLargeIfNeeded() *LargeVehicle {
	if st.Large == nil || !st.Large.ShouldDepart() {
		return nil
	}
	return st.DetachLarge()
}

// QueueResult reports what ProcessQueue did this tick.
type QueueResult struct {
	Completed   *SmallVehicle // vehicle that finished unloading and left the queue
	WaitMinutes int           // its recorded queue wait
	StartedKg   int           // kg of a newly started unload
	ToBuffer    bool          // the started unload targets the buffer
}

// ProcessQueue advances the head-of-queue unload by one minute or starts a
// new one, sized to min(vehicle cargo, receiver free capacity). Cargo moves
// at unload completion; whatever the receivers cannot take at that point
// stays on the vehicle, which keeps its place at the head of the queue.
func (st *Station) ProcessQueue(unloadMinutesPerTonne int) QueueResult {
	head := st.Queue.Peek()
	if head == nil {
		return QueueResult{}
	}

	if head.State == SmallUnloading {
		if !head.AdvanceUnload() {
			return QueueResult{}
		}
		kg := head.FinishUnload()
		placed := 0
		if st.Large != nil {
			placed += st.Large.Receive(kg)
		}
		if placed < kg && st.BufferCapacity > 0 {
			take := min(kg-placed, st.BufferFree())
			st.Buffer += take
			placed += take
		}
		if placed < kg {
			// Receiver changed since the unload was sized. Keep the
			// remainder aboard; the vehicle stays at the head.
			head.Load += kg - placed
		}
		if head.Load > 0 {
			head.State = SmallQueued
			return QueueResult{}
		}
		st.Queue.Dequeue()
		wait := head.QueueWait
		head.QueueWait = 0
		head.State = SmallAvailable
		return QueueResult{Completed: head, WaitMinutes: wait}
	}

	// Empty vehicles have nothing to transfer; complete them immediately.
	if head.Load == 0 {
		st.Queue.Dequeue()
		wait := head.QueueWait
		head.QueueWait = 0
		head.State = SmallAvailable
		return QueueResult{Completed: head, WaitMinutes: wait}
	}

	if st.Large != nil && st.Large.FreeCapacity() > 0 {
		kg := min(head.Load, st.Large.FreeCapacity())
		if err := head.BeginUnload(kg, unloadMinutesPerTonne); err == nil {
			return QueueResult{StartedKg: kg}
		}
		return QueueResult{}
	}
	if st.Large == nil && st.BufferFree() > 0 {
		kg := min(head.Load, st.BufferFree())
		if err := head.BeginUnload(kg, unloadMinutesPerTonne); err == nil {
			return QueueResult{StartedKg: kg, ToBuffer: true}
		}
	}
	return QueueResult{}
}
