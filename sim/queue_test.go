package sim

import (
	"testing"
)

func TestVehicleQueue_Dequeue_PreservesArrivalOrder(t *testing.T) {
	// GIVEN a queue with vehicles [A, B, C]
	q := &VehicleQueue{}
	a := &SmallVehicle{Plate: "AAA1A11"}
	b := &SmallVehicle{Plate: "BBB2B22"}
	c := &SmallVehicle{Plate: "CCC3C33"}
	q.Enqueue(a)
	q.Enqueue(b)
	q.Enqueue(c)

	// WHEN all vehicles are dequeued
	var got []string
	for q.Len() > 0 {
		got = append(got, q.Dequeue().Plate)
	}

	// THEN they come out in strict arrival order
	want := []string{"AAA1A11", "BBB2B22", "CCC3C33"}
	for i, plate := range got {
		if plate != want[i] {
			t.Errorf("order[%d]: got %s, want %s", i, plate, want[i])
		}
	}
}

func TestVehicleQueue_Peek_NonEmpty_ReturnsFrontWithoutRemoving(t *testing.T) {
	// GIVEN a queue with vehicles [A, B]
	q := &VehicleQueue{}
	a := &SmallVehicle{Plate: "AAA1A11"}
	q.Enqueue(a)
	q.Enqueue(&SmallVehicle{Plate: "BBB2B22"})

	// WHEN Peek() is called
	got := q.Peek()

	// THEN it returns the front element without removing it
	if got != a {
		t.Errorf("Peek: got %v, want %v", got.Plate, a.Plate)
	}
	if q.Len() != 2 {
		t.Errorf("Peek modified queue length: got %d, want 2", q.Len())
	}
}

func TestVehicleQueue_Empty_PeekAndDequeueReturnNil(t *testing.T) {
	// GIVEN an empty queue
	q := &VehicleQueue{}

	// THEN Peek and Dequeue both return nil
	if got := q.Peek(); got != nil {
		t.Errorf("Peek on empty queue: got %v, want nil", got)
	}
	if got := q.Dequeue(); got != nil {
		t.Errorf("Dequeue on empty queue: got %v, want nil", got)
	}
}
