package model

import (
	"testing"
	"time"
)

// ==================== ID Tests ====================

func TestNewSortableID(t *testing.T) {
	now := time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC)
	id1 := NewSortableID(now)
	id2 := NewSortableID(now)

	if len(id1) != 26 {
		t.Errorf("ID should be 26 characters (ULID format), got %d", len(id1))
	}
	if id1 == id2 {
		t.Error("IDs generated in the same millisecond should differ")
	}
	if id1 >= id2 {
		t.Errorf("IDs should be strictly increasing: %s >= %s", id1, id2)
	}
}

func TestNewSortableID_OrdersByTime(t *testing.T) {
	earlier := NewSortableID(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	later := NewSortableID(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	if earlier >= later {
		t.Errorf("Expected %s < %s", earlier, later)
	}
}

func TestNewEntityID(t *testing.T) {
	id1 := NewEntityID()
	id2 := NewEntityID()

	if id1 == "" {
		t.Error("Entity ID should not be empty")
	}
	if id1 == id2 {
		t.Error("Different entity IDs should have different values")
	}
	if len(id1) != 36 {
		t.Errorf("Entity ID should be 36 characters (UUID format), got %d", len(id1))
	}
}

func TestULIDGenerator(t *testing.T) {
	var gen IDGenerator = ULIDGenerator{}
	if got := gen.NewID(time.Now()); len(got) != 26 {
		t.Errorf("Expected ULID, got %q", got)
	}
}
