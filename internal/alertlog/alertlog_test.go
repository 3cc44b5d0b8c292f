package alertlog

import (
	"fmt"
	"testing"

	"github.com/good-yellow-bee/alertbridge/internal/models"
)

func record(id string) models.AuditRecord {
	return models.AuditRecord{Alert: models.Alert{ID: id, Host: "db1"}}
}

func TestAppendNewestFirst(t *testing.T) {
	l := New(10)
	l.Append(record("a"))
	l.Append(record("b"))
	l.Append(record("c"))

	alerts := l.Alerts()
	if len(alerts) != 3 {
		t.Fatalf("len = %d, want 3", len(alerts))
	}
	for i, want := range []string{"c", "b", "a"} {
		if alerts[i].ID != want {
			t.Errorf("alerts[%d].ID = %q, want %q", i, alerts[i].ID, want)
		}
	}
}

func TestCapacityEviction(t *testing.T) {
	l := New(100)
	for i := 0; i < 101; i++ {
		l.Append(record(fmt.Sprintf("alert-%d", i)))
	}

	if l.Len() != 100 {
		t.Fatalf("len = %d, want 100", l.Len())
	}

	alerts := l.Alerts()
	if alerts[0].ID != "alert-100" {
		t.Errorf("newest = %q, want alert-100", alerts[0].ID)
	}
	if alerts[99].ID != "alert-1" {
		t.Errorf("oldest = %q, want alert-1 (alert-0 evicted)", alerts[99].ID)
	}
	for _, a := range alerts {
		if a.ID == "alert-0" {
			t.Error("alert-0 should have been evicted")
		}
	}
}

func TestAuditReturnsSnapshot(t *testing.T) {
	l := New(10)
	l.Append(record("a"))

	audit := l.Audit()
	audit[0].Alert.ID = "mutated"

	if got := l.Audit()[0].Alert.ID; got != "a" {
		t.Errorf("stored record mutated through snapshot: ID = %q", got)
	}
}

func TestInvalidCapacityFallsBack(t *testing.T) {
	l := New(0)
	if l.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", l.capacity, DefaultCapacity)
	}
}
