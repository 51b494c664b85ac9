package registry

import (
	"errors"
	"fmt"
	"testing"
)

// TestItem is a simple struct for testing
type TestItem struct {
	ID   string
	Name string
}

func TestBaseRegistry_Register(t *testing.T) {
	registry := NewBaseRegistry[TestItem]()

	tests := []struct {
		name    string
		item    TestItem
		wantErr error
	}{
		{
			name: "register valid item",
			item: TestItem{
				ID:   "test-1",
				Name: "Test Item 1",
			},
		},
		{
			name: "register item with empty name",
			item: TestItem{
				ID:   "",
				Name: "Test Item",
			},
			wantErr: errors.New("name cannot be empty"),
		},
		{
			name: "register duplicate item",
			item: TestItem{
				ID:   "test-1", // Same ID as first test
				Name: "Test Item 2",
			},
			wantErr: ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Register(tt.item.ID, tt.item)
			if (err != nil) != (tt.wantErr != nil) {
				t.Errorf("BaseRegistry.Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// Duplicate registration surfaces the sentinel
	err := registry.Register("test-1", TestItem{ID: "test-1"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("BaseRegistry.Register() duplicate error = %v, want ErrDuplicate", err)
	}
}

func TestBaseRegistry_Get(t *testing.T) {
	registry := NewBaseRegistry[TestItem]()

	testItem := TestItem{
		ID:   "test-1",
		Name: "Test Item 1",
	}
	if err := registry.Register("test-1", testItem); err != nil {
		t.Fatalf("Failed to register test item: %v", err)
	}

	tests := []struct {
		name     string
		itemID   string
		wantItem TestItem
		wantOk   bool
	}{
		{
			name:     "get existing item",
			itemID:   "test-1",
			wantItem: testItem,
			wantOk:   true,
		},
		{
			name:     "get non-existing item",
			itemID:   "non-existing",
			wantItem: TestItem{},
			wantOk:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := registry.Get(tt.itemID)
			if ok != tt.wantOk {
				t.Errorf("BaseRegistry.Get() ok = %v, want %v", ok, tt.wantOk)
			}
			if item.ID != tt.wantItem.ID {
				t.Errorf("BaseRegistry.Get() item.ID = %v, want %v", item.ID, tt.wantItem.ID)
			}
		})
	}
}

func TestBaseRegistry_ListOrder(t *testing.T) {
	registry := NewBaseRegistry[TestItem]()

	testItems := []TestItem{
		{ID: "charlie", Name: "Third"},
		{ID: "alpha", Name: "First"},
		{ID: "bravo", Name: "Second"},
	}

	for _, item := range testItems {
		if err := registry.Register(item.ID, item); err != nil {
			t.Fatalf("Failed to register item %s: %v", item.ID, err)
		}
	}

	// List and Names preserve registration order, not lexical order
	names := registry.Names()
	items := registry.List()
	if len(names) != len(testItems) || len(items) != len(testItems) {
		t.Fatalf("BaseRegistry.Names()/List() length = %d/%d, want %d", len(names), len(items), len(testItems))
	}
	for i, expected := range testItems {
		if names[i] != expected.ID {
			t.Errorf("BaseRegistry.Names()[%d] = %v, want %v", i, names[i], expected.ID)
		}
		if items[i].ID != expected.ID {
			t.Errorf("BaseRegistry.List()[%d].ID = %v, want %v", i, items[i].ID, expected.ID)
		}
	}
}

func TestBaseRegistry_Remove(t *testing.T) {
	registry := NewBaseRegistry[TestItem]()

	if err := registry.Register("test-1", TestItem{ID: "test-1"}); err != nil {
		t.Fatalf("Failed to register test item: %v", err)
	}

	if err := registry.Remove("test-1"); err != nil {
		t.Errorf("BaseRegistry.Remove() error = %v", err)
	}
	if _, exists := registry.Get("test-1"); exists {
		t.Errorf("BaseRegistry.Remove() item still exists after removal")
	}
	if len(registry.Names()) != 0 {
		t.Errorf("BaseRegistry.Names() not empty after removal")
	}

	err := registry.Remove("non-existing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("BaseRegistry.Remove() error = %v, want ErrNotFound", err)
	}
}

func TestBaseRegistry_Count(t *testing.T) {
	registry := NewBaseRegistry[TestItem]()

	if count := registry.Count(); count != 0 {
		t.Errorf("BaseRegistry.Count() = %v, want %v", count, 0)
	}

	testItems := []TestItem{
		{ID: "test-1", Name: "Test Item 1"},
		{ID: "test-2", Name: "Test Item 2"},
	}

	for i, item := range testItems {
		if err := registry.Register(item.ID, item); err != nil {
			t.Fatalf("Failed to register item %s: %v", item.ID, err)
		}

		expectedCount := i + 1
		if count := registry.Count(); count != expectedCount {
			t.Errorf("BaseRegistry.Count() = %v, want %v", count, expectedCount)
		}
	}
}

func TestBaseRegistry_Clear(t *testing.T) {
	registry := NewBaseRegistry[TestItem]()

	for _, id := range []string{"test-1", "test-2"} {
		if err := registry.Register(id, TestItem{ID: id}); err != nil {
			t.Fatalf("Failed to register item %s: %v", id, err)
		}
	}

	registry.Clear()

	if count := registry.Count(); count != 0 {
		t.Errorf("BaseRegistry.Count() after clear = %v, want %v", count, 0)
	}
	if names := registry.Names(); len(names) != 0 {
		t.Errorf("BaseRegistry.Names() after clear length = %v, want %v", len(names), 0)
	}
}

func TestBaseRegistry_Concurrency(t *testing.T) {
	registry := NewBaseRegistry[TestItem]()

	done := make(chan bool, 2)

	go func() {
		defer func() { done <- true }()
		for i := 0; i < 100; i++ {
			item := TestItem{
				ID:   fmt.Sprintf("concurrent-%d", i),
				Name: fmt.Sprintf("Concurrent Item %d", i),
			}
			_ = registry.Register(item.ID, item)
		}
	}()

	go func() {
		defer func() { done <- true }()
		for i := 0; i < 100; i++ {
			registry.Get(fmt.Sprintf("concurrent-%d", i))
			registry.Count()
			registry.List()
		}
	}()

	<-done
	<-done

	if count := registry.Count(); count != 100 {
		t.Errorf("BaseRegistry.Count() after concurrent access = %v, want %v", count, 100)
	}
}
