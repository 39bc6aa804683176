package success

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) {
	t.Helper()
	if err := Init(filepath.Join(t.TempDir(), "success.db")); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { Close() })
}

func TestStoreAndGet(t *testing.T) {
	openTestStore(t)
	if err := StoreSuccess("a1", map[string]int{"produced": 4}, 4); err != nil {
		t.Fatalf("StoreSuccess: %v", err)
	}
	rec, err := GetSuccess("a1")
	if err != nil {
		t.Fatalf("GetSuccess: %v", err)
	}
	if rec == nil || rec.URLCount != 4 || rec.Data != `{"produced":4}` {
		t.Fatalf("unexpected record: %+v", rec)
	}

	missing, err := GetSuccess("nope")
	if err != nil || missing != nil {
		t.Errorf("GetSuccess(missing) = %+v, %v", missing, err)
	}
}

func TestCleanupOldRecords(t *testing.T) {
	openTestStore(t)
	if err := StoreSuccess("a1", nil, 1); err != nil {
		t.Fatal(err)
	}
	n, err := CleanupOldRecords(time.Hour)
	if err != nil || n != 0 {
		t.Fatalf("cleanup of fresh records = %d, %v", n, err)
	}
	n, err = CleanupOldRecords(-time.Second)
	if err != nil || n != 1 {
		t.Fatalf("cleanup = %d, %v, want 1", n, err)
	}
	list, _ := ListSuccessRecords()
	if len(list) != 0 {
		t.Errorf("records left: %d", len(list))
	}
}

func TestUninitialized(t *testing.T) {
	if err := CheckHealth(); err == nil {
		t.Error("expected CheckHealth to fail before Init")
	}
}
