package sessions

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jivas-io/jvmanager/internal/models"
)

func TestOpenFileStore_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")

	store, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}

	if store.Path() != path {
		t.Errorf("Path() = %q, want %q", store.Path(), path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected credentials file to exist: %v", err)
	}

	if info.Mode().Perm() != 0o600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestFileStore_PersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")

	store, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}

	if err := store.Set(models.TokenKey, "abc"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(models.ExpiryKey, "1700000000000"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}

	if token, ok := reopened.Get(models.TokenKey); !ok || token != "abc" {
		t.Errorf("Get(token) = %q, %v; want abc, true", token, ok)
	}
	if expiry, ok := reopened.Get(models.ExpiryKey); !ok || expiry != "1700000000000" {
		t.Errorf("Get(expiry) = %q, %v; want 1700000000000, true", expiry, ok)
	}
}

func TestFileStore_DeleteMissingKeyIsNoop(t *testing.T) {
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}

	before := store.Timestamp()

	if err := store.Delete(models.TokenKey); err != nil {
		t.Errorf("Delete() on missing key error = %v", err)
	}
	if err := store.Delete(models.TokenKey); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}

	if !store.Timestamp().Equal(before) {
		t.Error("expected no commit when deleting an absent key")
	}
}

func TestFileStore_CorruptFileIsReinitialized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")

	if err := os.WriteFile(path, []byte("values: [not: a map"), 0o600); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	store, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}

	if _, ok := store.Get(models.TokenKey); ok {
		t.Error("expected empty store after reinitialising a corrupt file")
	}

	if err := store.Set(models.TokenKey, "t1"); err != nil {
		t.Errorf("Set() after reinitialise error = %v", err)
	}
}

func TestFileStore_LoadPicksUpExternalChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")

	first, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}
	second, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}

	if err := second.Set(models.HostKey, "http://localhost:8000"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok := first.Get(models.HostKey); ok {
		t.Fatal("expected stale view before Load")
	}

	if err := first.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if host, ok := first.Get(models.HostKey); !ok || host != "http://localhost:8000" {
		t.Errorf("Get(host) after Load = %q, %v", host, ok)
	}
}

func TestFileStore_FailedCommitKeepsPreviousValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")

	store, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}
	if err := store.Set(models.TokenKey, "abc"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// A directory in place of the file makes every commit fail.
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := os.Mkdir(path, 0o700); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	if err := store.Set(models.TokenKey, "xyz"); err == nil {
		t.Fatal("Set() expected error on failed commit")
	}
	if got, _ := store.Get(models.TokenKey); got != "abc" {
		t.Errorf("Get(token) after failed Set = %q, want %q", got, "abc")
	}

	if err := store.Set(models.HostKey, "http://localhost:8000"); err == nil {
		t.Fatal("Set() expected error on failed commit")
	}
	if _, ok := store.Get(models.HostKey); ok {
		t.Error("host key should not exist after failed Set")
	}

	if err := store.Delete(models.TokenKey); err == nil {
		t.Fatal("Delete() expected error on failed commit")
	}
	if got, ok := store.Get(models.TokenKey); !ok || got != "abc" {
		t.Errorf("Get(token) after failed Delete = %q, %v, want %q, true", got, ok, "abc")
	}
}

func TestMemoryStore_ConcurrentDeletes(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(models.TokenKey, "t1")
	_ = store.Set(models.ExpiryKey, "1")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := models.ClearCredential(store); err != nil {
				t.Errorf("ClearCredential() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if len(store.Snapshot()) != 0 {
		t.Errorf("expected empty store, got %v", store.Snapshot())
	}
}
