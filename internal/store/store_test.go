package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/aether-db/minibitcask/internal/keydir"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		path    func(dir string) string
		wantErr bool
	}{
		{
			name:    "valid path",
			path:    func(dir string) string { return filepath.Join(dir, "active.log") },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			s, err := New(tt.path(dir))
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if s != nil {
				defer s.Close()
			}
		})
	}
}

func TestNew_LockBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")

	first, err := New(path)
	if err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	defer first.Close()

	if _, err := New(path); !errors.Is(err, ErrLockBusy) {
		t.Errorf("second New() error = %v, want ErrLockBusy", err)
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "active.log"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	tests := []struct {
		name  string
		key   string
		value []byte
	}{
		{"small value", "k1", []byte("v1")},
		{"empty value", "k2", []byte{}},
		{"empty key", "", []byte("rootval")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Set([]byte(tt.key), tt.value); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, ok, err := s.Get([]byte(tt.key))
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !ok {
				t.Fatal("Get() ok = false, want true")
			}
			if string(got) != string(tt.value) {
				t.Errorf("Get() = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestStore_Get_Missing(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "active.log"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if _, ok, err := s.Get([]byte("nope")); ok || err != nil {
		t.Errorf("Get() = ok=%v err=%v, want ok=false err=nil", ok, err)
	}
}

func TestStore_Delete(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "active.log"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if err := s.Set([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Delete([]byte("k")); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := s.Get([]byte("k")); ok {
		t.Error("Get() after Delete() ok = true, want false")
	}

	// Deleting an absent key is legal and still appends a tombstone.
	if err := s.Delete([]byte("absent")); err != nil {
		t.Errorf("Delete() on absent key error = %v, want nil", err)
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.log")

	func() {
		s, err := New(path)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer s.Close()
		if err := s.Set([]byte("k"), []byte("v1")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := s.Set([]byte("k"), []byte("v2")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}()

	s, err := New(path)
	if err != nil {
		t.Fatalf("reopen New() error = %v", err)
	}
	defer s.Close()

	value, ok, err := s.Get([]byte("k"))
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, %v", value, ok, err)
	}
	if string(value) != "v2" {
		t.Errorf("Get() = %q, want %q", value, "v2")
	}
}

func TestStore_Len(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "active.log"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Set([]byte(k), []byte("v")); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}

	if err := s.Delete([]byte("b")); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() after Delete() = %d, want 2", s.Len())
	}
}

func TestStore_Merge_Unimplemented(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "active.log"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if err := s.Merge(); !errors.Is(err, ErrUnimplemented) {
		t.Errorf("Merge() error = %v, want ErrUnimplemented", err)
	}
}

func drain(t *testing.T, it *Iterator) []string {
	t.Helper()
	var got []string
	for {
		key, _, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if !ok {
			break
		}
		got = append(got, string(key))
	}
	return got
}

func drainReverse(t *testing.T, it *Iterator) []string {
	t.Helper()
	var got []string
	for {
		key, _, ok, err := it.Prev()
		if err != nil {
			t.Fatalf("Prev() error = %v", err)
		}
		if !ok {
			break
		}
		got = append(got, string(key))
	}
	return got
}

func equalKeys(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStore_Scan(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "active.log"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	for _, k := range []string{"nnaes", "amhue", "meeae", "uujeh", "anehe"} {
		if err := s.Set([]byte(k), []byte("v-"+k)); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	t.Run("forward range [a, e)", func(t *testing.T) {
		it := s.Scan(keydir.Included([]byte("a")), keydir.Excluded([]byte("e")))
		equalKeys(t, drain(t, it), []string{"amhue", "anehe"})
	})

	t.Run("reverse full scan", func(t *testing.T) {
		it := s.Scan(keydir.Unbounded(), keydir.Unbounded())
		equalKeys(t, drainReverse(t, it), []string{"uujeh", "nnaes", "meeae", "anehe", "amhue"})
	})
}

func TestStore_Scan_ForwardAndReverseCoverEveryKeyOnce(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "active.log"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	keys := []string{"a", "b", "c", "d", "e"}
	for _, k := range keys {
		if err := s.Set([]byte(k), []byte(k)); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	it := s.Scan(keydir.Unbounded(), keydir.Unbounded())
	first, _, ok, err := it.Next()
	if err != nil || !ok {
		t.Fatalf("Next() = %v, %v, %v", first, ok, err)
	}
	rest := drainReverse(t, it)

	seen := map[string]bool{string(first): true}
	for _, k := range rest {
		if seen[k] {
			t.Fatalf("key %q produced twice across Next/Prev", k)
		}
		seen[k] = true
	}
	if len(seen) != len(keys) {
		t.Errorf("covered %d keys, want %d", len(seen), len(keys))
	}
}

func TestStore_ScanPrefix(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "active.log"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	for _, k := range []string{"ccnaes", "camhue", "deeae", "eeujeh", "canehe", "aanehe"} {
		if err := s.Set([]byte(k), []byte("v")); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	it := s.ScanPrefix([]byte("ca"))
	equalKeys(t, drain(t, it), []string{"camhue", "canehe"})
}

func TestStore_ScanPrefix_Empty(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "active.log"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	for _, k := range []string{"b", "a", "c"} {
		if err := s.Set([]byte(k), []byte("v")); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	it := s.ScanPrefix(nil)
	equalKeys(t, drain(t, it), []string{"a", "b", "c"})
}
