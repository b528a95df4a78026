package storage

import (
	"testing"
)

func TestPrefixDB_Isolation(t *testing.T) {
	inner := NewMemory()
	dbA := NewPrefixDB(inner, []byte("a/"))
	dbB := NewPrefixDB(inner, []byte("b/"))

	dbA.Put([]byte("key"), []byte("fromA"))
	dbB.Put([]byte("key"), []byte("fromB"))

	if got, _ := dbA.Get([]byte("key")); string(got) != "fromA" {
		t.Fatalf("A.Get = %q, want fromA", got)
	}
	if got, _ := dbB.Get([]byte("key")); string(got) != "fromB" {
		t.Fatalf("B.Get = %q, want fromB", got)
	}
	if ok, _ := dbA.Has([]byte("b/key")); ok {
		t.Fatal("A should not see B's raw key")
	}
	if got, _ := inner.Get([]byte("a/key")); string(got) != "fromA" {
		t.Fatalf("inner a/key = %q, want fromA", got)
	}
}

func TestPrefixDB_ForEachStripsPrefix(t *testing.T) {
	db := NewPrefixDB(NewMemory(), []byte("pre/"))
	db.Put([]byte("hello"), []byte("world"))

	var sawKey string
	db.ForEach(nil, func(key, _ []byte) error {
		sawKey = string(key)
		return nil
	})
	if sawKey != "hello" {
		t.Fatalf("ForEach key = %q, want %q", sawKey, "hello")
	}
}

func TestPrefixDB_CopiesPrefix(t *testing.T) {
	prefix := []byte("p/")
	db := NewPrefixDB(NewMemory(), prefix)
	prefix[0] = 'q'
	db.Put([]byte("k"), []byte("v"))
	if ok, _ := db.inner.Has([]byte("p/k")); !ok {
		t.Fatal("caller mutation of prefix leaked into PrefixDB")
	}
}

func TestPrefixDB_DeleteAll(t *testing.T) {
	inner := NewMemory()
	dbA := NewPrefixDB(inner, []byte("a/"))
	dbB := NewPrefixDB(inner, []byte("b/"))

	for _, k := range []string{"k1", "k2", "k3"} {
		dbA.Put([]byte(k), []byte("v"))
	}
	dbB.Put([]byte("k1"), []byte("other"))

	if err := dbA.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if inner.Len() != 1 {
		t.Fatalf("inner has %d keys after DeleteAll, want 1", inner.Len())
	}
	if got, _ := dbB.Get([]byte("k1")); string(got) != "other" {
		t.Fatalf("B.Get = %q, want other", got)
	}
	if err := dbA.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll on empty namespace: %v", err)
	}
}

func TestPrefixDB_CloseIsNoop(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("x/"))
	db.Put([]byte("key"), []byte("val"))

	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got, err := inner.Get([]byte("x/key")); err != nil || string(got) != "val" {
		t.Fatalf("inner.Get after Close = %q, %v", got, err)
	}
}
