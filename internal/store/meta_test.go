package store

import "testing"

func TestMeta(t *testing.T) {
	db := testDB(t)

	_, ok, err := db.GetMeta("missing")
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if ok {
		t.Error("GetMeta(missing) ok = true, want false")
	}

	if err := db.SetMeta(MetaActiveModel, "llama3.2"); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	v, ok, err := db.GetMeta(MetaActiveModel)
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if !ok || v != "llama3.2" {
		t.Errorf("GetMeta = %q, %v; want llama3.2, true", v, ok)
	}

	// Overwrite
	if err := db.SetMeta(MetaActiveModel, "mistral"); err != nil {
		t.Fatalf("SetMeta overwrite: %v", err)
	}
	v, _, err = db.GetMeta(MetaActiveModel)
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if v != "mistral" {
		t.Errorf("GetMeta after overwrite = %q, want mistral", v)
	}

	if err := db.DeleteMeta(MetaActiveModel); err != nil {
		t.Fatalf("DeleteMeta: %v", err)
	}
	_, ok, err = db.GetMeta(MetaActiveModel)
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if ok {
		t.Error("key still present after DeleteMeta")
	}
}
