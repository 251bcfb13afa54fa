package store

import (
	"errors"
	"testing"

	"github.com/ayusman/gesturehull/internal/detector"
)

func TestProfileRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := &Profile{ID: "p1", Name: "blue glove", Range: detector.DefaultRange()}
	if err := repo.Create(p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.CreatedAt.IsZero() {
		t.Error("Create() should set CreatedAt")
	}

	got, err := repo.GetByID("p1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "blue glove" || got.Range != detector.DefaultRange() {
		t.Errorf("GetByID() = %+v", got)
	}

	byName, err := repo.GetByName("blue glove")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if byName.ID != "p1" {
		t.Errorf("GetByName() ID = %q, want p1", byName.ID)
	}

	p.Name = "green glove"
	p.Range = detector.HSVRange{HMin: 35, HMax: 85, SMin: 50, SMax: 255, VMin: 50, VMax: 255}
	if err := repo.Update(p); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ = repo.GetByID("p1")
	if got.Name != "green glove" || got.Range.HMin != 35 || got.Range.HMax != 85 {
		t.Errorf("after Update() = %+v", got)
	}

	if err := repo.Delete("p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID("p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestProfileRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	for _, p := range []*Profile{
		{ID: "b", Name: "bravo", Range: detector.DefaultRange()},
		{ID: "a", Name: "alpha", Range: detector.DefaultRange()},
	} {
		if err := repo.Create(p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	profiles, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("List() returned %d profiles, want 2", len(profiles))
	}
	if profiles[0].Name != "alpha" || profiles[1].Name != "bravo" {
		t.Errorf("List() order = %s, %s; want alpha, bravo", profiles[0].Name, profiles[1].Name)
	}
}

func TestProfileRepository_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	if err := repo.Create(&Profile{ID: "1", Name: "dup", Range: detector.DefaultRange()}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(&Profile{ID: "2", Name: "dup", Range: detector.DefaultRange()}); err == nil {
		t.Error("Create() with duplicate name should fail")
	}
}

func TestProfileRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	if _, err := repo.GetByName("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByName() error = %v, want ErrNotFound", err)
	}
	if err := repo.Update(&Profile{ID: "missing", Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
