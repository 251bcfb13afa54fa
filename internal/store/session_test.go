package store

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/gesturehull/internal/gesture"
)

func TestSessionRepository_CreateAndFinish(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	started := time.Now().Add(-time.Minute).Truncate(time.Second)
	sess := &Session{ID: "s1", Source: "0", StartedAt: started}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID("s1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.EndedAt != nil {
		t.Error("new session should be open")
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}

	ended := time.Now().Truncate(time.Second)
	stats := SessionStats{
		Frames:         120,
		NoRegionFrames: 20,
		MeanArea:       64000,
		StdArea:        1200.5,
		ShapeCounts: map[gesture.Shape]int{
			gesture.TwoFingers: 90,
			gesture.ClosedFist: 10,
		},
	}
	if err := repo.Finish("s1", ended, stats); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, _ = repo.GetByID("s1")
	if got.EndedAt == nil || !got.EndedAt.Equal(ended) {
		t.Errorf("EndedAt = %v, want %v", got.EndedAt, ended)
	}
	if got.Frames != 120 || got.NoRegionFrames != 20 {
		t.Errorf("frames = %d/%d, want 120/20", got.Frames, got.NoRegionFrames)
	}
	if got.MeanArea != 64000 || got.StdArea != 1200.5 {
		t.Errorf("area stats = %v/%v", got.MeanArea, got.StdArea)
	}
	if got.ShapeCounts[gesture.TwoFingers] != 90 || got.ShapeCounts[gesture.ClosedFist] != 10 {
		t.Errorf("ShapeCounts = %v", got.ShapeCounts)
	}
}

func TestSessionRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		err := repo.Create(&Session{ID: id, Source: "0", StartedAt: base.Add(time.Duration(i) * time.Minute)})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "new" || all[2].ID != "old" {
		t.Errorf("List(0) = %v", sessionIDs(all))
	}

	limited, err := repo.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d sessions", len(limited))
	}
}

func TestSessionRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if err := repo.Finish("missing", time.Now(), SessionStats{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish() error = %v, want ErrNotFound", err)
	}
}

func TestDetectionRepository(t *testing.T) {
	s := newTestStore(t)
	if err := s.Sessions().Create(&Session{ID: "s1", Source: "video.mp4"}); err != nil {
		t.Fatalf("Create session error = %v", err)
	}

	repo := s.Detections()

	d := &Detection{SessionID: "s1", Frame: 5, Shape: gesture.FiveFingers, HullArea: 120000}
	if err := repo.Create(d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if d.ID == 0 {
		t.Error("Create() should set ID")
	}
	if d.Previous != gesture.Unknown {
		t.Errorf("Previous = %q, want unknown", d.Previous)
	}

	later := []*Detection{
		{SessionID: "s1", Frame: 40, Shape: gesture.ClosedFist, Previous: gesture.TwoFingers, HullArea: 30000},
		{SessionID: "s1", Frame: 20, Shape: gesture.TwoFingers, Previous: gesture.FiveFingers, HullArea: 75000},
	}
	for _, d := range later {
		if err := repo.Create(d); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	list, err := repo.ListBySession("s1")
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListBySession() returned %d detections, want 3", len(list))
	}

	wantFrames := []int64{5, 20, 40}
	for i, d := range list {
		if d.Frame != wantFrames[i] {
			t.Errorf("detection %d frame = %d, want %d", i, d.Frame, wantFrames[i])
		}
	}
	if list[1].Shape != gesture.TwoFingers || list[1].Previous != gesture.FiveFingers {
		t.Errorf("detection 1 = %+v", list[1])
	}

	n, err := repo.CountBySession("s1")
	if err != nil || n != 3 {
		t.Errorf("CountBySession() = %d, %v; want 3", n, err)
	}
}

func TestDetectionRepository_CascadeDelete(t *testing.T) {
	s := newTestStore(t)
	if err := s.Sessions().Create(&Session{ID: "s1", Source: "0"}); err != nil {
		t.Fatalf("Create session error = %v", err)
	}
	if err := s.Detections().Create(&Detection{SessionID: "s1", Shape: gesture.ClosedFist, HullArea: 20000}); err != nil {
		t.Fatalf("Create detection error = %v", err)
	}

	if err := s.Sessions().Delete("s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	n, err := s.Detections().CountBySession("s1")
	if err != nil {
		t.Fatalf("CountBySession() error = %v", err)
	}
	if n != 0 {
		t.Errorf("detections should be deleted with their session, found %d", n)
	}
}

func TestDetectionRepository_RequiresSession(t *testing.T) {
	s := newTestStore(t)

	err := s.Detections().Create(&Detection{SessionID: "nope", Shape: gesture.ClosedFist, HullArea: 20000})
	if err == nil {
		t.Error("Create() for unknown session should fail with foreign keys enabled")
	}
}

func sessionIDs(sessions []*Session) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
