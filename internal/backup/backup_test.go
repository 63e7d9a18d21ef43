package backup_test

import (
	"context"
	"testing"

	"github.com/studykit/aptrack/internal/backup"
	"github.com/studykit/aptrack/internal/notes"
	"github.com/studykit/aptrack/internal/platform/persist"
	"github.com/studykit/aptrack/internal/practice"
)

func newStores(t *testing.T) (*notes.Store, *practice.Store) {
	t.Helper()
	ctx := context.Background()

	ns := notes.NewStore(notes.NewPersist(persist.NewMemoryBackend()))
	ns.Load(ctx)
	ps := practice.NewStore(practice.NewPersist(persist.NewMemoryBackend()))
	ps.Load(ctx)
	return ns, ps
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	srcNotes, srcPractice := newStores(t)

	srcNotes.Create(ctx, "ap-physics-1", "unit-1", "topic-1", "", "# Kinematics\n#motion")
	srcNotes.SetTopicStatus(ctx, "ap-physics-1", "unit-1", "topic-1", notes.StatusDone)
	session := srcPractice.StartSession("ap-physics-1", "unit-1", practice.TypeMCQ, 2)
	srcPractice.EndSession(ctx, session.ID, []practice.Answer{
		{QuestionID: "mcq-ap-physics-1-unit-1-1", IsCorrect: true},
		{QuestionID: "mcq-ap-physics-1-unit-1-2", IsCorrect: false},
	})

	blob, err := backup.Export(srcNotes, srcPractice)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	dstNotes, dstPractice := newStores(t)
	if err := backup.Import(ctx, blob, dstNotes, dstPractice); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if got := len(dstNotes.Notes()); got != 1 {
		t.Errorf("note count = %d, want 1", got)
	}
	if got := dstNotes.TopicStatusFor("ap-physics-1", "unit-1", "topic-1"); got != notes.StatusDone {
		t.Errorf("topic status = %q, want %q", got, notes.StatusDone)
	}
	attempts := dstPractice.Attempts()
	if len(attempts) != 1 {
		t.Fatalf("attempt count = %d, want 1", len(attempts))
	}
	if attempts[0].CorrectCount != 1 || attempts[0].TotalCount != 2 {
		t.Errorf("counts = %d/%d, want 1/2", attempts[0].CorrectCount, attempts[0].TotalCount)
	}
}

func TestImport_Additive(t *testing.T) {
	ctx := context.Background()
	dstNotes, dstPractice := newStores(t)
	existing := dstNotes.Create(ctx, "ap-physics-1", "unit-1", "topic-1", "", "# Mine")

	blob := []byte(`{
		"version": 1,
		"notes": [{"id": "imported-note", "courseId": "ap-calculus-ab", "title": "Theirs"}],
		"attempts": [{"id": "imported-attempt", "courseId": "ap-calculus-ab", "unitId": "unit-1", "type": "mcq", "correctCount": 4, "totalCount": 5}]
	}`)
	if err := backup.Import(ctx, blob, dstNotes, dstPractice); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if _, ok := dstNotes.ByID(existing.ID); !ok {
		t.Error("pre-existing note was lost")
	}
	if _, ok := dstNotes.ByID("imported-note"); !ok {
		t.Error("imported note missing")
	}
	if got := len(dstPractice.ByCourse("ap-calculus-ab")); got != 1 {
		t.Errorf("imported attempt count = %d, want 1", got)
	}
}

func TestImport_Malformed(t *testing.T) {
	ctx := context.Background()
	dstNotes, dstPractice := newStores(t)
	dstNotes.Create(ctx, "ap-physics-1", "unit-1", "topic-1", "", "# Keep")

	tests := []struct {
		name string
		blob string
	}{
		{"not json", "{oops"},
		{"missing version", `{"notes": []}`},
		{"note without id", `{"version": 1, "notes": [{"title": "anon"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := backup.Import(ctx, []byte(tt.blob), dstNotes, dstPractice); err == nil {
				t.Fatal("Import accepted a malformed payload")
			}
			if got := len(dstNotes.Notes()); got != 1 {
				t.Errorf("note count = %d, want 1 (nothing applied)", got)
			}
			if got := len(dstPractice.Attempts()); got != 0 {
				t.Errorf("attempt count = %d, want 0 (nothing applied)", got)
			}
		})
	}
}
