package replica

import (
	"errors"
	"testing"

	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
	"codefolio/internal/vfs"
)

func seed() *Replica {
	r := New()
	r.Load([]models.Record{
		{ID: 1, Name: "src/a.ts", Content: "a", Language: "typescript"},
		{ID: 2, Name: "README.md", Content: "readme", Language: "markdown"},
	})
	return r
}

func TestReplica_ApplyCreated(t *testing.T) {
	r := seed()

	created := models.RecordCreated(models.Record{ID: 3, Name: "src/b.ts", Language: "typescript"})
	if got := r.Apply(created); got != Applied {
		t.Errorf("Apply(created) = %v, want %v", got, Applied)
	}
	if got := r.Apply(created); got != Ignored {
		t.Errorf("Apply(duplicate created) = %v, want %v", got, Ignored)
	}
	if len(r.Records()) != 3 {
		t.Errorf("Records() = %d, want 3", len(r.Records()))
	}
}

func TestReplica_UpdateReplacesCleanBuffer(t *testing.T) {
	r := seed()
	if _, err := r.Open(1); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	got := r.Apply(models.RecordUpdated(models.Record{ID: 1, Name: "src/a.ts", Content: "remote", Language: "typescript"}))
	if got != Applied {
		t.Errorf("Apply(updated) = %v, want %v", got, Applied)
	}

	buf, _ := r.Buffer(1)
	if buf.Content != "remote" || buf.Dirty {
		t.Errorf("buffer = %+v, want clean remote content", buf)
	}
}

func TestReplica_UpdateOnDirtyBufferConflicts(t *testing.T) {
	r := seed()
	r.Open(1)
	if err := r.Edit(1, "local"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	got := r.Apply(models.RecordUpdated(models.Record{ID: 1, Name: "src/a.ts", Content: "remote", Language: "typescript"}))
	if got != Conflict {
		t.Errorf("Apply(updated) = %v, want %v", got, Conflict)
	}

	buf, _ := r.Buffer(1)
	if buf.Content != "local" || !buf.Dirty {
		t.Errorf("buffer = %+v, want local edits kept", buf)
	}
	rec, _ := r.Get(1)
	if rec.Content != "remote" {
		t.Errorf("record content = %q, want remote", rec.Content)
	}
}

func TestReplica_RenameOfDirtyBufferIsNotAConflict(t *testing.T) {
	r := seed()
	r.Open(1)
	r.Edit(1, "local")

	got := r.Apply(models.RecordUpdated(models.Record{ID: 1, Name: "lib/a.ts", Content: "a", Language: "typescript"}))
	if got != Applied {
		t.Errorf("Apply(renamed) = %v, want %v", got, Applied)
	}
	if buf, _ := r.Buffer(1); buf.Content != "local" || !buf.Dirty {
		t.Errorf("buffer = %+v, want local edits kept", buf)
	}
}

func TestReplica_UpdateMatchingDirtyBufferCleans(t *testing.T) {
	r := seed()
	r.Open(1)
	r.Edit(1, "same")

	got := r.Apply(models.RecordUpdated(models.Record{ID: 1, Name: "src/a.ts", Content: "same", Language: "typescript"}))
	if got != Applied {
		t.Errorf("Apply(updated) = %v, want %v", got, Applied)
	}
	if buf, _ := r.Buffer(1); buf.Dirty {
		t.Error("buffer should be clean once the record matches it")
	}
}

func TestReplica_UpdateWithoutChangeIsIgnored(t *testing.T) {
	r := seed()
	got := r.Apply(models.RecordUpdated(models.Record{ID: 2, Name: "README.md", Content: "readme", Language: "markdown"}))
	if got != Ignored {
		t.Errorf("Apply(unchanged) = %v, want %v", got, Ignored)
	}
}

func TestReplica_DeleteClosesBuffer(t *testing.T) {
	r := seed()
	r.Open(1)
	r.Edit(1, "local")

	if got := r.Apply(models.RecordDeleted(1)); got != Applied {
		t.Errorf("Apply(deleted) = %v, want %v", got, Applied)
	}
	if _, open := r.Buffer(1); open {
		t.Error("buffer of a deleted record should be closed")
	}
	if got := r.Apply(models.RecordDeleted(1)); got != Ignored {
		t.Errorf("Apply(deleted again) = %v, want %v", got, Ignored)
	}
}

func TestReplica_ConnectedEventIgnored(t *testing.T) {
	r := seed()
	if got := r.Apply(models.ChangeEvent{Type: models.EventConnected}); got != Ignored {
		t.Errorf("Apply(connected) = %v, want %v", got, Ignored)
	}
}

func TestReplica_LoadKeepsDirtyBuffers(t *testing.T) {
	r := seed()
	r.Open(1)
	r.Open(2)
	r.Edit(2, "draft")

	r.Load([]models.Record{
		{ID: 2, Name: "README.md", Content: "fetched", Language: "markdown"},
	})

	if _, open := r.Buffer(1); open {
		t.Error("buffer of a vanished record should close on Load")
	}
	buf, open := r.Buffer(2)
	if !open || buf.Content != "draft" || !buf.Dirty {
		t.Errorf("buffer = %+v, want dirty draft kept", buf)
	}
}

func TestReplica_MarkSaved(t *testing.T) {
	r := seed()
	r.Open(2)
	r.Edit(2, "saved")

	r.MarkSaved(models.Record{ID: 2, Name: "README.md", Content: "saved", Language: "markdown"})

	buf, _ := r.Buffer(2)
	if buf.Dirty || buf.Content != "saved" {
		t.Errorf("buffer = %+v, want clean saved content", buf)
	}
}

func TestReplica_OpenAndEditErrors(t *testing.T) {
	r := seed()
	if _, err := r.Open(99); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Open(99) error = %v, want ErrNotFound", err)
	}
	if err := r.Edit(2, "x"); err == nil {
		t.Error("Edit() on a closed buffer should fail")
	}
	r.Open(2)
	r.Close(2)
	if _, open := r.Buffer(2); open {
		t.Error("buffer still open after Close")
	}
}

func TestReplica_TreeMatchesServerTree(t *testing.T) {
	r := seed()
	r.Apply(models.RecordCreated(models.Record{ID: 3, Name: "docs/.folder"}))

	got := vfs.Flatten(r.Tree())
	want := vfs.Flatten(vfs.BuildTree(r.Records()))
	if len(got) != len(want) {
		t.Fatalf("Flatten(Tree()) = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
