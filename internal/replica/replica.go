// Package replica is the observer-side model of the record set: the flat
// list as last fetched, updated by change events, plus the editor buffers
// the observer has open.
package replica

import (
	"fmt"
	"sort"
	"sync"

	"codefolio/internal/domain"
	"codefolio/internal/domain/models"
	"codefolio/internal/vfs"
)

// Outcome says what applying an event did.
type Outcome int

const (
	// Applied means the replica changed.
	Applied Outcome = iota
	// Ignored means the event carried nothing new (duplicate create,
	// delete of an unknown id, non-record event).
	Ignored
	// Conflict means the record changed while its buffer held unsaved
	// edits. The record is updated, the buffer keeps the local edits.
	Conflict
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	case Conflict:
		return "conflict"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Buffer is an open editor on one record.
type Buffer struct {
	ID      int64
	Content string
	Dirty   bool
}

// Replica is safe for concurrent use.
type Replica struct {
	mu      sync.Mutex
	records map[int64]models.Record
	buffers map[int64]*Buffer
}

// New creates an empty replica.
func New() *Replica {
	return &Replica{
		records: make(map[int64]models.Record),
		buffers: make(map[int64]*Buffer),
	}
}

// Load replaces the record set with a fresh fetch. Buffers of vanished
// records close; clean buffers take the fetched content; dirty buffers keep
// their edits.
func (r *Replica) Load(records []models.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = make(map[int64]models.Record, len(records))
	for _, rec := range records {
		r.records[rec.ID] = rec
	}

	for id, buf := range r.buffers {
		rec, ok := r.records[id]
		if !ok {
			delete(r.buffers, id)
			continue
		}
		if !buf.Dirty {
			buf.Content = rec.Content
		}
	}
}

// Records returns the current record set ordered by name.
func (r *Replica) Records() []models.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns one record.
func (r *Replica) Get(id int64) (models.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	return rec, ok
}

// Tree builds the navigable tree of the current record set.
func (r *Replica) Tree() []*models.TreeNode {
	return vfs.BuildTree(r.Records())
}

// Open starts editing a record. Opening an open record returns its buffer
// unchanged.
func (r *Replica) Open(id int64) (Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Buffer{}, fmt.Errorf("file %d: %w", id, domain.ErrNotFound)
	}
	if buf, ok := r.buffers[id]; ok {
		return *buf, nil
	}

	buf := &Buffer{ID: id, Content: rec.Content}
	r.buffers[id] = buf
	return *buf, nil
}

// Buffer returns an open buffer.
func (r *Replica) Buffer(id int64) (Buffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.buffers[id]
	if !ok {
		return Buffer{}, false
	}
	return *buf, true
}

// Edit replaces the content of an open buffer. The buffer is dirty while
// it differs from the record.
func (r *Replica) Edit(id int64, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.buffers[id]
	if !ok {
		return fmt.Errorf("file %d is not open", id)
	}
	buf.Content = content
	buf.Dirty = content != r.records[id].Content
	return nil
}

// MarkSaved records a successful save of rec: the record is replaced and
// its buffer, if open, becomes clean with the saved content.
func (r *Replica) MarkSaved(rec models.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[rec.ID] = rec
	if buf, ok := r.buffers[rec.ID]; ok {
		buf.Content = rec.Content
		buf.Dirty = false
	}
}

// Close drops a buffer, discarding unsaved edits.
func (r *Replica) Close(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, id)
}

// Apply folds one change event into the replica.
func (r *Replica) Apply(event models.ChangeEvent) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case models.EventFileCreated:
		if event.Record == nil {
			return Ignored
		}
		if _, known := r.records[event.Record.ID]; known {
			return Ignored
		}
		r.records[event.Record.ID] = *event.Record
		return Applied

	case models.EventFileUpdated:
		if event.Record == nil {
			return Ignored
		}
		rec := *event.Record
		prev, known := r.records[rec.ID]
		if known && sameContent(prev, rec) {
			return Ignored
		}
		r.records[rec.ID] = rec

		buf, open := r.buffers[rec.ID]
		if !open {
			return Applied
		}
		if buf.Dirty {
			if known && prev.Content == rec.Content {
				// Rename only; local edits are still against current content
				return Applied
			}
			if buf.Content == rec.Content {
				buf.Dirty = false
				return Applied
			}
			return Conflict
		}
		buf.Content = rec.Content
		return Applied

	case models.EventFileDeleted:
		if _, known := r.records[event.ID]; !known {
			return Ignored
		}
		delete(r.records, event.ID)
		delete(r.buffers, event.ID)
		return Applied

	default:
		return Ignored
	}
}

// sameContent compares the fields an event carries.
func sameContent(a, b models.Record) bool {
	return a.Name == b.Name && a.Content == b.Content && a.Language == b.Language
}
