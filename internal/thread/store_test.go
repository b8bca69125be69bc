package thread

import (
	"testing"
	"time"

	"invoicehub-backend/internal/model"
)

func mkComment(id, project uint64, parent *uint64, author string, at time.Time) model.Comment {
	return model.Comment{
		ID:         id,
		ProjectID:  project,
		AuthorID:   id,
		AuthorName: author,
		Content:    "c",
		Visibility: model.VisibilityAll,
		ParentID:   parent,
		CreatedAt:  at,
	}
}

func u64(v uint64) *uint64 { return &v }

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestOptimisticAddThenInsertEventIsIdempotent(t *testing.T) {
	s := NewStore()
	c := mkComment(1, 10, nil, "Alice", t0)
	if err := s.Add(c); err != nil {
		t.Fatal(err)
	}
	before := s.Len()
	s.Apply(Event{Action: ActionInsert, Comment: c})
	if s.Len() != before {
		t.Fatalf("duplicate applied: len %d, want %d", s.Len(), before)
	}
	if got := s.Visible(true); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected visible list %v", got)
	}
}

func TestOptimisticReplyDedup(t *testing.T) {
	s := NewStore()
	_ = s.Add(mkComment(1, 10, nil, "Alice", t0))
	reply := mkComment(2, 10, u64(1), "Bob", t0.Add(time.Minute))
	if err := s.Add(reply); err != nil {
		t.Fatal(err)
	}
	s.Apply(Event{Action: ActionInsert, Comment: reply})
	if got := s.Replies(1); len(got) != 1 {
		t.Fatalf("reply duplicated: %d entries", len(got))
	}
}

func TestAddReplyRejectsBadParent(t *testing.T) {
	s := NewStore()
	_ = s.Add(mkComment(1, 10, nil, "Alice", t0))

	if err := s.Add(mkComment(2, 10, u64(99), "Bob", t0)); err != ErrParentNotFound {
		t.Errorf("unknown parent: got %v", err)
	}
	// Parent in another project is also rejected.
	if err := s.Add(mkComment(3, 77, u64(1), "Bob", t0)); err != ErrParentNotFound {
		t.Errorf("cross-project parent: got %v", err)
	}
}

func TestInsertEventNewTopLevelPrepends(t *testing.T) {
	s := NewStore()
	_ = s.Add(mkComment(1, 10, nil, "Alice", t0))
	s.Apply(Event{Action: ActionInsert, Comment: mkComment(2, 10, nil, "Bob", t0.Add(time.Hour))})
	got := s.Visible(true)
	if len(got) != 2 || got[0].ID != 2 {
		t.Fatalf("newest not first: %v", got)
	}
}

func TestInsertEventOrphanReplyDropped(t *testing.T) {
	s := NewStore()
	s.Apply(Event{Action: ActionInsert, Comment: mkComment(5, 10, u64(404), "Bob", t0)})
	if s.Len() != 0 {
		t.Fatal("orphan reply should be dropped")
	}
}

func TestUpdateEventMergesInPlace(t *testing.T) {
	s := NewStore()
	c := mkComment(1, 10, nil, "Alice", t0)
	_ = s.Add(c)
	c.Content = "edited"
	c.IsResolved = true
	s.Apply(Event{Action: ActionUpdate, Comment: c})
	got, _ := s.Get(1)
	if got.Content != "edited" || !got.IsResolved {
		t.Fatalf("update not applied: %+v", got)
	}
	// Update for an unknown id is ignored.
	s.Apply(Event{Action: ActionUpdate, Comment: mkComment(9, 10, nil, "X", t0)})
	if s.Has(9) {
		t.Fatal("update must not insert")
	}
}

func TestDeleteEventRemovesTopLevelAndReplies(t *testing.T) {
	s := NewStore()
	_ = s.Add(mkComment(1, 10, nil, "Alice", t0))
	_ = s.Add(mkComment(2, 10, u64(1), "Bob", t0))
	s.Apply(Event{Action: ActionDelete, Comment: mkComment(1, 10, nil, "Alice", t0)})
	if s.Len() != 0 {
		t.Fatalf("delete should cascade to replies, len=%d", s.Len())
	}
}

func TestDeleteEventRemovesReplyFromParentList(t *testing.T) {
	s := NewStore()
	_ = s.Add(mkComment(1, 10, nil, "Alice", t0))
	reply := mkComment(2, 10, u64(1), "Bob", t0)
	_ = s.Add(reply)
	s.Apply(Event{Action: ActionDelete, Comment: reply})
	if len(s.Replies(1)) != 0 {
		t.Fatal("reply still attached after delete")
	}
	if !s.Has(1) {
		t.Fatal("parent should survive reply delete")
	}
}

func TestVisibleFiltersResolved(t *testing.T) {
	s := NewStore()
	open := mkComment(1, 10, nil, "Alice", t0)
	resolved := mkComment(2, 10, nil, "Bob", t0.Add(time.Minute))
	resolved.IsResolved = true
	_ = s.Add(open)
	_ = s.Add(resolved)

	if got := s.Visible(false); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("resolved leaked into default view: %v", got)
	}
	if got := s.Visible(true); len(got) != 2 {
		t.Fatalf("show-resolved view incomplete: %v", got)
	}
}

func TestLoadAttachesRepliesRegardlessOfOrder(t *testing.T) {
	s := NewStore()
	s.Load([]model.Comment{
		mkComment(2, 10, u64(1), "Bob", t0.Add(time.Minute)), // reply before parent
		mkComment(1, 10, nil, "Alice", t0),
		mkComment(3, 10, u64(404), "Eve", t0), // orphan dropped
	})
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	if got := s.Replies(1); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("reply not attached: %v", got)
	}
}

func TestGroupByProject(t *testing.T) {
	comments := []model.Comment{
		mkComment(1, 10, nil, "Alice", t0),
		mkComment(2, 20, nil, "Bob", t0.Add(2*time.Hour)),
		mkComment(3, 10, nil, "Carol", t0.Add(time.Hour)),
		mkComment(4, 10, nil, "Alice", t0.Add(30*time.Minute)),
	}
	groups := GroupByProject(comments)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	// Project 20 has the newest activity and sorts first.
	if groups[0].ProjectID != 20 || groups[1].ProjectID != 10 {
		t.Fatalf("bucket order wrong: %v, %v", groups[0].ProjectID, groups[1].ProjectID)
	}
	p10 := groups[1]
	if p10.Comments[0].ID != 3 {
		t.Errorf("bucket not newest-first: first id %d", p10.Comments[0].ID)
	}
	if !p10.LastActivity.Equal(t0.Add(time.Hour)) {
		t.Errorf("lastActivity = %v", p10.LastActivity)
	}
	if len(p10.Authors) != 2 {
		t.Errorf("authors not deduplicated: %v", p10.Authors)
	}
}

func TestTaskIndex(t *testing.T) {
	tasks := []model.CommentTask{
		{ID: 1, CommentID: 5, Priority: model.PriorityHigh},
		{ID: 2, CommentID: 6, Priority: model.PriorityLow, IsCompleted: true},
	}
	idx := TaskIndex(tasks)
	if len(idx) != 2 {
		t.Fatalf("len = %d", len(idx))
	}
	if got := idx[5]; got.ID != 1 {
		t.Errorf("wrong task for comment 5: %+v", got)
	}
	if !idx[6].IsCompleted {
		t.Error("completed flag lost")
	}
	if _, ok := idx[7]; ok {
		t.Error("unexpected entry for unpinned comment")
	}
}
