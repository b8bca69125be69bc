// Package thread keeps an in-memory tree of project comments consistent
// under three change sources: the caller's own optimistic writes, a pushed
// change feed of insert/update/delete events keyed by row id, and full
// reloads. Comments live in a single id-indexed arena with parent/child
// relationships stored as child-id lists, so every event is applied with
// map lookups instead of scanning nested reply slices.
package thread

import (
	"errors"
	"sort"
	"time"

	"invoicehub-backend/internal/model"
)

// Event actions understood by Apply.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event is one pushed change for a comment row.
type Event struct {
	Action  string        `json:"action"`
	Comment model.Comment `json:"comment"`
}

// ErrParentNotFound is returned when a reply references a parent that is
// not a known top-level comment in the store.
var ErrParentNotFound = errors.New("parent comment not found")

// Store holds the comment arena for one view. It is not safe for
// concurrent use; callers serialize access the way a UI event loop would.
type Store struct {
	nodes    map[uint64]model.Comment
	children map[uint64][]uint64 // top-level id -> reply ids in arrival order
	topLevel []uint64            // newest first
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		nodes:    make(map[uint64]model.Comment),
		children: make(map[uint64][]uint64),
	}
}

// Load replaces the store contents from a flat comment list, typically a
// full reload from the database. Top-level comments are ordered newest
// first; replies attach to their parents in slice order. Replies whose
// parent is missing are dropped.
func (s *Store) Load(comments []model.Comment) {
	s.nodes = make(map[uint64]model.Comment, len(comments))
	s.children = make(map[uint64][]uint64)
	s.topLevel = s.topLevel[:0]
	// Two passes: parents first so replies can always find their parent
	// regardless of input order.
	for _, c := range comments {
		if c.ParentID == nil {
			s.nodes[c.ID] = c
			s.topLevel = append(s.topLevel, c.ID)
		}
	}
	sort.SliceStable(s.topLevel, func(a, b int) bool {
		return s.nodes[s.topLevel[a]].CreatedAt.After(s.nodes[s.topLevel[b]].CreatedAt)
	})
	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		if _, ok := s.nodes[*c.ParentID]; !ok {
			continue
		}
		s.nodes[c.ID] = c
		s.children[*c.ParentID] = append(s.children[*c.ParentID], c.ID)
	}
}

// Has reports whether a comment id is present, top-level or reply.
func (s *Store) Has(id uint64) bool {
	_, ok := s.nodes[id]
	return ok
}

// Get returns the stored comment by id.
func (s *Store) Get(id uint64) (model.Comment, bool) {
	c, ok := s.nodes[id]
	return c, ok
}

// Len returns the number of stored comments including replies.
func (s *Store) Len() int { return len(s.nodes) }

// Add applies the caller's own optimistic write before the network call
// settles: a new top-level comment is prepended (newest first) and a reply
// is appended to its parent's reply list. A reply whose parent is unknown
// or belongs to a different project is rejected. A subsequently arriving
// insert event for the same id is recognized as already applied.
func (s *Store) Add(c model.Comment) error {
	if s.Has(c.ID) {
		return nil
	}
	if c.ParentID == nil {
		s.nodes[c.ID] = c
		s.topLevel = append([]uint64{c.ID}, s.topLevel...)
		return nil
	}
	parent, ok := s.nodes[*c.ParentID]
	if !ok || parent.ParentID != nil || parent.ProjectID != c.ProjectID {
		return ErrParentNotFound
	}
	s.nodes[c.ID] = c
	s.children[*c.ParentID] = append(s.children[*c.ParentID], c.ID)
	return nil
}

// Apply merges one pushed change event into the store.
//
//	insert – skipped when the id is already known (optimistic dedup);
//	         otherwise attached top-level or under its parent. Events whose
//	         parent cannot be found are dropped.
//	update – replaces the matching comment in place; last write wins.
//	delete – removes the comment from the arena, the top-level order and
//	         its parent's reply list, detaching any replies of its own.
func (s *Store) Apply(ev Event) {
	c := ev.Comment
	switch ev.Action {
	case ActionInsert:
		if s.Has(c.ID) {
			return
		}
		if c.ParentID == nil {
			s.nodes[c.ID] = c
			s.topLevel = append([]uint64{c.ID}, s.topLevel...)
			return
		}
		if _, ok := s.nodes[*c.ParentID]; !ok {
			return // parent never arrived; drop the event
		}
		s.nodes[c.ID] = c
		s.children[*c.ParentID] = append(s.children[*c.ParentID], c.ID)
	case ActionUpdate:
		if !s.Has(c.ID) {
			return
		}
		s.nodes[c.ID] = c
	case ActionDelete:
		s.remove(c.ID)
	}
}

func (s *Store) remove(id uint64) {
	c, ok := s.nodes[id]
	if !ok {
		return
	}
	delete(s.nodes, id)
	if c.ParentID == nil {
		for i, tid := range s.topLevel {
			if tid == id {
				s.topLevel = append(s.topLevel[:i], s.topLevel[i+1:]...)
				break
			}
		}
		// Cascade: replies detach along with their parent.
		for _, rid := range s.children[id] {
			delete(s.nodes, rid)
		}
		delete(s.children, id)
		return
	}
	kids := s.children[*c.ParentID]
	for i, rid := range kids {
		if rid == id {
			s.children[*c.ParentID] = append(kids[:i], kids[i+1:]...)
			break
		}
	}
}

// Replies returns the replies of a top-level comment in arrival order.
func (s *Store) Replies(parentID uint64) []model.Comment {
	ids := s.children[parentID]
	out := make([]model.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.nodes[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Visible returns top-level comments newest first, excluding resolved
// threads unless showResolved is set.
func (s *Store) Visible(showResolved bool) []model.Comment {
	out := make([]model.Comment, 0, len(s.topLevel))
	for _, id := range s.topLevel {
		c, ok := s.nodes[id]
		if !ok {
			continue
		}
		if c.IsResolved && !showResolved {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ProjectGroup is one bucket of the cross-project inbox view.
type ProjectGroup struct {
	ProjectID    uint64          `json:"project_id"`
	Comments     []model.Comment `json:"comments"`
	LastActivity time.Time       `json:"last_activity"`
	Authors      []string        `json:"authors"`
}

// GroupByProject buckets a flat comment list by project for the inbox view.
// Comments inside each bucket are sorted newest first, LastActivity is the
// newest comment's timestamp, buckets are ordered by LastActivity descending
// and Authors collects distinct author display names in first-seen order.
func GroupByProject(comments []model.Comment) []ProjectGroup {
	byProject := make(map[uint64][]model.Comment)
	order := make([]uint64, 0)
	for _, c := range comments {
		if _, ok := byProject[c.ProjectID]; !ok {
			order = append(order, c.ProjectID)
		}
		byProject[c.ProjectID] = append(byProject[c.ProjectID], c)
	}
	groups := make([]ProjectGroup, 0, len(order))
	for _, pid := range order {
		bucket := byProject[pid]
		sort.SliceStable(bucket, func(a, b int) bool {
			return bucket[a].CreatedAt.After(bucket[b].CreatedAt)
		})
		g := ProjectGroup{ProjectID: pid, Comments: bucket, LastActivity: bucket[0].CreatedAt}
		seen := make(map[string]struct{})
		for _, c := range bucket {
			if _, ok := seen[c.AuthorName]; ok || c.AuthorName == "" {
				continue
			}
			seen[c.AuthorName] = struct{}{}
			g.Authors = append(g.Authors, c.AuthorName)
		}
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].LastActivity.After(groups[b].LastActivity)
	})
	return groups
}

// TaskIndex builds the comment_id -> task map used to reflect pinned state.
// It is rebuilt from the task list on every call rather than cached; at most
// one task exists per comment, later rows win if the data ever disagrees.
func TaskIndex(tasks []model.CommentTask) map[uint64]model.CommentTask {
	idx := make(map[uint64]model.CommentTask, len(tasks))
	for _, t := range tasks {
		idx[t.CommentID] = t
	}
	return idx
}
