package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"invoicehub-backend/internal/model"
	"invoicehub-backend/internal/thread"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restore wd: %v", err)
		}
	})
}

func marshalEvent(t *testing.T, ev CommentChangedEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return b
}

func comment(id, projectID uint64, content string) model.Comment {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	return model.Comment{
		ID:         id,
		ProjectID:  projectID,
		CompanyID:  1,
		AuthorID:   3,
		AuthorName: "Dana",
		Content:    content,
		Visibility: model.VisibilityAll,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestHandleMessageDeleteReachesProjectStore(t *testing.T) {
	chdirTemp(t)
	stores := make(map[uint64]*thread.Store)

	cm := comment(1, 10, "needs review")
	if err := handleMessage(marshalEvent(t, CommentChangedEvent{Action: thread.ActionInsert, Comment: cm}), stores); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if st := stores[10]; st == nil || !st.Has(1) {
		t.Fatalf("insert did not land in project 10's store")
	}

	// Deletes carry the full row so the event buckets to the same store
	// as the insert did.
	if err := handleMessage(marshalEvent(t, CommentChangedEvent{Action: thread.ActionDelete, Comment: cm}), stores); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if stores[10].Has(1) {
		t.Errorf("comment 1 still present in project 10's store after delete")
	}
	if _, ok := stores[0]; ok {
		t.Errorf("delete created a store for project 0")
	}
}

func TestHandleMessagePreviewStaysValidUTF8(t *testing.T) {
	chdirTemp(t)
	stores := make(map[uint64]*thread.Store)

	cm := comment(2, 11, strings.Repeat("héllo wörld ", 20))
	if err := handleMessage(marshalEvent(t, CommentChangedEvent{Action: thread.ActionInsert, Comment: cm}), stores); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}

	data, err := os.ReadFile(filepath.Join("logs", "activity.log"))
	if err != nil {
		t.Fatalf("read activity log: %v", err)
	}
	if !utf8.Valid(data) {
		t.Errorf("activity log contains invalid UTF-8: %q", data)
	}
	if !strings.Contains(string(data), "project_id=11") {
		t.Errorf("log line missing project id: %q", data)
	}
}
