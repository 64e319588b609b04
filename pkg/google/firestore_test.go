package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/firestore/v1"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/tugas/pkg/config"
	"github.com/harrisonrobin/tugas/pkg/model"
	"github.com/harrisonrobin/tugas/pkg/store"
)

const parent = "projects/demo/databases/(default)/documents"

// fakeFirestore serves the subset of the Firestore REST API the store uses.
// Lists are served two documents per page to exercise paging.
type fakeFirestore struct {
	mu     sync.Mutex
	order  []string
	docs   map[string]map[string]json.RawMessage
	nextID int
	masks  [][]string
	pages  int
}

func newFakeFirestore() *fakeFirestore {
	return &fakeFirestore{docs: make(map[string]map[string]json.RawMessage)}
}

func (f *fakeFirestore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	collection := "/v1/" + parent + "/tasks"
	switch {
	case r.URL.Path == collection && r.Method == http.MethodGet:
		f.list(w, r)
	case r.URL.Path == collection && r.Method == http.MethodPost:
		var doc struct {
			Fields map[string]json.RawMessage `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nextID++
		id := fmt.Sprintf("doc%d", f.nextID)
		f.order = append(f.order, id)
		f.docs[id] = doc.Fields
		f.write(w, id)
	case strings.HasPrefix(r.URL.Path, collection+"/"):
		id := strings.TrimPrefix(r.URL.Path, collection+"/")
		fields, ok := f.docs[id]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"error":{"code":404,"message":"no document %s","status":"NOT_FOUND"}}`, id)
			return
		}
		switch r.Method {
		case http.MethodPatch:
			var doc struct {
				Fields map[string]json.RawMessage `json:"fields"`
			}
			if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			mask := r.URL.Query()["updateMask.fieldPaths"]
			f.masks = append(f.masks, mask)
			for _, p := range mask {
				fields[p] = doc.Fields[p]
			}
			f.write(w, id)
		case http.MethodDelete:
			delete(f.docs, id)
			for i, existing := range f.order {
				if existing == id {
					f.order = append(f.order[:i], f.order[i+1:]...)
					break
				}
			}
			fmt.Fprint(w, "{}")
		default:
			http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
		}
	default:
		http.Error(w, "unexpected path "+r.URL.Path, http.StatusBadRequest)
	}
}

func (f *fakeFirestore) list(w http.ResponseWriter, r *http.Request) {
	f.pages++
	start, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
	end := start + 2
	if end > len(f.order) {
		end = len(f.order)
	}
	resp := map[string]any{}
	var docs []map[string]any
	for _, id := range f.order[start:end] {
		docs = append(docs, map[string]any{"name": parent + "/tasks/" + id, "fields": f.docs[id]})
	}
	resp["documents"] = docs
	if end < len(f.order) {
		resp["nextPageToken"] = strconv.Itoa(end)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (f *fakeFirestore) write(w http.ResponseWriter, id string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"name": parent + "/tasks/" + id, "fields": f.docs[id]})
}

func newTestStore(t *testing.T) (*FirestoreStore, *fakeFirestore) {
	t.Helper()
	fake := newFakeFirestore()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Project = "demo"
	s, err := NewClientWithOptions(context.Background(), cfg, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewClientWithOptions failed: %v", err)
	}
	return s, fake
}

func TestFirestoreCRUD(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)

	var ids []string
	for _, text := range []string{"Report", "Milk", "Taxes"} {
		id, err := s.Create(ctx, model.Fields{Text: text, Deadline: "2025-06-02T09:00"})
		if err != nil {
			t.Fatalf("Create(%s) failed: %v", text, err)
		}
		ids = append(ids, id)
	}
	if ids[0] != "doc1" {
		t.Errorf("Create: got ID %q, want doc1", ids[0])
	}

	done := true
	if err := s.Update(ctx, ids[1], model.Patch{Completed: &done}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := fake.masks[0]; !reflect.DeepEqual(got, []string{model.FieldCompleted}) {
		t.Errorf("update mask: got %v", got)
	}

	if err := s.Delete(ctx, ids[2]); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	tasks, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []model.Task{
		{ID: "doc1", Text: "Report", Deadline: "2025-06-02T09:00"},
		{ID: "doc2", Text: "Milk", Completed: true, Deadline: "2025-06-02T09:00"},
	}
	if !reflect.DeepEqual(tasks, want) {
		t.Errorf("List: got %+v, want %+v", tasks, want)
	}
}

func TestFirestoreListFollowsPages(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)
	for i := 0; i < 5; i++ {
		if _, err := s.Create(ctx, model.Fields{Text: fmt.Sprintf("task %d", i), Deadline: "2025-06-02T09:00"}); err != nil {
			t.Fatal(err)
		}
	}

	tasks, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 5 {
		t.Errorf("List: got %d tasks, want 5", len(tasks))
	}
	if fake.pages != 3 {
		t.Errorf("pages requested: got %d, want 3", fake.pages)
	}
}

func TestFirestoreNotFound(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	text := "x"
	err := s.Update(ctx, "missing", model.Patch{Text: &text})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}
	var storeErr *store.Error
	if !errors.As(err, &storeErr) || storeErr.Op != "update" || storeErr.ID != "missing" {
		t.Errorf("Update: expected a store.Error, got %#v", err)
	}

	if err := s.Delete(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestFirestoreEmptyPatchIsNoop(t *testing.T) {
	s, fake := newTestStore(t)
	if err := s.Update(context.Background(), "anything", model.Patch{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(fake.masks) != 0 {
		t.Error("empty patch reached the server")
	}
}

func TestTaskFromDocumentIsLenient(t *testing.T) {
	doc := &firestore.Document{
		Name: parent + "/tasks/abc",
		Fields: map[string]firestore.Value{
			model.FieldText:     {StringValue: "Report"},
			model.FieldDeadline: {TimestampValue: "2025-06-02T09:00:00Z"},
		},
	}
	got := taskFromDocument(doc)
	want := model.FormatDeadline(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	if got.ID != "abc" || got.Text != "Report" || got.Completed || got.Deadline != want {
		t.Errorf("taskFromDocument: got %+v", got)
	}
}
