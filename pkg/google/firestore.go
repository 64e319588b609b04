package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"

	"github.com/harrisonrobin/tugas/pkg/logging"
	"github.com/harrisonrobin/tugas/pkg/model"
	"github.com/harrisonrobin/tugas/pkg/store"
)

// listPageSize bounds a single List round trip; List keeps paging until done.
const listPageSize = 300

// FirestoreStore keeps one document per task in a single collection.
type FirestoreStore struct {
	docs       *firestore.ProjectsDatabasesDocumentsService
	parent     string
	collection string
	logger     *log.Logger
}

var _ store.Store = (*FirestoreStore)(nil)

// NewFirestoreStore binds a store to parent ("projects/p/databases/d/documents")
// and a collection ID.
func NewFirestoreStore(srv *firestore.Service, parent, collection string, logger *log.Logger) *FirestoreStore {
	if logger == nil {
		logger = logging.Discard()
	}
	return &FirestoreStore{
		docs:       srv.Projects.Databases.Documents,
		parent:     parent,
		collection: collection,
		logger:     logger,
	}
}

func (s *FirestoreStore) docName(id string) string {
	return path.Join(s.parent, s.collection, id)
}

// List fetches every document in the collection, following page tokens.
func (s *FirestoreStore) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	call := s.docs.List(s.parent, s.collection).PageSize(listPageSize)
	err := call.Pages(ctx, func(page *firestore.ListDocumentsResponse) error {
		for _, doc := range page.Documents {
			tasks = append(tasks, taskFromDocument(doc))
		}
		return nil
	})
	if err != nil {
		return nil, wrap("list", "", err)
	}
	s.logger.Debug("listed documents", "collection", s.collection, "count", len(tasks))
	return tasks, nil
}

// Create adds a document with a server-assigned ID.
func (s *FirestoreStore) Create(ctx context.Context, fields model.Fields) (string, error) {
	doc, err := s.docs.CreateDocument(s.parent, s.collection, documentFromFields(fields)).Context(ctx).Do()
	if err != nil {
		return "", wrap("create", "", err)
	}
	id := path.Base(doc.Name)
	s.logger.Debug("created document", "id", id)
	return id, nil
}

// Update writes only the patched fields of an existing document.
func (s *FirestoreStore) Update(ctx context.Context, id string, patch model.Patch) error {
	if patch.IsEmpty() {
		return nil
	}
	_, err := s.docs.Patch(s.docName(id), documentFromPatch(patch)).
		UpdateMaskFieldPaths(patch.Paths()...).
		CurrentDocumentExists(true).
		Context(ctx).
		Do()
	if err != nil {
		return wrap("update", id, err)
	}
	s.logger.Debug("patched document", "id", id, "fields", patch.Paths())
	return nil
}

// Delete removes a document. Deleting a missing document is ErrNotFound.
func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	_, err := s.docs.Delete(s.docName(id)).CurrentDocumentExists(true).Context(ctx).Do()
	if err != nil {
		return wrap("delete", id, err)
	}
	s.logger.Debug("deleted document", "id", id)
	return nil
}

func wrap(op, id string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		err = fmt.Errorf("%w: %s", store.ErrNotFound, apiErr.Message)
	}
	return &store.Error{Op: op, ID: id, Err: err}
}

func documentFromFields(f model.Fields) *firestore.Document {
	return &firestore.Document{Fields: map[string]firestore.Value{
		model.FieldText:      {StringValue: f.Text, ForceSendFields: []string{"StringValue"}},
		model.FieldCompleted: {BooleanValue: f.Completed, ForceSendFields: []string{"BooleanValue"}},
		model.FieldDeadline:  {StringValue: f.Deadline, ForceSendFields: []string{"StringValue"}},
	}}
}

func documentFromPatch(p model.Patch) *firestore.Document {
	fields := make(map[string]firestore.Value)
	if p.Text != nil {
		fields[model.FieldText] = firestore.Value{StringValue: *p.Text, ForceSendFields: []string{"StringValue"}}
	}
	if p.Completed != nil {
		fields[model.FieldCompleted] = firestore.Value{BooleanValue: *p.Completed, ForceSendFields: []string{"BooleanValue"}}
	}
	if p.Deadline != nil {
		fields[model.FieldDeadline] = firestore.Value{StringValue: *p.Deadline, ForceSendFields: []string{"StringValue"}}
	}
	return &firestore.Document{Fields: fields}
}

// taskFromDocument reads a document leniently: missing fields become zero
// values and timestamp deadlines written by other clients are converted.
func taskFromDocument(doc *firestore.Document) model.Task {
	t := model.Task{ID: path.Base(doc.Name)}
	if v, ok := doc.Fields[model.FieldText]; ok && v.StringValue != "" {
		t.Text = v.StringValue
	}
	if v, ok := doc.Fields[model.FieldCompleted]; ok && v.BooleanValue {
		t.Completed = v.BooleanValue
	}
	if v, ok := doc.Fields[model.FieldDeadline]; ok {
		switch {
		case v.StringValue != "":
			t.Deadline = v.StringValue
		case v.TimestampValue != "":
			if ts, err := time.Parse(time.RFC3339Nano, v.TimestampValue); err == nil {
				t.Deadline = model.FormatDeadline(ts)
			} else {
				t.Deadline = v.TimestampValue
			}
		}
	}
	return t
}
