package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/xxxsen/accord/internal/backend"
	"github.com/xxxsen/accord/internal/collab"
	"github.com/xxxsen/accord/internal/model"
	"github.com/xxxsen/accord/internal/testutil"
)

type fakeWitness struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (f *fakeWitness) Witness(ctx context.Context, fileName string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, fileName)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"witness":"ok"}`), nil
}

func (f *fakeWitness) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.names...)
}

type fakeFileStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: map[string][]byte{}}
}

func (f *fakeFileStore) Type() string { return "fake" }

func (f *fakeFileStore) Save(ctx context.Context, key string, r io.ReadSeeker, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = data
	return nil
}

func (f *fakeFileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent map[string]string
	fail map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: map[string]string{}, fail: map[string]bool{}}
}

func (f *fakeSender) Send(to, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[to] {
		return errors.New("smtp down")
	}
	f.sent[to] = htmlBody
	return nil
}

type fakeAnalysisClient struct {
	analyzeOut json.RawMessage
	analyzeErr error
	chatOut    *backend.ChatResult
	chatErr    error
	chatCalls  int
	lastPrompt string
}

func (f *fakeAnalysisClient) Analyze(ctx context.Context, text, fileName string) (json.RawMessage, error) {
	return f.analyzeOut, f.analyzeErr
}

func (f *fakeAnalysisClient) Chat(ctx context.Context, text string) (*backend.ChatResult, error) {
	f.chatCalls++
	f.lastPrompt = text
	return f.chatOut, f.chatErr
}

type fakeAnalyzer struct {
	out   string
	err   error
	calls int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.out, f.err
}

type fakeGenerationClient struct {
	kind    string
	answers map[string]interface{}
	err     error
}

func (f *fakeGenerationClient) Generate(ctx context.Context, kind string, answers map[string]interface{}) (json.RawMessage, error) {
	f.kind = kind
	f.answers = answers
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"agreement":"drafted"}`), nil
}

// fixture wires the document, witness and comment services over in-memory
// stores.
type fixture struct {
	docs          *testutil.MemDocs
	comments      *testutil.MemComments
	notifications *testutil.MemNotifications
	witnessClient *fakeWitness
	files         *fakeFileStore
	sender        *fakeSender

	documentSvc *DocumentService
	witnessSvc  *WitnessService
	commentSvc  *CommentService
}

func newFixture() *fixture {
	f := &fixture{
		docs:          testutil.NewMemDocs(),
		comments:      &testutil.MemComments{},
		notifications: &testutil.MemNotifications{},
		witnessClient: &fakeWitness{},
		files:         newFakeFileStore(),
		sender:        newFakeSender(),
	}
	notifySvc := NewNotificationService(f.notifications, nil)
	f.witnessSvc = NewWitnessService(f.docs, f.witnessClient, f.files, notifySvc, nil)
	f.documentSvc = NewDocumentService(DocumentServiceDeps{
		Docs:          f.docs,
		Store:         f.files,
		Witness:       f.witnessSvc,
		Notifications: notifySvc,
		Mail:          NewMailService(f.sender),
		MaxUpload:     1024,
	})
	f.commentSvc = NewCommentService(f.comments, f.docs)
	return f
}

func (f *fixture) seed(id, name, owner string, collaborators ...string) *model.Document {
	doc := &model.Document{
		ID:            id,
		Name:          name,
		Content:       "line one\nline two",
		Type:          DocumentTypeAgreement,
		Owner:         owner,
		Collaborators: collaborators,
		Signatures:    collab.ResetSignatures(owner, collaborators, nil),
	}
	f.docs.Put(doc)
	return doc
}
