// Package testutil holds in-memory stores with the same row-level semantics
// as the postgres repos, for service and handler tests.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/xxxsen/accord/internal/collab"
	"github.com/xxxsen/accord/internal/model"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
)

type MemUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func NewMemUsers() *MemUsers {
	return &MemUsers{users: map[string]model.User{}}
}

func (m *MemUsers) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return appErr.ErrConflict
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m *MemUsers) GetByID(ctx context.Context, userID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		return &u, nil
	}
	return nil, appErr.ErrNotFound
}

// MemDocs mirrors the row-level semantics of the postgres repo.
type MemDocs struct {
	mu          sync.Mutex
	docs        map[string]*model.Document
	order       []string
	witnessAt   map[string]int64
	ContentSets int
}

func NewMemDocs() *MemDocs {
	return &MemDocs{docs: map[string]*model.Document{}, witnessAt: map[string]int64{}}
}

func cloneDocument(doc *model.Document) *model.Document {
	out := *doc
	out.Collaborators = append([]string{}, doc.Collaborators...)
	out.Signatures = make(map[string]bool, len(doc.Signatures))
	for k, v := range doc.Signatures {
		out.Signatures[k] = v
	}
	return &out
}

func (m *MemDocs) Put(doc *model.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; !ok {
		m.order = append(m.order, doc.ID)
	}
	m.docs[doc.ID] = cloneDocument(doc)
}

func (m *MemDocs) Create(ctx context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; ok {
		return appErr.ErrConflict
	}
	m.order = append(m.order, doc.ID)
	m.docs[doc.ID] = cloneDocument(doc)
	return nil
}

func (m *MemDocs) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (m *MemDocs) GetByNameForIdentity(ctx context.Context, name, identity string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		doc := m.docs[m.order[i]]
		if doc.Name == name && collab.IsParticipant(doc.Owner, doc.Collaborators, identity) {
			return cloneDocument(doc), nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m *MemDocs) ListForIdentity(ctx context.Context, identity string) ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Document, 0)
	for i := len(m.order) - 1; i >= 0; i-- {
		doc := m.docs[m.order[i]]
		if collab.IsParticipant(doc.Owner, doc.Collaborators, identity) {
			out = append(out, *cloneDocument(doc))
		}
	}
	return out, nil
}

func (m *MemDocs) ListByWitnessState(ctx context.Context, state model.WitnessState, limit uint) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0)
	for _, id := range m.order {
		if m.docs[id].WitnessState == state {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *MemDocs) UpdateContent(ctx context.Context, docID, content string, size, mtime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok {
		return appErr.ErrNotFound
	}
	m.ContentSets++
	doc.Content = content
	doc.Size = size
	doc.Mtime = mtime
	doc.WitnessState = model.WitnessStateNone
	doc.WitnessPayload = ""
	for k := range doc.Signatures {
		doc.Signatures[k] = false
	}
	return nil
}

func (m *MemDocs) ReplaceCollaborators(ctx context.Context, docID string, collaborators []string, mtime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok {
		return appErr.ErrNotFound
	}
	doc.Collaborators = append([]string{}, collaborators...)
	for _, c := range collaborators {
		if _, ok := doc.Signatures[c]; !ok {
			doc.Signatures[c] = false
		}
	}
	for _, c := range collaborators {
		if !doc.Signatures[c] {
			doc.WitnessState = model.WitnessStateNone
			doc.WitnessPayload = ""
			break
		}
	}
	doc.Mtime = mtime
	return nil
}

func (m *MemDocs) SetSignature(ctx context.Context, docID, identity string, signed bool, mtime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok {
		return appErr.ErrNotFound
	}
	doc.Signatures[identity] = signed
	return nil
}

func (m *MemDocs) TransitionWitness(ctx context.Context, docID string, from, to model.WitnessState, at int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok || doc.WitnessState != from {
		return false, nil
	}
	doc.WitnessState = to
	m.witnessAt[docID] = at
	return true, nil
}

func (m *MemDocs) ListStaleRequested(ctx context.Context, before int64, limit uint) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0)
	for _, id := range m.order {
		if m.docs[id].WitnessState == model.WitnessStateRequested && m.witnessAt[id] < before {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *MemDocs) ReclaimRequested(ctx context.Context, docID string, before, at int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok || doc.WitnessState != model.WitnessStateRequested || m.witnessAt[docID] >= before {
		return false, nil
	}
	m.witnessAt[docID] = at
	return true, nil
}

func (m *MemDocs) SetWitnessResult(ctx context.Context, docID string, state model.WitnessState, payload string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok || doc.WitnessState != model.WitnessStateRequested {
		return false, nil
	}
	doc.WitnessState = state
	doc.WitnessPayload = payload
	return true, nil
}

type MemComments struct {
	mu       sync.Mutex
	comments []model.Comment
}

func (m *MemComments) Create(ctx context.Context, comment *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, *comment)
	return nil
}

func (m *MemComments) GetByID(ctx context.Context, commentID string) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.comments {
		if c.ID == commentID {
			out := c
			return &out, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m *MemComments) ListByDocument(ctx context.Context, docID string) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Comment, 0)
	for i := len(m.comments) - 1; i >= 0; i-- {
		if m.comments[i].DocumentID == docID {
			out = append(out, m.comments[i])
		}
	}
	return out, nil
}

func (m *MemComments) Delete(ctx context.Context, commentID, author string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.comments {
		if c.ID == commentID && c.Author == author {
			m.comments = append(m.comments[:i], m.comments[i+1:]...)
			return nil
		}
	}
	return appErr.ErrNotFound
}

type MemNotifications struct {
	mu     sync.Mutex
	Items  []model.Notification
	Counts int
}

func (m *MemNotifications) Create(ctx context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items = append(m.Items, *n)
	return nil
}

func (m *MemNotifications) ListByRecipient(ctx context.Context, recipient string, limit, offset uint) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Notification, 0)
	for _, n := range m.Items {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *MemNotifications) CountUnread(ctx context.Context, recipient string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Counts++
	count := 0
	for _, n := range m.Items {
		if n.Recipient == recipient && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *MemNotifications) MarkRead(ctx context.Context, recipient, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.Items {
		if n.ID == id && n.Recipient == recipient {
			m.Items[i].Read = true
			return nil
		}
	}
	return appErr.ErrNotFound
}

func (m *MemNotifications) DeleteReadBefore(ctx context.Context, before int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Items[:0]
	var removed int64
	for _, n := range m.Items {
		if n.Read && n.Ctime < before {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	m.Items = kept
	return removed, nil
}

func (m *MemNotifications) Recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Items))
	for _, n := range m.Items {
		out = append(out, n.Recipient)
	}
	sort.Strings(out)
	return out
}
