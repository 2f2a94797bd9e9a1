package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/accord/internal/collab"
	"github.com/xxxsen/accord/internal/filestore"
	"github.com/xxxsen/accord/internal/model"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
	"github.com/xxxsen/accord/internal/pkg/timeutil"
)

const (
	DocumentTypeText      = "text/plain"
	DocumentTypeAgreement = "agreement"
)

type DocumentService struct {
	docs          DocumentStore
	store         filestore.Store
	witness       *WitnessService
	notifications *NotificationService
	mail          *MailService
	validate      *validator.Validate
	maxUpload     int64
}

type DocumentServiceDeps struct {
	Docs          DocumentStore
	Store         filestore.Store
	Witness       *WitnessService
	Notifications *NotificationService
	Mail          *MailService
	MaxUpload     int64
}

func NewDocumentService(deps DocumentServiceDeps) *DocumentService {
	return &DocumentService{
		docs:          deps.Docs,
		store:         deps.Store,
		witness:       deps.Witness,
		notifications: deps.Notifications,
		mail:          deps.Mail,
		validate:      newValidator(),
		maxUpload:     deps.MaxUpload,
	}
}

type UploadInput struct {
	Name    string `validate:"required"`
	Content []byte
}

type CreateDocumentInput struct {
	Name          string   `json:"name" validate:"required"`
	Content       string   `json:"content" validate:"required"`
	Type          string   `json:"type"`
	Collaborators []string `json:"collaborators" validate:"omitempty,dive,email"`
}

// DocumentUpdateInput carries the optional parts of a document update. A nil
// field is left untouched.
type DocumentUpdateInput struct {
	Content       *string         `json:"content"`
	Collaborators *[]string       `json:"collaborators"`
	Signatures    map[string]bool `json:"signatures"`
}

// Upload stores a plain-text agreement owned by identity.
func (s *DocumentService) Upload(ctx context.Context, identity string, input UploadInput) (*model.Document, error) {
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(input.Name), ".txt") {
		return nil, fmt.Errorf("%w: only .txt files are supported", appErr.ErrInvalid)
	}
	if s.maxUpload > 0 && int64(len(input.Content)) > s.maxUpload {
		return nil, fmt.Errorf("%w: file too large", appErr.ErrInvalid)
	}
	if !utf8.Valid(input.Content) {
		return nil, fmt.Errorf("%w: file is not valid utf-8 text", appErr.ErrInvalid)
	}
	doc, err := s.create(ctx, identity, filepath.Base(input.Name), string(input.Content), DocumentTypeText, nil)
	if err != nil {
		return nil, err
	}
	s.archiveRaw(ctx, doc.ID, doc.Name, input.Content)
	return doc, nil
}

// Create saves a generated agreement.
func (s *DocumentService) Create(ctx context.Context, identity string, input CreateDocumentInput) (*model.Document, error) {
	input.Collaborators = normalizeList(input.Collaborators)
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	docType := strings.TrimSpace(input.Type)
	if docType == "" {
		docType = DocumentTypeAgreement
	}
	doc, err := s.create(ctx, identity, strings.TrimSpace(input.Name), input.Content, docType, input.Collaborators)
	if err != nil {
		return nil, err
	}
	s.announceCollaborators(ctx, doc, doc.Collaborators)
	return doc, nil
}

func (s *DocumentService) create(ctx context.Context, identity, name, content, docType string, collaborators []string) (*model.Document, error) {
	owner := collab.NormalizeIdentity(identity)
	if owner == "" {
		return nil, appErr.ErrUnauthorized
	}
	now := timeutil.NowUnix()
	doc := &model.Document{
		ID:            newID(),
		Name:          name,
		Content:       content,
		Size:          int64(len(content)),
		Type:          docType,
		Owner:         owner,
		Collaborators: collaborators,
		Signatures:    collab.ResetSignatures(owner, collaborators, nil),
		WitnessState:  model.WitnessStateNone,
		Ctime:         now,
		Mtime:         now,
	}
	if doc.Collaborators == nil {
		doc.Collaborators = []string{}
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return decorate(doc), nil
}

// Get returns the document if identity owns it or collaborates on it.
func (s *DocumentService) Get(ctx context.Context, identity, docID string) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !collab.IsParticipant(doc.Owner, doc.Collaborators, identity) {
		return nil, appErr.ErrForbidden
	}
	return decorate(doc), nil
}

func (s *DocumentService) List(ctx context.Context, identity string) ([]model.DocumentSummary, error) {
	docs, err := s.docs.ListForIdentity(ctx, collab.NormalizeIdentity(identity))
	if err != nil {
		return nil, err
	}
	out := make([]model.DocumentSummary, 0, len(docs))
	for i := range docs {
		doc := decorate(&docs[i])
		out = append(out, model.DocumentSummary{
			ID:     doc.ID,
			Name:   doc.Name,
			Size:   doc.Size,
			Type:   doc.Type,
			Owner:  doc.Owner,
			Status: doc.Status,
			Mtime:  doc.Mtime,
		})
	}
	return out, nil
}

// ListAgreements returns the caller's documents that look like agreements
// and have content.
func (s *DocumentService) ListAgreements(ctx context.Context, identity string) ([]model.Document, error) {
	docs, err := s.docs.ListForIdentity(ctx, collab.NormalizeIdentity(identity))
	if err != nil {
		return nil, err
	}
	out := make([]model.Document, 0, len(docs))
	for _, doc := range docs {
		if isAgreement(doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *DocumentService) FindIDByName(ctx context.Context, identity, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: filename is required", appErr.ErrInvalid)
	}
	doc, err := s.docs.GetByNameForIdentity(ctx, name, collab.NormalizeIdentity(identity))
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

// Update validates every requested change before applying any of them. The
// order of application is collaborators, content, then the caller's
// signature, after which the witness trigger is evaluated.
func (s *DocumentService) Update(ctx context.Context, identity, docID string, input DocumentUpdateInput) (*model.Document, error) {
	caller := collab.NormalizeIdentity(identity)
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !collab.IsParticipant(doc.Owner, doc.Collaborators, caller) {
		return nil, appErr.ErrForbidden
	}
	isOwner := collab.IsOwner(doc.Owner, caller)

	var nextCollaborators []string
	var added, removed []string
	if input.Collaborators != nil {
		nextCollaborators = normalizeList(*input.Collaborators)
		added, removed = collab.DiffCollaborators(doc.Collaborators, nextCollaborators)
		if !sameOrder(doc.Collaborators, nextCollaborators) {
			if !isOwner {
				return nil, appErr.ErrForbidden
			}
			for _, item := range nextCollaborators {
				if err := s.validate.Var(item, "email"); err != nil {
					return nil, fmt.Errorf("%w: collaborator %q must be an email", appErr.ErrInvalid, item)
				}
			}
		} else {
			nextCollaborators = nil
		}
	}
	contentChanged := input.Content != nil && *input.Content != doc.Content
	if contentChanged && !isOwner {
		return nil, appErr.ErrForbidden
	}

	signatures := doc.Signatures
	if contentChanged {
		signatures = collab.ResetSignatures(doc.Owner, doc.Collaborators, doc.Signatures)
	}
	sign := false
	if input.Signatures != nil {
		sign, err = collab.CheckSignatureChange(caller, signatures, input.Signatures)
		if err != nil {
			return nil, err
		}
	}

	now := timeutil.NowUnix()
	if nextCollaborators != nil {
		if err := s.docs.ReplaceCollaborators(ctx, doc.ID, nextCollaborators, now); err != nil {
			return nil, fmt.Errorf("update collaborators: %w", err)
		}
		logutil.GetLogger(ctx).Info("collaborators updated",
			zap.String("document_id", doc.ID),
			zap.Strings("added", added),
			zap.Strings("removed", removed),
		)
	}
	if contentChanged {
		if err := s.recordContentChange(ctx, doc.ID, *input.Content, now); err != nil {
			return nil, err
		}
	}
	if sign {
		if err := s.docs.SetSignature(ctx, doc.ID, caller, true, now); err != nil {
			return nil, fmt.Errorf("record signature: %w", err)
		}
	}

	updated, err := s.docs.GetByID(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 {
		s.announceCollaborators(ctx, updated, added)
	}
	if (sign || len(removed) > 0) && s.witness != nil {
		triggered, err := s.witness.TriggerIfExecuted(ctx, updated)
		if err != nil {
			logutil.GetLogger(ctx).Error("evaluate witness trigger failed", zap.String("document_id", doc.ID), zap.Error(err))
		}
		if triggered {
			if reloaded, err := s.docs.GetByID(ctx, doc.ID); err == nil {
				updated = reloaded
			}
		}
	}
	return decorate(updated), nil
}

func (s *DocumentService) recordContentChange(ctx context.Context, docID, content string, now int64) error {
	if err := s.docs.UpdateContent(ctx, docID, content, int64(len(content)), now); err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	logutil.GetLogger(ctx).Info("document content changed, signatures reset", zap.String("document_id", docID))
	return nil
}

func (s *DocumentService) announceCollaborators(ctx context.Context, doc *model.Document, recipients []string) {
	if len(recipients) == 0 {
		return
	}
	link := documentLink(doc.ID)
	s.notifications.Notify(ctx, recipients, fmt.Sprintf("%s added you as a collaborator on %s", doc.Owner, doc.Name), link)
	s.mail.Invite(ctx, doc.Owner, doc.Name, link, recipients)
}

func (s *DocumentService) archiveRaw(ctx context.Context, docID, name string, content []byte) {
	if s.store == nil {
		return
	}
	key := filestore.RawKey(docID, name)
	if err := s.store.Save(ctx, key, bytes.NewReader(content), int64(len(content)), DocumentTypeText); err != nil {
		logutil.GetLogger(ctx).Warn("archive upload failed", zap.String("key", key), zap.Error(err))
	}
}

func decorate(doc *model.Document) *model.Document {
	if doc.Collaborators == nil {
		doc.Collaborators = []string{}
	}
	if doc.Signatures == nil {
		doc.Signatures = map[string]bool{}
	}
	doc.Status = collab.StatusOf(doc.Owner, doc.Collaborators, doc.Signatures)
	doc.WitnessStatus = doc.WitnessState.String()
	return doc
}

func isAgreement(doc model.Document) bool {
	if strings.TrimSpace(doc.Content) == "" {
		return false
	}
	if doc.Type == DocumentTypeAgreement {
		return true
	}
	name := strings.ToLower(doc.Name)
	return strings.Contains(name, "agreement") || strings.Contains(name, "contract")
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		key := collab.NormalizeIdentity(item)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if collab.NormalizeIdentity(a[i]) != b[i] {
			return false
		}
	}
	return true
}
