package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/accord/internal/collab"
	"github.com/xxxsen/accord/internal/filestore"
	"github.com/xxxsen/accord/internal/model"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
	"github.com/xxxsen/accord/internal/pkg/timeutil"
)

const (
	witnessRetryBatch      = 50
	defaultWitnessStaleAge = 10 * time.Minute
)

type WitnessObserver interface {
	ObserveWitness(outcome string)
}

type WitnessService struct {
	docs          DocumentStore
	client        WitnessClient
	store         filestore.Store
	notifications *NotificationService
	observer      WitnessObserver
	staleAge      time.Duration
	now           func() int64
}

// NewWitnessService accepts nil store, notifications and observer.
func NewWitnessService(docs DocumentStore, client WitnessClient, store filestore.Store, notifications *NotificationService, observer WitnessObserver) *WitnessService {
	return &WitnessService{
		docs:          docs,
		client:        client,
		store:         store,
		notifications: notifications,
		observer:      observer,
		staleAge:      defaultWitnessStaleAge,
		now:           timeutil.NowUnix,
	}
}

// SetStaleAge sets how long a request may stay unanswered before the retry
// job treats it as lost.
func (s *WitnessService) SetStaleAge(age time.Duration) {
	if age > 0 {
		s.staleAge = age
	}
}

// Request calls the witness service directly for a named file.
func (s *WitnessService) Request(ctx context.Context, fileName string) (string, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return "", fmt.Errorf("%w: fileName is required", appErr.ErrInvalid)
	}
	payload, err := s.client.Witness(ctx, fileName)
	if err != nil {
		logutil.GetLogger(ctx).Error("witness request failed", zap.String("file", fileName), zap.Error(err))
		return "", fmt.Errorf("%w: witness", appErr.ErrUnavailable)
	}
	return string(payload), nil
}

// TriggerIfExecuted requests the witness once per transition into the
// executed state. The none to requested transition is a compare-and-set on
// the stored document, so concurrent final signatures race for a single
// winner. It reports whether this call issued the request.
func (s *WitnessService) TriggerIfExecuted(ctx context.Context, doc *model.Document) (bool, error) {
	if !collab.AllSigned(doc.Owner, doc.Collaborators, doc.Signatures) {
		return false, nil
	}
	won, err := s.docs.TransitionWitness(ctx, doc.ID, model.WitnessStateNone, model.WitnessStateRequested, s.now())
	if err != nil {
		return false, err
	}
	if !won {
		return false, nil
	}
	s.call(ctx, doc)
	return true, nil
}

// RetryFailed re-drives documents whose witness call failed, and requests
// that never recorded a result within the stale age, as long as they are
// still fully signed.
func (s *WitnessService) RetryFailed(ctx context.Context) (int, error) {
	ids, err := s.docs.ListByWitnessState(ctx, model.WitnessStateFailed, witnessRetryBatch)
	if err != nil {
		return 0, err
	}
	retried := 0
	for _, id := range ids {
		ok, err := s.redrive(ctx, id, func() (bool, error) {
			return s.docs.TransitionWitness(ctx, id, model.WitnessStateFailed, model.WitnessStateRequested, s.now())
		})
		if err != nil {
			return retried, err
		}
		if ok {
			retried++
		}
	}

	before := s.now() - int64(s.staleAge/time.Second)
	stale, err := s.docs.ListStaleRequested(ctx, before, witnessRetryBatch)
	if err != nil {
		return retried, err
	}
	for _, id := range stale {
		ok, err := s.redrive(ctx, id, func() (bool, error) {
			return s.docs.ReclaimRequested(ctx, id, before, s.now())
		})
		if err != nil {
			return retried, err
		}
		if ok {
			logutil.GetLogger(ctx).Info("re-drove stale witness request", zap.String("document_id", id))
			retried++
		}
	}
	return retried, nil
}

func (s *WitnessService) redrive(ctx context.Context, id string, claim func() (bool, error)) (bool, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		logutil.GetLogger(ctx).Warn("load document for witness retry failed", zap.String("document_id", id), zap.Error(err))
		return false, nil
	}
	if !collab.AllSigned(doc.Owner, doc.Collaborators, doc.Signatures) {
		return false, nil
	}
	won, err := claim()
	if err != nil || !won {
		return false, err
	}
	s.call(ctx, doc)
	return true, nil
}

func (s *WitnessService) call(ctx context.Context, doc *model.Document) {
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", doc.ID), zap.String("name", doc.Name))
	payload, err := s.client.Witness(ctx, doc.Name)
	if err != nil {
		logger.Error("witness call failed", zap.Error(err))
		s.observe("failed")
		if _, serr := s.docs.SetWitnessResult(ctx, doc.ID, model.WitnessStateFailed, ""); serr != nil {
			logger.Error("record witness failure failed", zap.Error(serr))
		}
		return
	}
	applied, err := s.docs.SetWitnessResult(ctx, doc.ID, model.WitnessStateCompleted, string(payload))
	if err != nil {
		logger.Error("record witness result failed", zap.Error(err))
		return
	}
	if !applied {
		logger.Info("document changed during witness call, result dropped")
		return
	}
	s.observe("completed")
	doc.WitnessState = model.WitnessStateCompleted
	doc.WitnessStatus = doc.WitnessState.String()
	doc.WitnessPayload = string(payload)
	logger.Info("document witnessed")
	s.archive(ctx, doc)
	s.notifications.Notify(ctx,
		collab.Participants(doc.Owner, doc.Collaborators),
		fmt.Sprintf("%s has been signed by every party and witnessed", doc.Name),
		documentLink(doc.ID),
	)
}

func (s *WitnessService) archive(ctx context.Context, doc *model.Document) {
	if s.store == nil {
		return
	}
	data, err := RenderPDF(strings.TrimSuffix(doc.Name, ".txt"), doc.Content)
	if err != nil {
		logutil.GetLogger(ctx).Warn("render executed agreement failed", zap.String("document_id", doc.ID), zap.Error(err))
		return
	}
	key := filestore.ExecutedKey(doc.ID)
	if err := s.store.Save(ctx, key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		logutil.GetLogger(ctx).Warn("archive executed agreement failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *WitnessService) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveWitness(outcome)
	}
}

func documentLink(docID string) string {
	return "/files/" + docID
}
