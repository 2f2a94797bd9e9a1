package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/xxxsen/accord/internal/collab"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
)

type MailService struct {
	sender   EmailSender
	md       goldmark.Markdown
	validate *validator.Validate
}

type SendMailInput struct {
	Recipients []string `json:"collaborators" validate:"required,min=1,dive,email"`
	Subject    string   `json:"subject" validate:"required"`
	Message    string   `json:"message" validate:"required"`
}

func NewMailService(sender EmailSender) *MailService {
	return &MailService{
		sender:   sender,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		validate: newValidator(),
	}
}

// Render converts a markdown message into the HTML mail body. Raw HTML in
// the message is dropped by goldmark's default renderer.
func (s *MailService) Render(message string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(message), &buf); err != nil {
		return "", fmt.Errorf("render mail: %w", err)
	}
	return buf.String(), nil
}

// SendToCollaborators mails every recipient and reports ErrUnavailable if
// any delivery failed.
func (s *MailService) SendToCollaborators(ctx context.Context, input SendMailInput) error {
	recipients := make([]string, 0, len(input.Recipients))
	for _, r := range input.Recipients {
		if key := collab.NormalizeIdentity(r); key != "" {
			recipients = append(recipients, key)
		}
	}
	input.Recipients = recipients
	if err := validateStruct(s.validate, input); err != nil {
		return err
	}
	body, err := s.Render(input.Message)
	if err != nil {
		return err
	}
	var failed []string
	for _, to := range input.Recipients {
		if err := s.sender.Send(to, input.Subject, body); err != nil {
			logutil.GetLogger(ctx).Error("send email failed", zap.String("to", to), zap.Error(err))
			failed = append(failed, to)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: email delivery failed for %s", appErr.ErrUnavailable, strings.Join(failed, ", "))
	}
	return nil
}

// Invite tells new collaborators about a document. Delivery is best-effort.
func (s *MailService) Invite(ctx context.Context, owner, docName, link string, recipients []string) {
	if s == nil || len(recipients) == 0 {
		return
	}
	message := fmt.Sprintf("**%s** invited you to review and sign *%s*.\n\n[Open the agreement](%s)", owner, docName, link)
	if err := s.SendToCollaborators(ctx, SendMailInput{
		Recipients: recipients,
		Subject:    "Invitation to collaborate on " + docName,
		Message:    message,
	}); err != nil {
		logutil.GetLogger(ctx).Warn("collaborator invite failed", zap.String("document", docName), zap.Error(err))
	}
}
