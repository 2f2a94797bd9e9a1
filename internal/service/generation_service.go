package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/accord/internal/pkg/errors"
)

const (
	GenerateHouseRenting = "house_renting"
	GenerateSLA          = "sla"
)

type GenerationService struct {
	client GenerationClient
}

func NewGenerationService(client GenerationClient) *GenerationService {
	return &GenerationService{client: client}
}

// Generate asks the backend to draft an agreement of the given kind from the
// questionnaire answers. No retry is attempted.
func (s *GenerationService) Generate(ctx context.Context, kind string, answers map[string]interface{}) (json.RawMessage, error) {
	payload := make(map[string]interface{}, len(answers)+1)
	for k, v := range answers {
		payload[k] = v
	}
	switch kind {
	case GenerateHouseRenting:
	case GenerateSLA:
		payload["category"] = "sla"
	default:
		return nil, fmt.Errorf("%w: unsupported agreement kind %q", appErr.ErrInvalid, kind)
	}
	out, err := s.client.Generate(ctx, kind, payload)
	if err != nil {
		logutil.GetLogger(ctx).Error("generate agreement failed", zap.String("kind", kind), zap.Error(err))
		return nil, fmt.Errorf("%w: generation", appErr.ErrUnavailable)
	}
	return out, nil
}
