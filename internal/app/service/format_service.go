package service

import (
	"context"

	"github.com/navifare/mcp-server/internal/app/dto"
	"github.com/navifare/mcp-server/internal/pkg/exception"
)

type RequestParser interface {
	Parse(ctx context.Context, userRequest string) (dto.FormatResponse, error)
}

type FormatService struct {
	parser RequestParser
}

func NewFormatService(parser RequestParser) *FormatService {
	return &FormatService{
		parser: parser,
	}
}

// Format turns a natural language request into an itinerary ready for
// flight_pricecheck, or a follow-up question listing what is still missing.
func (s *FormatService) Format(ctx context.Context, req dto.FormatRequest) (dto.FormatResponse, error) {
	if req.UserRequest == "" {
		return dto.FormatResponse{}, exception.ApplicationError{
			Message: "user_request must be provided",
			RPCCode: exception.CodeInvalidParams,
		}
	}

	return s.parser.Parse(ctx, req.UserRequest)
}
