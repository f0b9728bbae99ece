package service

import (
	"github.com/navifare/mcp-server/internal/pkg/exception"
)

var ErrNoStoredResults = exception.ApplicationError{
	Message: "No results found for this session. Run flight_pricecheck first.",
	RPCCode: exception.CodeInvalidParams,
}
