package api

import (
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/http/response"
)

// EnvelopeVersion is bumped only on breaking changes to the envelope shape.
const EnvelopeVersion = response.Version

// APIEnvelope wraps every successful response, and error responses that carry
// only a message.
type APIEnvelope = response.Envelope //nolint:revive // API prefix is intentional for clarity

// APIErrorEnvelope is the error shape with a machine-readable code.
type APIErrorEnvelope = response.ErrorEnvelope //nolint:revive // API prefix is intentional for clarity

// EnvelopeTransformer wraps handler output in the versioned envelope.
// Register it in huma.Config.Transformers.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if strings.HasPrefix(status, "2") {
		return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
	}

	err, ok := v.(error)
	if !ok {
		return v, nil
	}

	// Domain errors satisfy huma.StatusError and reach here without passing
	// through huma.NewError.
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Error:   domainErr.Message,
			Code:    string(domainErr.Code),
			Details: domainErr.Details,
		}, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Details: apiErr.Details,
		}, nil
	}

	return APIEnvelope{Version: EnvelopeVersion, Error: err.Error()}, nil
}
