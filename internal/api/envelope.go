package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	domainerrors "github.com/imggen/imggen-server/internal/errors"
	"github.com/imggen/imggen-server/internal/http/response"
)

// EnvelopeVersion is the "v" field of every response body.
const EnvelopeVersion = response.Version

// EnvelopeTransformer wraps every huma response body in the envelope:
//
//	{"v":1,"success":true,"data":{...}}
//	{"v":1,"success":false,"code":"NOT_FOUND","message":"Prompt not found"}
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, err := strconv.Atoi(status)
	if err != nil {
		code = http.StatusOK
	}
	if code < http.StatusBadRequest {
		return response.Envelope{V: EnvelopeVersion, Success: true, Data: v}, nil
	}

	env := response.Envelope{V: EnvelopeVersion, Code: statusToCode(code)}
	var (
		apiErr    *APIError
		domainErr *domainerrors.Error
		hErr      *huma.ErrorModel
	)
	switch e := v.(type) {
	case error:
		switch {
		case errors.As(e, &apiErr):
			if apiErr.Code != "" {
				env.Code = apiErr.Code
			}
			env.Message, env.Details = apiErr.Message, apiErr.Details
		case errors.As(e, &domainErr):
			env.Code = string(domainErr.Code)
			env.Message, env.Details = domainErr.Message, domainErr.Details
		case errors.As(e, &hErr):
			env.Message = hErr.Detail
			if len(hErr.Errors) > 0 {
				env.Details = hErr.Errors
			}
		default:
			env.Message = e.Error()
		}
	case nil:
		env.Message = http.StatusText(code)
	default:
		env.Details = v
		env.Message = http.StatusText(code)
	}
	return env, nil
}
