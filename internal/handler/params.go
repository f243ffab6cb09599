package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/moenga-git/ELD-VO/internal/hos"
)

// errBadRequest marks request errors caught before the service layer.
var errBadRequest = errors.New("bad request")

// pathID binds the {id} path parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid format for parameter id", errBadRequest)
	}
	return id, nil
}

// queryParam binds an optional form-style query parameter into dst, which
// must be a pointer to a pointer.
func queryParam(r *http.Request, name string, dst any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dst); err != nil {
		return fmt.Errorf("%w: invalid format for parameter %s", errBadRequest, name)
	}
	return nil
}

// decodeBody decodes the JSON request body into dst. Oversized bodies keep
// their *http.MaxBytesError so they surface as 413, and an unknown duty
// status surfaces as a validation error.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("%w: request body is required", errBadRequest)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, hos.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: can't decode JSON body: %v", errBadRequest, err)
	}
	return nil
}
