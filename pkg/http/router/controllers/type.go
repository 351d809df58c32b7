package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/viroco/tracerouting/pkg/util"
	"go.uber.org/zap"
)

type envelope map[string]interface{}

func (api *enrichAPI) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(js)

	return nil
}

func (api *enrichAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	var resp errorResponse
	resp.Error.Code = code
	resp.Error.Message = err.Error()

	if werr := api.writeJSON(w, status, envelope{"error": resp.Error}, nil); werr != nil {
		api.log.Error("write error response", zap.Error(werr))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (api *enrichAPI) BadRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusBadRequest, "bad_request", err)
}

func (api *enrichAPI) ServerErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.log.Error("internal error", zap.Error(err),
		zap.String("method", r.Method), zap.String("path", r.URL.Path))
	api.errorResponse(w, r, http.StatusInternalServerError, "internal", err)
}

// getStatusCode maps pipeline error codes onto http statuses.
func (api *enrichAPI) getStatusCode(w http.ResponseWriter, r *http.Request, err error) {
	var coded *util.Error
	if !errors.As(err, &coded) {
		api.ServerErrorResponse(w, r, err)
		return
	}

	switch coded.Code() {
	case util.ErrBadParamInput, util.ErrSegmentationPolicy:
		api.errorResponse(w, r, http.StatusBadRequest, coded.Code().Error(), err)
	case util.ErrMatchConfidence:
		api.errorResponse(w, r, http.StatusUnprocessableEntity, coded.Code().Error(), err)
	case util.ErrRemoteService:
		api.errorResponse(w, r, http.StatusBadGateway, coded.Code().Error(), err)
	default:
		api.ServerErrorResponse(w, r, err)
	}
}

func translateError(err error, trans ut.Translator) []error {
	if err == nil {
		return nil
	}

	var out []error
	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			out = append(out, errors.New(e.Translate(trans)))
		}
		return out
	}
	return []error{err}
}
