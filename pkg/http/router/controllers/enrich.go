package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"
	helper "github.com/viroco/tracerouting/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type enrichAPI struct {
	enrichService EnrichService
	log           *zap.Logger
}

func New(enrichService EnrichService, log *zap.Logger) *enrichAPI {
	return &enrichAPI{
		enrichService: enrichService,
		log:           log,
	}
}

func (api *enrichAPI) Routes(group *helper.RouteGroup) {
	group.POST("/enrich", api.enrich)
}

func (api *enrichAPI) enrich(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var (
		request enrichRequest
		err     error
	)
	err = json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := r.Body.Close(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}

	validate := validator.New()

	if err := validate.Struct(request); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		api.BadRequestResponse(w, r, fmt.Errorf("validation error: %v", vvString))
		return
	}

	result, err := api.enrichService.Enrich(r.Context(), request.ToTracePoints(), request.Options)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewEnrichResponse(result)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
