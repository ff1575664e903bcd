package handlers

import (
	"net/http"

	"github.com/privata-labs/privata/services"
	"github.com/privata-labs/privata/utils"
)

// writeServiceError maps a domain error onto the HTTP surface.
func writeServiceError(w http.ResponseWriter, err error) {
	details := services.GetErrorDetails(err)

	switch services.GetErrorType(err) {
	case services.ErrorTypeExtraction, services.ErrorTypeValidation, services.ErrorTypeLoad:
		_ = utils.WriteBadRequest(w, err.Error(), details)
	case services.ErrorTypeNotFound:
		_ = utils.WriteNotFound(w, err.Error())
	case services.ErrorTypeConflict, services.ErrorTypeAborted:
		_ = utils.WriteConflict(w, err.Error(), details)
	case services.ErrorTypeTransport, services.ErrorTypeAuth:
		_ = utils.WriteBadGateway(w, err.Error())
	default:
		_ = utils.WriteInternalServerError(w, err.Error())
	}
}
