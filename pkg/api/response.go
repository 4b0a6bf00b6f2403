// pkg/api/response.go
package api

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIResponse is the envelope of every JSON reply
type APIResponse struct {
	Status int         `json:"status"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data,omitempty"`
}

// Render sets the HTTP status from the envelope
func (resp *APIResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, resp.Status)
	return nil
}

func SuccessResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{Status: http.StatusOK, Msg: msg, Data: data}
}

func BadRequestResponse(msg string) *APIResponse {
	return &APIResponse{Status: http.StatusBadRequest, Msg: msg}
}

func NotFoundResponse(msg string) *APIResponse {
	return &APIResponse{Status: http.StatusNotFound, Msg: msg}
}

func TooLargeResponse(msg string) *APIResponse {
	return &APIResponse{Status: http.StatusRequestEntityTooLarge, Msg: msg}
}

func InternalErrorResponse(msg string) *APIResponse {
	return &APIResponse{Status: http.StatusInternalServerError, Msg: msg}
}

// respond renders resp as JSON with its status
func respond(w http.ResponseWriter, r *http.Request, resp *APIResponse) {
	_ = render.Render(w, r, resp)
}
