package pipeline

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/strataweb/strata/internal/domain"
)

// Translator converts a captured pipeline error into a structured error
// response. The executor invokes it at most once per traversal, only when
// no hook or handler finalized a response first.
type Translator struct{}

// NewTranslator creates the default error translator.
func NewTranslator() *Translator {
	return &Translator{}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Translate writes the error into resp. Recognized kinds keep their
// message; anything else becomes a generic internal error with a stable
// body that leaks no internal detail.
func (t *Translator) Translate(err error, resp *domain.Response) {
	var perr *domain.Error
	if !errors.As(err, &perr) {
		perr = domain.NewError(domain.KindServer, "internal error")
	}

	status := perr.HTTPStatusCode()
	detail := errorDetail{Kind: string(perr.Kind), Message: perr.Message}
	if status == http.StatusInternalServerError {
		// Never expose handler or hook internals to the client.
		detail = errorDetail{Kind: string(domain.KindServer), Message: "internal error"}
	}

	body, _ := json.Marshal(errorBody{Error: detail})
	resp.Write(status, "application/json", body)
}
