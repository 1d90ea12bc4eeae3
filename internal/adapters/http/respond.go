package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"meetdesk/internal/adapters/http/middleware"
	"meetdesk/internal/domain/audit"
	"meetdesk/internal/domain/domainerr"
)

// maxJSONBody caps request bodies decoded by strictDecode.
const maxJSONBody = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode_response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps a domain error class onto a status code. Unclassified
// errors are logged and hidden from the client.
func writeError(w http.ResponseWriter, err error) {
	switch domainerr.Class(err) {
	case domainerr.ErrInvalid:
		writeMessage(w, http.StatusBadRequest, err.Error())
	case domainerr.ErrNotFound:
		writeMessage(w, http.StatusNotFound, err.Error())
	case domainerr.ErrConflict:
		writeMessage(w, http.StatusConflict, err.Error())
	case domainerr.ErrForbidden:
		writeMessage(w, http.StatusForbidden, err.Error())
	default:
		internalError(w, err)
	}
}

func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields,
// then runs the validate tags of v.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domainerr.Invalid("invalid JSON: " + err.Error())
	}
	if err := validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return domainerr.Invalid(strings.Join(msgs, "; "))
}

// actorFrom turns the session into the audit actor recorded for mutations.
func actorFrom(r *http.Request) audit.Actor {
	s, _ := middleware.SessionFromContext(r.Context())
	return audit.Actor{ID: s.AccountID, Email: s.Email, Role: s.Role}
}
