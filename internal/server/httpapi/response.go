package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/server/account"
	"github.com/dmitrijs2005/dormnet/internal/server/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type whoisResponse struct {
	IP    string `json:"ip"`
	Login string `json:"login"`
	ID    string `json:"id"`
}

type historyEntry struct {
	Day        string `json:"day"`
	TimeTag    int64  `json:"timetag"`
	Input      string `json:"input"`
	Output     string `json:"output"`
	Throughput string `json:"throughput"`
	Credit     string `json:"credit"`
}

type transaction struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// accountResponse is the account view as plain data. Fields that could
// not be loaded are left out and listed in Errors.
type accountResponse struct {
	Login         string                      `json:"login"`
	Name          string                      `json:"name"`
	Group         models.Group                `json:"group"`
	HasConnection bool                        `json:"has_connection"`
	Properties    map[string]account.Property `json:"properties"`
	Credit        *string                     `json:"credit,omitempty"`
	History       []historyEntry              `json:"history,omitempty"`
	Balance       *string                     `json:"balance,omitempty"`
	Transactions  []transaction               `json:"transactions,omitempty"`
	LastUpdate    *string                     `json:"last_update,omitempty"`
	Errors        map[string]string           `json:"errors,omitempty"`
}

type macRequest struct {
	MAC string `json:"mac"`
}

type userDBRequest struct {
	Password string `json:"password"`
}

type mailRequest struct {
	Password string `json:"password"`
	Mail     string `json:"mail"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

const dateLayout = time.DateOnly

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrPasswordInvalid), errors.Is(err, account.ErrCredentialClosed):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrReadOnly):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// messageOf is the client-facing text for err.
func messageOf(err error) string {
	switch statusOf(err) {
	case http.StatusServiceUnavailable:
		return "temporarily unavailable"
	case http.StatusUnauthorized:
		return "invalid credentials"
	case http.StatusNotFound:
		return "not found"
	case http.StatusInternalServerError:
		return "internal error"
	default:
		return err.Error()
	}
}
