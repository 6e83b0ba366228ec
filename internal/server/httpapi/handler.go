package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/server/account"
	"github.com/dmitrijs2005/dormnet/internal/server/auth"
	"github.com/dmitrijs2005/dormnet/internal/server/checksum"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Login == "" {
		writeError(w, http.StatusBadRequest, "login and password required")
		return
	}

	acct, err := s.auth.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	token, err := auth.GenerateToken(acct.Login, s.jwtSecret, s.tokenValidity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// whois resolves the ip query parameter, or the caller's own address when
// it is absent.
func (s *Server) whois(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}
	if net.ParseIP(ip) == nil {
		writeError(w, http.StatusBadRequest, "invalid ip")
		return
	}

	acct, err := s.resolver.ByDeviceIP(r.Context(), ip)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, whoisResponse{IP: ip, Login: acct.Login, ID: checksum.Encode(acct.ID)})
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := s.views(ctx, loginFrom(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	acct := v.Account()
	resp := accountResponse{
		Login:         acct.Login,
		Name:          acct.Name,
		Group:         acct.Group,
		HasConnection: v.HasConnection(),
		Properties: map[string]account.Property{
			"login":     v.LoginProperty(),
			"mail":      v.MailProperty(),
			"address":   v.AddressProperty(ctx),
			"ips":       v.IPsProperty(),
			"mac":       v.MACProperty(),
			"hostname":  v.HostnameProperty(),
			"hostalias": v.HostAliasProperty(),
			"status":    v.StatusProperty(),
			"id":        v.IDProperty(),
			"userdb":    v.UserDBStatus(ctx),
		},
		Errors: map[string]string{},
	}

	p, credit, err := v.CreditProperty(ctx)
	resp.Properties["credit"] = p
	if err != nil {
		resp.Errors["credit"] = messageOf(err)
	} else {
		str := credit.StringFixed(2)
		resp.Credit = &str
	}

	if h, err := v.History(ctx); err != nil {
		resp.Errors["history"] = messageOf(err)
	} else {
		resp.History = make([]historyEntry, 0, len(h))
		for _, e := range h {
			resp.History = append(resp.History, historyEntry{
				Day:        e.Day.Format(dateLayout),
				TimeTag:    e.TimeTag,
				Input:      e.Input.StringFixed(2),
				Output:     e.Output.StringFixed(2),
				Throughput: e.Throughput.StringFixed(2),
				Credit:     e.Credit.StringFixed(2),
			})
		}
	}

	if fin, err := v.Finance(ctx); err != nil {
		resp.Errors["finance"] = messageOf(err)
	} else {
		str := fin.Balance.StringFixed(2)
		resp.Balance = &str

		resp.Transactions = make([]transaction, 0, len(fin.Transactions))
		for _, tx := range fin.Transactions {
			resp.Transactions = append(resp.Transactions, transaction{
				Date:        tx.Date.Format(dateLayout),
				Amount:      tx.Amount.StringFixed(2),
				Description: tx.Description,
			})
		}
		if fin.LastUpdate != nil {
			d := fin.LastUpdate.Format(dateLayout)
			resp.LastUpdate = &d
		}
	}

	if len(resp.Errors) == 0 {
		resp.Errors = nil
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) changeMAC(w http.ResponseWriter, r *http.Request) {
	var req macRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	ctx := r.Context()
	v, err := s.views(ctx, loginFrom(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := v.ChangeMAC(ctx, req.MAC); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mac": v.MACProperty()})
}

func (s *Server) changeMail(w http.ResponseWriter, r *http.Request) {
	var req mailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.withCredential(w, r, req.Password, func(v *account.View, c *account.Credential) error {
		return v.ChangeMail(r.Context(), c, req.Mail)
	})
}

func (s *Server) deleteMail(w http.ResponseWriter, r *http.Request) {
	var req mailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.withCredential(w, r, req.Password, func(v *account.View, c *account.Credential) error {
		return v.DeleteMail(r.Context(), c)
	})
}

func (s *Server) withCredential(w http.ResponseWriter, r *http.Request, password string,
	fn func(*account.View, *account.Credential) error) {
	ctx := r.Context()
	v, err := s.views(ctx, loginFrom(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = v.WithCredential(ctx, []byte(password), func(c *account.Credential) error {
		return fn(v, c)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mail": v.MailProperty()})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	ctx := r.Context()
	v, err := s.views(ctx, loginFrom(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := v.ChangePassword(ctx, req.OldPassword, req.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createUserDB(w http.ResponseWriter, r *http.Request) {
	var req userDBRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	ctx := r.Context()
	v, err := s.views(ctx, loginFrom(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := v.CreateUserDB(ctx, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userdb": v.UserDBStatus(ctx)})
}

func (s *Server) dropUserDB(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := s.views(ctx, loginFrom(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := v.DropUserDB(ctx); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) changeUserDBPassword(w http.ResponseWriter, r *http.Request) {
	var req userDBRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	ctx := r.Context()
	v, err := s.views(ctx, loginFrom(ctx))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := v.ChangeUserDBPassword(ctx, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail logs err and writes the mapped status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	args := []any{"request_id", requestIDFrom(r.Context()), "path", r.URL.Path, "error", err.Error()}
	switch {
	case status >= http.StatusInternalServerError:
		s.logger.Error(r.Context(), "request failed", args...)
	case errors.Is(err, common.ErrorInconsistent):
		s.logger.Warn(r.Context(), "request failed", args...)
	default:
		s.logger.Debug(r.Context(), "request failed", args...)
	}
	writeError(w, status, messageOf(err))
}
