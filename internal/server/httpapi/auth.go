package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/fitkeeper/internal/server/services"
)

type authHandler struct {
	users *services.UserService
}

func (h *authHandler) login(r *http.Request) (*Response, error) {
	params, err := ParseRequest(r, defaultMaxBody)
	if err != nil {
		return nil, err
	}
	username, err := params.GetRequiredString("username")
	if err != nil {
		return nil, err
	}
	password, err := params.GetRequiredString("password")
	if err != nil {
		return nil, err
	}

	res, err := h.users.Login(r.Context(), username, password)
	if err != nil {
		return nil, err
	}
	return OK(res, "login successful"), nil
}

func (h *authHandler) register(r *http.Request) (*Response, error) {
	params, err := ParseRequest(r, defaultMaxBody)
	if err != nil {
		return nil, err
	}
	var c services.Credentials
	if err := params.Bind(&c); err != nil {
		return nil, err
	}

	u, err := h.users.Register(r.Context(), c)
	if err != nil {
		return nil, err
	}
	return Created(u, "registration successful"), nil
}

func (h *authHandler) me(r *http.Request) (*Response, error) {
	p, err := principal(r)
	if err != nil {
		return nil, err
	}
	u, err := h.users.Me(r.Context(), p)
	if err != nil {
		return nil, err
	}
	return OK(u, "current user"), nil
}
