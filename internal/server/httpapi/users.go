package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/fitkeeper/internal/logging"
	"github.com/dmitrijs2005/fitkeeper/internal/server/models"
	"github.com/dmitrijs2005/fitkeeper/internal/server/services"
)

// usersHandler serves /api/users. Reads go through the generic resource
// routes; writes need password handling.
type usersHandler struct {
	users *services.UserService
	res   *resourceHandler[*models.User]
}

func mountUsers(r *mux.Router, path string, users *services.UserService, res *services.ResourceService[*models.User], logger logging.Logger) {
	h := &usersHandler{users: users, res: &resourceHandler[*models.User]{svc: res}}
	r.HandleFunc(path, Handle(logger, h.res.list)).Methods(http.MethodGet)
	r.HandleFunc(path+"/{id}", Handle(logger, h.res.get)).Methods(http.MethodGet)
	r.HandleFunc(path, Handle(logger, h.create)).Methods(http.MethodPost)
	r.HandleFunc(path, Handle(logger, h.update)).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc(path+"/{id}", Handle(logger, h.update)).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc(path, Handle(logger, h.delete)).Methods(http.MethodDelete)
	r.HandleFunc(path+"/{id}", Handle(logger, h.delete)).Methods(http.MethodDelete)
}

func (h *usersHandler) create(r *http.Request) (*Response, error) {
	p, err := principal(r)
	if err != nil {
		return nil, err
	}
	params, err := ParseRequest(r, defaultMaxBody)
	if err != nil {
		return nil, err
	}
	var c services.Credentials
	if err := params.Bind(&c); err != nil {
		return nil, err
	}
	u, err := h.users.Create(r.Context(), p, c)
	if err != nil {
		return nil, err
	}
	return Created(u, "user created"), nil
}

func (h *usersHandler) update(r *http.Request) (*Response, error) {
	p, err := principal(r)
	if err != nil {
		return nil, err
	}
	params, err := ParseRequest(r, defaultMaxBody)
	if err != nil {
		return nil, err
	}
	id, err := targetID(r, params)
	if err != nil {
		return nil, err
	}
	doc := &models.User{}
	if err := params.Bind(doc); err != nil {
		return nil, err
	}
	u, err := h.users.Update(r.Context(), p, id, doc, params.Keys(), params.GetString("password"))
	if err != nil {
		return nil, err
	}
	return OK(u, "user updated"), nil
}

func (h *usersHandler) delete(r *http.Request) (*Response, error) {
	p, err := principal(r)
	if err != nil {
		return nil, err
	}
	params, err := ParseRequest(r, defaultMaxBody)
	if err != nil {
		return nil, err
	}
	id, err := targetID(r, params)
	if err != nil {
		return nil, err
	}
	if err := h.users.Delete(r.Context(), p, id); err != nil {
		return nil, err
	}
	return OK(nil, "user deleted"), nil
}
