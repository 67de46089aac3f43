package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/logging"
	"github.com/dmitrijs2005/fitkeeper/internal/server/services"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store"
)

// defaultMaxBody limits every body except uploads.
const defaultMaxBody = 1 << 20

type resourceHandler[D store.Document] struct {
	svc *services.ResourceService[D]
}

// mountResource registers the CRUD routes of svc under path.
func mountResource[D store.Document](r *mux.Router, path string, svc *services.ResourceService[D], logger logging.Logger) {
	h := &resourceHandler[D]{svc: svc}
	r.HandleFunc(path, Handle(logger, h.list)).Methods(http.MethodGet)
	r.HandleFunc(path+"/{id}", Handle(logger, h.get)).Methods(http.MethodGet)
	r.HandleFunc(path, Handle(logger, h.create)).Methods(http.MethodPost)
	r.HandleFunc(path, Handle(logger, h.update)).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc(path+"/{id}", Handle(logger, h.update)).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc(path, Handle(logger, h.delete)).Methods(http.MethodDelete)
	r.HandleFunc(path+"/{id}", Handle(logger, h.delete)).Methods(http.MethodDelete)
}

// targetID takes the id from the path, then from the merged parameters.
func targetID(r *http.Request, params *Params) (string, error) {
	if id := mux.Vars(r)["id"]; id != "" {
		return id, nil
	}
	return params.GetRequiredString("id")
}

func (h *resourceHandler[D]) list(r *http.Request) (*Response, error) {
	p, err := principal(r)
	if err != nil {
		return nil, err
	}
	params, err := ParseRequest(r, defaultMaxBody)
	if err != nil {
		return nil, err
	}
	q, err := h.svc.Query(params)
	if err != nil {
		return nil, err
	}
	page, err := h.svc.List(r.Context(), p, q)
	if err != nil {
		return nil, err
	}
	return Paginated(page, h.svc.Name()+" list"), nil
}

func (h *resourceHandler[D]) get(r *http.Request) (*Response, error) {
	p, err := principal(r)
	if err != nil {
		return nil, err
	}
	doc, err := h.svc.Get(r.Context(), p, mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	return OK(doc, h.svc.Name()+" found"), nil
}

func (h *resourceHandler[D]) create(r *http.Request) (*Response, error) {
	p, err := principal(r)
	if err != nil {
		return nil, err
	}
	params, err := ParseRequest(r, defaultMaxBody)
	if err != nil {
		return nil, err
	}
	doc := h.svc.New()
	if err := params.Bind(doc); err != nil {
		return nil, err
	}
	created, err := h.svc.Create(r.Context(), p, doc)
	if err != nil {
		return nil, err
	}
	return Created(created, h.svc.Name()+" created"), nil
}

func (h *resourceHandler[D]) update(r *http.Request) (*Response, error) {
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
	doc := h.svc.New()
	if err := params.Bind(doc); err != nil {
		return nil, err
	}
	updated, err := h.svc.Update(r.Context(), p, id, doc, params.Keys())
	if err != nil {
		return nil, err
	}
	return OK(updated, h.svc.Name()+" updated"), nil
}

func (h *resourceHandler[D]) delete(r *http.Request) (*Response, error) {
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
	if err := h.svc.Delete(r.Context(), p, id); err != nil {
		return nil, err
	}
	return OK(nil, h.svc.Name()+" deleted"), nil
}

func notFound(logger logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, logger, common.NotFound("route %s not found", r.URL.Path))
	})
}

func methodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Envelope{
			Message: "method " + r.Method + " not allowed",
			Code:    common.KindBadRequest.Code(),
		})
	})
}
