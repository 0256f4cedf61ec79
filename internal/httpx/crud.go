package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type crudOpts struct {
	noCreate bool
	// public cache entries fed by this resource
	invalidates []string
}

type crud[T any, C, P validator] struct {
	s     *Server
	store Resource[T, C, P]
	opts  crudOpts
}

// mountCRUD registers list/create on path and get/patch/delete on path/{id}.
func mountCRUD[T any, C, P validator](r chi.Router, s *Server, path string, store Resource[T, C, P], opts crudOpts) {
	h := &crud[T, C, P]{s: s, store: store, opts: opts}
	r.Route(path, func(r chi.Router) {
		r.Get("/", h.list)
		if !opts.noCreate {
			r.Post("/", h.create)
		}
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

// idParam rejects ids that cannot exist before the store is asked.
func idParam(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func (h *crud[T, C, P]) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r)
	defer cancel()

	items, err := h.store.List(ctx)
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *crud[T, C, P]) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	item, err := h.store.Get(ctx, id)
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *crud[T, C, P]) create(w http.ResponseWriter, r *http.Request) {
	var in C
	if err := decodeJSON(w, r, &in); err != nil {
		h.s.fail(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		h.s.fail(w, r, err)
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	item, err := h.store.Create(ctx, in)
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	h.changed(r)
	writeJSON(w, http.StatusCreated, item)
}

func (h *crud[T, C, P]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	var p P
	if err := decodeJSON(w, r, &p); err != nil {
		h.s.fail(w, r, err)
		return
	}
	if err := p.Validate(); err != nil {
		h.s.fail(w, r, err)
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	item, err := h.store.Update(ctx, id, p)
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	h.changed(r)
	writeJSON(w, http.StatusOK, item)
}

func (h *crud[T, C, P]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	if err := h.store.Delete(ctx, id); err != nil {
		h.s.fail(w, r, err)
		return
	}
	h.changed(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *crud[T, C, P]) changed(r *http.Request) {
	if len(h.opts.invalidates) == 0 {
		return
	}
	if err := h.s.Cache.Invalidate(r.Context(), h.opts.invalidates...); err != nil {
		h.s.Log.Warn("cache invalidation failed", zap.Strings("resources", h.opts.invalidates), zap.Error(err))
	}
}
