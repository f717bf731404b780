package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/oficinatec/oficina/internal/httpx"
	"github.com/oficinatec/oficina/internal/services"
)

// CatalogHandler serves the price catalog pages, one for services and one
// for parts. Each page lists the entries and takes the create form; edits
// and deletes post back with an id.
type CatalogHandler struct {
	DB  *gorm.DB
	Svc *services.CatalogSvc
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{DB: db, Svc: services.NewCatalogSvc(db)}
}

func catalogInputFromForm(r *http.Request) services.CatalogInput {
	return services.CatalogInput{
		Name:         r.FormValue("name"),
		Details:      r.FormValue("details"),
		InternalCode: r.FormValue("internal_code"),
		UnitPrice:    r.FormValue("unit_price"),
		Unit:         r.FormValue("unit"),
	}
}

// Services: GET lists, POST creates. /servicos
func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
			return
		}
		svc, err := h.Svc.CreateService(catalogInputFromForm(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusCreated, svc)
			return
		}
		http.Redirect(w, r, "/servicos", statusSeeOther)
		return
	}
	list, err := h.Svc.ListServices()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, list)
		return
	}
	renderTemplate(w, r, "catalog_services", map[string]any{"Services": list})
}

// UpdateService: POST /servicos/editar?id=
func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	svc, err := h.Svc.UpdateService(id, catalogInputFromForm(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, svc)
		return
	}
	http.Redirect(w, r, "/servicos", statusSeeOther)
}

// DeleteService: POST /servicos/deletar?id=
func (h *CatalogHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "/servicos", h.Svc.DeleteService)
}

// Parts: GET lists, POST creates. /pecas
func (h *CatalogHandler) Parts(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
			return
		}
		part, err := h.Svc.CreatePart(catalogInputFromForm(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusCreated, part)
			return
		}
		http.Redirect(w, r, "/pecas", statusSeeOther)
		return
	}
	list, err := h.Svc.ListParts()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, list)
		return
	}
	renderTemplate(w, r, "catalog_parts", map[string]any{"Parts": list})
}

// UpdatePart: POST /pecas/editar?id=
func (h *CatalogHandler) UpdatePart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	part, err := h.Svc.UpdatePart(id, catalogInputFromForm(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, part)
		return
	}
	http.Redirect(w, r, "/pecas", statusSeeOther)
}

// DeletePart: POST /pecas/deletar?id=
func (h *CatalogHandler) DeletePart(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, "/pecas", h.Svc.DeletePart)
}

func (h *CatalogHandler) delete(w http.ResponseWriter, r *http.Request, redirect string, del func(uint) error) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := del(id); err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}
	http.Redirect(w, r, redirect, statusSeeOther)
}
