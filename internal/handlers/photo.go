package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/oficinatec/oficina/internal/auth"
	"github.com/oficinatec/oficina/internal/httpx"
	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/photostore"
	"github.com/oficinatec/oficina/internal/services"
)

// maxPhotoUpload bounds a single multipart upload.
const maxPhotoUpload = 10 << 20

// PhotoHandler attaches uploaded photos to a work order or quote, serves
// the blobs back, and deletes them. The database row and the blob are kept
// consistent: row first on upload, blob cleanup best-effort on delete.
type PhotoHandler struct {
	DB     *gorm.DB
	Photos photostore.PhotoStore
}

func NewPhotoHandler(db *gorm.DB, photos photostore.PhotoStore) *PhotoHandler {
	return &PhotoHandler{DB: db, Photos: photos}
}

// Upload: POST multipart /fotos/enviar?os_id= or ?orcamento_id=
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	orderID, hasOrder := idParam(r, "os_id")
	quoteID, hasQuote := idParam(r, "orcamento_id")
	if hasOrder == hasQuote {
		httpx.JSONError(w, http.StatusBadRequest, "photo_needs_one_parent", nil)
		return
	}

	if err := r.ParseMultipartForm(maxPhotoUpload); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_upload", nil)
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "missing_file", nil)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	var prefix, redirect string
	photo := models.Photo{Caption: r.FormValue("caption")}
	if hasOrder {
		if err := h.parentExists(&models.WorkOrder{}, orderID); err != nil {
			writeServiceError(w, err)
			return
		}
		photo.WorkOrderID = &orderID
		prefix = "os"
		redirect = "/os/detalhes?id=" + strconv.Itoa(int(orderID))
	} else {
		if err := h.parentExists(&models.Quote{}, quoteID); err != nil {
			writeServiceError(w, err)
			return
		}
		photo.QuoteID = &quoteID
		prefix = "orcamento"
		redirect = "/orcamentos/detalhes?id=" + strconv.Itoa(int(quoteID))
	}

	filename, err := h.Photos.Save(r.Context(), prefix, mimeType, file)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "unsupported_file", nil)
		return
	}
	photo.Filename = filename
	if err := h.DB.Create(&photo).Error; err != nil {
		if derr := h.Photos.Delete(r.Context(), filename); derr != nil {
			slog.Warn("removendo blob de foto órfã", "filename", filename, "error", derr)
		}
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, photo)
		return
	}
	http.Redirect(w, r, redirect, statusSeeOther)
}

func (h *PhotoHandler) parentExists(dst any, id uint) error {
	err := h.DB.Select("id").First(dst, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}

// photoOwner resolves the customer owning the photo's parent document.
func (h *PhotoHandler) photoOwner(photo models.Photo) (uint, error) {
	switch {
	case photo.WorkOrderID != nil:
		var o models.WorkOrder
		if err := h.DB.Select("customer_id").First(&o, *photo.WorkOrderID).Error; err != nil {
			return 0, err
		}
		return o.CustomerID, nil
	case photo.QuoteID != nil:
		var q models.Quote
		if err := h.DB.Select("customer_id").First(&q, *photo.QuoteID).Error; err != nil {
			return 0, err
		}
		return q.CustomerID, nil
	default:
		return 0, services.ErrNotFound
	}
}

// Serve: GET /fotos/arquivo?nome=<filename>
// Staff see every blob; a customer only those attached to their own
// documents.
func (h *PhotoHandler) Serve(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	name := r.URL.Query().Get("nome")
	if name == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_filename", nil)
		return
	}
	var photo models.Photo
	if err := h.DB.Where("filename = ?", name).First(&photo).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if p.IsCustomer() {
		owner, err := h.photoOwner(photo)
		if err != nil {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		if owner != p.ID {
			writeServiceError(w, services.ErrForbidden)
			return
		}
	}
	blob, mimeType, err := h.Photos.Get(r.Context(), name)
	if err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	defer blob.Close()
	w.Header().Set("Content-Type", mimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, blob)
}

// Delete: POST /fotos/deletar?id=
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var photo models.Photo
	if err := h.DB.First(&photo, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err := h.DB.Delete(&photo).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if err := h.Photos.Delete(r.Context(), photo.Filename); err != nil {
		slog.Warn("removendo blob de foto", "filename", photo.Filename, "error", err)
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}
	switch {
	case photo.WorkOrderID != nil:
		http.Redirect(w, r, "/os/detalhes?id="+strconv.Itoa(int(*photo.WorkOrderID)), statusSeeOther)
	case photo.QuoteID != nil:
		http.Redirect(w, r, "/orcamentos/detalhes?id="+strconv.Itoa(int(*photo.QuoteID)), statusSeeOther)
	default:
		http.Redirect(w, r, "/dashboard", statusSeeOther)
	}
}
