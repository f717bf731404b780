package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/oficinatec/oficina/internal/auth"
	"github.com/oficinatec/oficina/internal/handlers"
	"github.com/oficinatec/oficina/internal/httpx"
	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/photostore"
)

// New constructs the root http.Handler with all routes and middlewares
// applied. Staff routes sit behind RequireStaff, the portal behind
// RequireCustomer; login, logout, photos served to either side, and the
// health endpoints stay open.
func New(db *gorm.DB, photos photostore.PhotoStore) http.Handler {
	mux := http.NewServeMux()

	// Sessions outlive rows; re-check that the principal still exists.
	auth.SetVerifier(func(_ context.Context, p auth.Principal) bool {
		var count int64
		q := db.Model(&models.StaffUser{})
		if p.IsCustomer() {
			q = db.Model(&models.Customer{})
		}
		if err := q.Where("id = ?", p.ID).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)

	staff := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireStaff(h))
	}
	customer := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireCustomer(h))
	}

	dash := handlers.NewDashboardHandler(db)
	mux.Handle("/dashboard", staff(dash.Index))

	ch := handlers.NewCustomerHandler(db, photos)
	mux.Handle("/clientes", staff(ch.List))
	mux.Handle("/clientes/cadastrar", staff(ch.Create))
	mux.Handle("/clientes/detalhes", staff(ch.Detail))
	mux.Handle("/clientes/editar", staff(ch.Update))
	mux.Handle("/clientes/deletar", staff(ch.Delete))

	oh := handlers.NewWorkOrderHandler(db, photos)
	mux.Handle("/os/cadastrar", staff(oh.Create))
	mux.Handle("/os/detalhes", staff(oh.Detail))
	mux.Handle("/os/deletar", staff(oh.Delete))
	mux.Handle("/os/itens/servico", staff(oh.AddServiceItem))
	mux.Handle("/os/itens/servico/deletar", staff(oh.RemoveServiceItem))
	mux.Handle("/os/itens/peca", staff(oh.AddPartItem))
	mux.Handle("/os/itens/peca/deletar", staff(oh.RemovePartItem))
	mux.Handle("/os/pdf", staff(oh.PDF))
	mux.Handle("/os/doc", staff(oh.Doc))

	qh := handlers.NewQuoteHandler(db, photos)
	mux.Handle("/orcamentos/cadastrar", staff(qh.Create))
	mux.Handle("/orcamentos/detalhes", staff(qh.Detail))
	mux.Handle("/orcamentos/deletar", staff(qh.Delete))
	mux.Handle("/orcamentos/converter", staff(qh.Convert))
	mux.Handle("/orcamentos/itens/servico", staff(qh.AddServiceItem))
	mux.Handle("/orcamentos/itens/servico/deletar", staff(qh.RemoveServiceItem))
	mux.Handle("/orcamentos/itens/peca", staff(qh.AddPartItem))
	mux.Handle("/orcamentos/itens/peca/deletar", staff(qh.RemovePartItem))
	mux.Handle("/orcamentos/pdf", staff(qh.PDF))
	mux.Handle("/orcamentos/doc", staff(qh.Doc))

	cat := handlers.NewCatalogHandler(db)
	mux.Handle("/servicos", staff(cat.Services))
	mux.Handle("/servicos/editar", staff(cat.UpdateService))
	mux.Handle("/servicos/deletar", staff(cat.DeleteService))
	mux.Handle("/pecas", staff(cat.Parts))
	mux.Handle("/pecas/editar", staff(cat.UpdatePart))
	mux.Handle("/pecas/deletar", staff(cat.DeletePart))

	ph := handlers.NewPhotoHandler(db, photos)
	mux.Handle("/fotos/enviar", staff(ph.Upload))
	mux.Handle("/fotos/deletar", staff(ph.Delete))
	// Photo blobs render on both staff pages and portal pages; Serve
	// itself requires a principal and checks customer ownership.
	mux.Handle("/fotos/arquivo", auth.Middleware(http.HandlerFunc(ph.Serve)))

	rh := handlers.NewReportHandler(db)
	mux.Handle("/relatorios", staff(rh.Index))
	mux.Handle("/relatorios/exportar", staff(rh.Export))

	portal := handlers.NewPortalHandler(db)
	mux.Handle("/portal", customer(portal.Home))
	mux.Handle("/portal/os", customer(portal.WorkOrder))
	mux.Handle("/portal/orcamento", customer(portal.Quote))

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	return withRecover(withLogging(mux))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic em handler", "path", r.URL.Path, "panic", rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
