package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oficinatec/oficina/internal/auth"
	"github.com/oficinatec/oficina/internal/httpx"
	"github.com/oficinatec/oficina/internal/models"
	"github.com/oficinatec/oficina/internal/services"
)

// AuthHandler serves the staff login and the customer portal login. They
// are separate pages over the same session mechanism; the cookie carries
// which kind of principal logged in.
type AuthHandler struct {
	DB        *gorm.DB
	Customers *services.CustomerService
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db, Customers: services.NewCustomerService(db)}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/login", h.staffLogin)
	mux.HandleFunc("/login-cliente", h.customerLogin)
	mux.HandleFunc("/logout", h.logout)
}

func (h *AuthHandler) staffLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "login", nil)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "GET,POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	pass := r.FormValue("password")
	if username == "" || pass == "" {
		renderTemplate(w, r, "login", map[string]any{"Error": "informe usuário e senha"})
		return
	}
	var user models.StaffUser
	if err := h.DB.Where("username = ?", username).First(&user).Error; err != nil {
		h.loginFailed(w, r, "login")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(pass)) != nil {
		h.loginFailed(w, r, "login")
		return
	}
	auth.CreateSession(w, auth.Principal{Kind: auth.PrincipalStaff, ID: user.ID})
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID, "role": user.Role})
		return
	}
	http.Redirect(w, r, "/dashboard", statusSeeOther)
}

func (h *AuthHandler) customerLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "login_cliente", nil)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "GET,POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	pass := r.FormValue("password")
	if username == "" || pass == "" {
		renderTemplate(w, r, "login_cliente", map[string]any{"Error": "informe usuário e senha"})
		return
	}
	customer, err := h.Customers.Authenticate(username, pass)
	if err != nil {
		h.loginFailed(w, r, "login_cliente")
		return
	}
	auth.CreateSession(w, auth.Principal{Kind: auth.PrincipalCustomer, ID: customer.ID})
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": customer.ID})
		return
	}
	http.Redirect(w, r, "/portal", statusSeeOther)
}

// loginFailed answers both bad usernames and bad passwords identically.
func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, page string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	renderTemplate(w, r, page, map[string]any{"Error": "usuário ou senha inválidos"})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/", statusSeeOther)
}
