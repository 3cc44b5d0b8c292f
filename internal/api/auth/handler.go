package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/good-yellow-bee/alertbridge/internal/api/respond"
)

// Credentials holds the dashboard login pair. Password may be a bcrypt
// hash ($2a$, $2b$ or $2y$ prefix) or a plaintext value compared in
// constant time.
type Credentials struct {
	Username string
	Password string
}

// Handler handles authentication endpoints.
type Handler struct {
	credentials Credentials
	jwtService  *JWTService
}

// NewHandler creates a new auth handler.
func NewHandler(creds Credentials, jwt *JWTService) *Handler {
	return &Handler{
		credentials: creds,
		jwtService:  jwt,
	}
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles dashboard login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, respond.BadRequest("invalid request body"))
		return
	}

	if req.Username == "" || req.Password == "" {
		respond.Err(w, respond.BadRequest("username and password required"))
		return
	}

	if !h.verify(req.Username, req.Password) {
		log.Printf("login failed: invalid credentials for %s", req.Username)
		respond.Err(w, respond.Unauthorized("invalid credentials"))
		return
	}

	accessToken, err := h.jwtService.GenerateToken(req.Username)
	if err != nil {
		log.Printf("login error: generate access token: %v", err)
		respond.Err(w, respond.Internal())
		return
	}

	log.Printf("login success: user %s", req.Username)

	respond.OK(w, &LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   h.jwtService.TTLSeconds(),
		TokenType:   "Bearer",
	})
}

func (h *Handler) verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.credentials.Username)) == 1

	var passOK bool
	if isBcryptHash(h.credentials.Password) {
		passOK = bcrypt.CompareHashAndPassword([]byte(h.credentials.Password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(h.credentials.Password)) == 1
	}

	return userOK && passOK
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
