package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mailkeeper/mailkeeper/internal/config"
	"github.com/mailkeeper/mailkeeper/internal/pkg/jwt"
	"github.com/mailkeeper/mailkeeper/internal/pkg/response"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminSubject = "admin"
	tokenTTL     = 24 * time.Hour
)

var errBadCredentials = errors.New("bad credentials")

// Service verifies the configured admin password and issues session tokens.
// The configured value may already be a bcrypt hash; a plaintext value is
// hashed once at startup so comparison always goes through bcrypt.
type Service struct {
	hash []byte
	log  *zap.Logger
}

func NewService(cfg *config.AppConfig, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pw := strings.TrimSpace(cfg.Admin.Password)
	if pw == "" {
		// no password configured, login stays disabled
		return &Service{log: log}, nil
	}
	if isBcryptHash(pw) {
		return &Service{hash: []byte(pw), log: log}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Service{hash: hash, log: log}, nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// Login checks the password and returns a signed session token.
func (s *Service) Login(password string) (string, error) {
	if len(s.hash) == 0 {
		return "", errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		return "", errBadCredentials
	}
	return jwt.Sign(adminSubject, tokenTTL)
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/auth")
	g.POST("/login", h.login)
}

type loginDTO struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var dto loginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, err := h.svc.Login(dto.Password)
	if err != nil {
		h.svc.log.Warn("admin login rejected", zap.String("ip", c.ClientIP()))
		response.Unauthorized(c)
		return
	}

	response.OK(c, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(tokenTTL.Seconds()),
	})
}
