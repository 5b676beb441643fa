package subscription

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mailkeeper/mailkeeper/internal/config"
	"github.com/mailkeeper/mailkeeper/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
	cfg *config.AppConfig
	log *zap.Logger
}

func NewHandler(svc *Service, cfg *config.AppConfig, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, cfg: cfg, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/subscribe")
	g.POST("", h.subscribe)
	g.GET("/confirm", h.confirm)
	g.GET("/unsubscribe", h.unsubscribe)

	admin := rg.Group("/subscribers", authMW)
	admin.GET("", h.list)
	admin.GET("/stats", h.stats)
	admin.GET("/export", h.export)
}

type subscribeDTO struct {
	Email  string                 `json:"email"`
	Fields map[string]interface{} `json:"fields"`
}

func (h *Handler) subscribe(c *gin.Context) {
	var dto subscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if msg, ok := h.missingRequiredField(dto.Fields); ok {
		response.BadRequest(c, msg)
		return
	}

	outcome, err := h.svc.Subscribe(c.Request.Context(), dto.Email, dto.Fields)
	if err != nil {
		h.handleError(c, err)
		return
	}

	msg := h.cfg.Messages.Sent
	if outcome == OutcomeResent {
		msg = h.cfg.Messages.Resent
	}
	response.Created(c, gin.H{"message": msg, "outcome": outcome})
}

func (h *Handler) confirm(c *gin.Context) {
	err := h.svc.Confirm(c.Request.Context(), c.Query("email"), c.Query("key"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, gin.H{"message": h.cfg.Messages.Confirmed})
}

func (h *Handler) unsubscribe(c *gin.Context) {
	err := h.svc.Unsubscribe(c.Request.Context(), c.Query("email"), c.Query("key"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, gin.H{"message": h.cfg.Messages.Unsubscribed})
}

func (h *Handler) list(c *gin.Context) {
	subs, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, subs)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, stats)
}

func (h *Handler) export(c *gin.Context) {
	filename := fmt.Sprintf("subscribers-%s.csv", time.Now().Format("20060102-150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.svc.WriteCSV(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("subscriber export failed", zap.Error(err))
		// headers may already be out; nothing more to do than abort
		c.Abort()
	}
}

// missingRequiredField checks the submitted values against the configured
// field definitions.
func (h *Handler) missingRequiredField(fields map[string]interface{}) (string, bool) {
	for _, def := range h.cfg.Fields {
		if !def.Required {
			continue
		}
		raw, ok := fields[def.Name]
		if !ok {
			return fmt.Sprintf("field %q is required", def.Name), true
		}
		if s, isStr := raw.(string); isStr && strings.TrimSpace(s) == "" {
			return fmt.Sprintf("field %q is required", def.Name), true
		}
	}
	return "", false
}

// handleError maps the service error families onto HTTP responses. Technical
// causes go to the log; clients only ever see the configured texts.
func (h *Handler) handleError(c *gin.Context, err error) {
	var rej *Rejection
	if errors.As(err, &rej) {
		switch rej.Reason {
		case ReasonMissingEmail:
			response.BadRequest(c, h.cfg.Messages.MissingEmail)
		case ReasonAlreadySubscribed:
			response.Conflict(c, h.cfg.Messages.AlreadySubscribed)
		case ReasonCannotConfirm:
			response.BadRequest(c, h.cfg.Messages.CannotConfirm)
		case ReasonCannotUnsubscribe:
			response.BadRequest(c, h.cfg.Messages.CannotUnsubscribe)
		default:
			response.BadRequest(c, string(rej.Reason))
		}
		return
	}

	var tech *TechnicalError
	if errors.As(err, &tech) {
		h.log.Error("subscription operation failed",
			zap.String("op", tech.Op),
			zap.String("email", tech.Email),
			zap.Error(tech.Err),
		)
	} else {
		h.log.Error("subscription operation failed", zap.Error(err))
	}
	response.InternalError(c, h.cfg.Messages.TechnicalError)
}
