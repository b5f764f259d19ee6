// Package httpapi exposes the decision pipeline over a thin gin
// surface. Upstream dispatch stays elsewhere; this endpoint answers
// "how would this request be routed" with the full dispatch plan.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/modelgate/modelgate/internal/access"
	"github.com/modelgate/modelgate/internal/chat"
	"github.com/modelgate/modelgate/internal/config"
	"github.com/modelgate/modelgate/internal/engine"
)

const identityContextKey = "modelgate.identity"

// statusCoder is implemented by pipeline errors that map to an HTTP
// status.
type statusCoder interface {
	error
	StatusCode() int
}

// headerer is implemented by errors carrying response headers, such as
// Retry-After on limit rejections.
type headerer interface {
	Headers() http.Header
}

// RegisterRoutes registers the decision API on r.
func RegisterRoutes(r *gin.Engine, eng *engine.Engine, jwtCfg config.JWTConfig) {
	if r == nil || eng == nil {
		return
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	decisionHandler := NewDecisionHandler(eng)

	v1 := r.Group("/v1")
	v1.Use(authMiddleware(jwtCfg))
	v1.POST("/decision", decisionHandler.Decide)
}

// DecisionHandler serves dispatch decisions.
type DecisionHandler struct {
	engine *engine.Engine
}

// NewDecisionHandler constructs a DecisionHandler.
func NewDecisionHandler(eng *engine.Engine) *DecisionHandler {
	return &DecisionHandler{engine: eng}
}

// Decide handles POST /v1/decision.
func (h *DecisionHandler) Decide(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req chat.Request
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	decision, errDecide := h.engine.Decide(c.Request.Context(), caller, req)
	if errDecide != nil {
		writeError(c, errDecide)
		return
	}

	c.JSON(http.StatusOK, decision)
}

// writeError maps a pipeline error onto the response, honoring its
// status code and headers when present.
func writeError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	var coder statusCoder
	if errors.As(err, &coder) {
		code = coder.StatusCode()
	}
	var withHeaders headerer
	if errors.As(err, &withHeaders) {
		for key, values := range withHeaders.Headers() {
			for _, value := range values {
				c.Header(key, value)
			}
		}
	}
	if code >= http.StatusInternalServerError {
		log.WithError(err).Error("decision failed")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// authMiddleware authenticates the bearer token and stores the caller
// identity for the handlers.
func authMiddleware(jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		caller, errParse := access.ParseBearer(authHeader, jwtCfg.Secret)
		if errParse != nil {
			if errors.Is(errParse, access.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(identityContextKey, caller)
		c.Next()
	}
}

// callerIdentity reads the authenticated identity set by the
// middleware.
func callerIdentity(c *gin.Context) (access.Identity, bool) {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return access.Identity{}, false
	}
	caller, ok := value.(access.Identity)
	return caller, ok
}
