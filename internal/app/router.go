package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stellarcargo/peercall/breaker"
	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/credential"
	"github.com/stellarcargo/peercall/internal/mission"
	"github.com/stellarcargo/peercall/metrics"
	"github.com/stellarcargo/peercall/trace"
	"github.com/stellarcargo/peercall/xerrors"
)

// HeaderRequestID 请求 ID 头
const HeaderRequestID = "X-Request-ID"

func (a *App) newRouter(carrier credential.Carrier, missions *mission.Handler) (*gin.Engine, error) {
	httpMetrics, err := metrics.NewHTTPServerMetrics(a.meter, a.cfg.Service)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestID(),
		trace.GinMiddleware(a.cfg.Service),
		metrics.GinHTTPMiddleware(httpMetrics),
		credential.GinMiddleware(carrier, credential.WithLogger(a.logger)),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(a.meter.Handler()))

	missions.Register(r.Group("/api"))

	admin := r.Group("/admin")
	admin.GET("/breakers", a.listBreakers)
	admin.POST("/breakers/:dependency/reset", a.resetBreaker)
	return r, nil
}

// requestID 沿用调用方的 X-Request-ID，没有时生成，并写入日志上下文
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(clog.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (a *App) listBreakers(c *gin.Context) {
	snaps := a.registry.Snapshots()
	if snaps == nil {
		snaps = []breaker.Snapshot{}
	}
	c.JSON(http.StatusOK, gin.H{"breakers": snaps})
}

func (a *App) resetBreaker(c *gin.Context) {
	dep := c.Param("dependency")
	err := a.registry.Reset(dep)
	switch {
	case err == nil:
	case xerrors.Is(err, breaker.ErrUnknownDependency):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": xerrors.CodeNotFound})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": xerrors.CodeInvalidInput})
		return
	}

	a.logger.WarnContext(c.Request.Context(), "circuit breaker reset by operator", clog.String("dependency", dep))
	state, _ := a.registry.State(dep)
	c.JSON(http.StatusOK, gin.H{"dependency": dep, "state": state.String()})
}
