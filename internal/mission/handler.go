package mission

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/resilient"
	"github.com/stellarcargo/peercall/xerrors"
)

// Handler 任务 HTTP 接口
type Handler struct {
	svc    *Service
	logger clog.Logger
}

// NewHandler 创建 Handler
func NewHandler(svc *Service, logger clog.Logger) *Handler {
	if logger == nil {
		logger = clog.Discard()
	}
	return &Handler{svc: svc, logger: logger.WithNamespace("mission")}
}

// Register 注册路由
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/missions", h.create)
	r.GET("/missions", h.list)
	r.GET("/missions/:id", h.get)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": xerrors.CodeInvalidInput})
		return
	}
	m, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) list(c *gin.Context) {
	missions, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missions": missions})
}

func (h *Handler) fail(c *gin.Context, err error) {
	var ve *ValidationError
	switch {
	case xerrors.Is(err, ErrMissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "mission not found", "code": xerrors.CodeNotFound})
	case xerrors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ve.Error(), "code": xerrors.CodeInvalidInput})
	case resilient.IsNotFound(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "referenced entity does not exist", "code": xerrors.CodeNotFound})
	case xerrors.Is(err, xerrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": xerrors.CodeInvalidInput})
	default:
		h.logger.ErrorContext(c.Request.Context(), "mission request failed", clog.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": xerrors.GetCode(err)})
	}
}
