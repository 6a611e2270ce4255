package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/domain"
	"auto-ria-clone/internal/service"
	"auto-ria-clone/internal/transport/http/ez"
	mdw "auto-ria-clone/internal/transport/http/middleware"
)

type BrandHandler struct {
	svc *service.BrandService
	log *zap.Logger
}

func NewBrandHandler(svc *service.BrandService, l *zap.Logger) *BrandHandler {
	return &BrandHandler{svc: svc, log: l}
}

func (h *BrandHandler) Priority() int { return 30 }

type reported struct {
	Reported bool `json:"reported"`
}

func (h *BrandHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g, h.log)

	ez.RegisterAction(e, ez.Action[struct{}, []domain.Brand]{
		Method: http.MethodGet, Path: "/brands", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Brand, error) {
			return h.svc.List(c.Request.Context())
		},
	})

	ez.RegisterAction(e, ez.Action[service.MissingBrandInput, reported]{
		Method: http.MethodPost, Path: "/brands/missing", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *service.MissingBrandInput) (reported, error) {
			err := h.svc.ReportMissing(c.Request.Context(), mdw.PrincipalFrom(c), *in)
			return reported{Reported: err == nil}, err
		},
	})
}

func (h *BrandHandler) MountAdmin(g *gin.RouterGroup) {
	e := ez.New(g, h.log)

	ez.RegisterAction(e, ez.Action[service.AddBrandInput, *domain.Brand]{
		Method: http.MethodPost, Path: "/brands", Binder: ez.BindJSON,
		Permissions: []access.Permission{access.BrandsManage},
		Handler: func(c *gin.Context, in *service.AddBrandInput) (*domain.Brand, error) {
			return h.svc.AddModels(c.Request.Context(), mdw.PrincipalFrom(c), *in)
		},
	})
}
