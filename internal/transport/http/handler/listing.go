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

type ListingHandler struct {
	svc       *service.ListingService
	maxUpload int64
	log       *zap.Logger
}

func NewListingHandler(svc *service.ListingService, maxUploadBytes int64, l *zap.Logger) *ListingHandler {
	return &ListingHandler{svc: svc, maxUpload: maxUploadBytes, log: l}
}

func (h *ListingHandler) Priority() int { return 20 }

type listingPage = service.Page[service.ListingView]

type deleted struct {
	ID string `json:"id"`
}

func (h *ListingHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g, h.log)

	ez.RegisterAction(e, ez.Action[domain.ListingQuery, listingPage]{
		Method: http.MethodGet, Path: "/listings", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *domain.ListingQuery) (listingPage, error) {
			return h.svc.List(c.Request.Context(), mdw.PrincipalFrom(c), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *service.ListingView]{
		Method: http.MethodGet, Path: "/listings/:id", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*service.ListingView, error) {
			return h.svc.View(c.Request.Context(), mdw.PrincipalFrom(c), c.Param("id"))
		},
	})

	ez.RegisterAction(e, ez.Action[service.CreateListingInput, *service.ListingView]{
		Method: http.MethodPost, Path: "/listings", Binder: ez.BindJSON,
		Permissions: []access.Permission{access.CarsCreate},
		Handler: func(c *gin.Context, in *service.CreateListingInput) (*service.ListingView, error) {
			return h.svc.Create(c.Request.Context(), mdw.PrincipalFrom(c), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[service.UpdateListingInput, *service.ListingView]{
		Method: http.MethodPatch, Path: "/listings/:id", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *service.UpdateListingInput) (*service.ListingView, error) {
			return h.svc.Update(c.Request.Context(), mdw.PrincipalFrom(c), c.Param("id"), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, deleted]{
		Method: http.MethodDelete, Path: "/listings/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (deleted, error) {
			id := c.Param("id")
			return deleted{ID: id}, h.svc.Delete(c.Request.Context(), mdw.PrincipalFrom(c), id)
		},
	})

	ez.POSTFILE(e, "/listings/:id/image", "image", h.maxUpload, func(c *gin.Context, f ez.File) (*service.ListingView, error) {
		return h.svc.UploadImage(c.Request.Context(), mdw.PrincipalFrom(c), c.Param("id"), upload(f))
	})

	ez.RegisterAction(e, ez.Action[domain.ListingQuery, listingPage]{
		Method: http.MethodGet, Path: "/me/listings", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *domain.ListingQuery) (listingPage, error) {
			return h.svc.ListMine(c.Request.Context(), mdw.PrincipalFrom(c), *in)
		},
	})
}

func (h *ListingHandler) MountAdmin(g *gin.RouterGroup) {
	e := ez.New(g, h.log)

	ez.RegisterAction(e, ez.Action[domain.ListingQuery, listingPage]{
		Method: http.MethodGet, Path: "/listings", Binder: ez.BindQuery,
		Permissions: []access.Permission{access.CarsSeeDetailsAll},
		Handler: func(c *gin.Context, in *domain.ListingQuery) (listingPage, error) {
			return h.svc.List(c.Request.Context(), mdw.PrincipalFrom(c), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *service.ListingView]{
		Method: http.MethodPost, Path: "/listings/:id/validate", Binder: ez.BindNone,
		Permissions: []access.Permission{access.AdsValidate},
		Handler: func(c *gin.Context, _ *struct{}) (*service.ListingView, error) {
			return h.svc.Validate(c.Request.Context(), mdw.PrincipalFrom(c), c.Param("id"))
		},
	})
}

func upload(f ez.File) service.Upload {
	return service.Upload{
		Filename:    f.Header.Filename,
		ContentType: f.ContentType(),
		Size:        f.Header.Size,
		Body:        f.Body,
	}
}
