package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auto-ria-clone/internal/access"
	"auto-ria-clone/internal/core/auth"
	"auto-ria-clone/internal/domain"
	"auto-ria-clone/internal/service"
	"auto-ria-clone/internal/transport/http/ez"
	mdw "auto-ria-clone/internal/transport/http/middleware"
)

// HeaderBootstrapKey authorizes the one-time admin bootstrap.
const HeaderBootstrapKey = "X-Bootstrap-Key"

type UserHandler struct {
	auth      *service.AuthService
	users     *service.UserService
	mediaBase string
	maxUpload int64
	log       *zap.Logger
}

func NewUserHandler(a *service.AuthService, u *service.UserService, mediaBaseURL string, maxUploadBytes int64, l *zap.Logger) *UserHandler {
	return &UserHandler{auth: a, users: u, mediaBase: strings.TrimRight(mediaBaseURL, "/"), maxUpload: maxUploadBytes, log: l}
}

func (h *UserHandler) Priority() int { return 10 }

// userView exposes the avatar as an absolute URL instead of the object key.
type userView struct {
	*domain.User
	Avatar *string `json:"avatar"`
}

func (h *UserHandler) view(u *domain.User, err error) (*userView, error) {
	if err != nil {
		return nil, err
	}
	v := &userView{User: u}
	if u.Avatar != "" {
		url := h.mediaBase + "/" + u.Avatar
		v.Avatar = &url
	}
	return v, nil
}

type sessionView struct {
	auth.Pair
	User *userView `json:"user"`
}

type verifyQuery struct {
	Token string `form:"token" binding:"required"`
}

type done struct {
	OK bool `json:"ok"`
}

func (h *UserHandler) session(s *service.Session, err error) (*sessionView, error) {
	if err != nil {
		return nil, err
	}
	u, _ := h.view(s.User, nil)
	return &sessionView{Pair: s.Pair, User: u}, nil
}

func (h *UserHandler) signIn(c *gin.Context, in *service.SignInInput) (*sessionView, error) {
	return h.session(h.auth.SignIn(c.Request.Context(), *in))
}

func (h *UserHandler) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g, h.log)

	ez.RegisterAction(e, ez.Action[service.SignUpInput, *userView]{
		Method: http.MethodPost, Path: "/auth/sign-up", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.SignUpInput) (*userView, error) {
			return h.view(h.auth.SignUp(c.Request.Context(), *in))
		},
	})

	ez.RegisterAction(e, ez.Action[service.SignInInput, *sessionView]{
		Method: http.MethodPost, Path: "/auth/sign-in", Binder: ez.BindJSON,
		Handler: h.signIn,
	})

	ez.RegisterAction(e, ez.Action[service.RefreshInput, *sessionView]{
		Method: http.MethodPost, Path: "/auth/refresh", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.RefreshInput) (*sessionView, error) {
			return h.session(h.auth.Refresh(c.Request.Context(), in.RefreshToken))
		},
	})

	ez.RegisterAction(e, ez.Action[service.RefreshInput, done]{
		Method: http.MethodPost, Path: "/auth/logout", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.RefreshInput) (done, error) {
			err := h.auth.Logout(c.Request.Context(), in.RefreshToken)
			return done{OK: err == nil}, err
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, done]{
		Method: http.MethodPost, Path: "/auth/logout-all", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (done, error) {
			err := h.auth.LogoutAll(c.Request.Context(), mdw.PrincipalFrom(c))
			return done{OK: err == nil}, err
		},
	})

	ez.RegisterAction(e, ez.Action[service.ForgotPasswordInput, done]{
		Method: http.MethodPost, Path: "/auth/forgot-password", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.ForgotPasswordInput) (done, error) {
			err := h.auth.ForgotPassword(c.Request.Context(), *in)
			return done{OK: err == nil}, err
		},
	})

	ez.RegisterAction(e, ez.Action[service.ResetPasswordInput, done]{
		Method: http.MethodPut, Path: "/auth/forgot-password", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.ResetPasswordInput) (done, error) {
			err := h.auth.ResetPassword(c.Request.Context(), *in)
			return done{OK: err == nil}, err
		},
	})

	ez.RegisterAction(e, ez.Action[verifyQuery, done]{
		Method: http.MethodGet, Path: "/auth/verify", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *verifyQuery) (done, error) {
			err := h.auth.Verify(c.Request.Context(), in.Token)
			return done{OK: err == nil}, err
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *userView]{
		Method: http.MethodGet, Path: "/me", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (*userView, error) {
			return h.view(h.users.Me(c.Request.Context(), mdw.PrincipalFrom(c)))
		},
	})

	ez.RegisterAction(e, ez.Action[service.UpdateMeInput, *userView]{
		Method: http.MethodPatch, Path: "/me", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *service.UpdateMeInput) (*userView, error) {
			return h.view(h.users.UpdateMe(c.Request.Context(), mdw.PrincipalFrom(c), *in))
		},
	})

	ez.RegisterAction(e, ez.Action[service.ChangePasswordInput, done]{
		Method: http.MethodPost, Path: "/me/password", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *service.ChangePasswordInput) (done, error) {
			err := h.auth.ChangePassword(c.Request.Context(), mdw.PrincipalFrom(c), *in)
			return done{OK: err == nil}, err
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *userView]{
		Method: http.MethodPost, Path: "/me/premium", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (*userView, error) {
			return h.view(h.users.BuyPremium(c.Request.Context(), mdw.PrincipalFrom(c)))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *userView]{
		Method: http.MethodPost, Path: "/me/seller", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (*userView, error) {
			return h.view(h.users.BecomeSeller(c.Request.Context(), mdw.PrincipalFrom(c)))
		},
	})

	ez.POSTFILE(e, "/me/avatar", "avatar", h.maxUpload, func(c *gin.Context, f ez.File) (*userView, error) {
		return h.view(h.users.UploadAvatar(c.Request.Context(), mdw.PrincipalFrom(c), upload(f)))
	})

	ez.RegisterAction(e, ez.Action[struct{}, *userView]{
		Method: http.MethodDelete, Path: "/me/avatar", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (*userView, error) {
			return h.view(h.users.DeleteAvatar(c.Request.Context(), mdw.PrincipalFrom(c)))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *userView]{
		Method: http.MethodGet, Path: "/users/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (*userView, error) {
			return h.view(h.users.GetByID(c.Request.Context(), mdw.PrincipalFrom(c), c.Param("id")))
		},
	})
}

func (h *UserHandler) MountAdmin(g *gin.RouterGroup) {
	e := ez.New(g, h.log)

	ez.RegisterAction(e, ez.Action[domain.UserQuery, service.Page[domain.User]]{
		Method: http.MethodGet, Path: "/users", Binder: ez.BindQuery,
		Permissions: []access.Permission{access.UsersGetAll},
		Handler: func(c *gin.Context, in *domain.UserQuery) (service.Page[domain.User], error) {
			return h.users.List(c.Request.Context(), mdw.PrincipalFrom(c), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *userView]{
		Method: http.MethodGet, Path: "/users/:id", Binder: ez.BindNone,
		Permissions: []access.Permission{access.UsersGetDetails},
		Handler: func(c *gin.Context, _ *struct{}) (*userView, error) {
			return h.view(h.users.GetByID(c.Request.Context(), mdw.PrincipalFrom(c), c.Param("id")))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *userView]{
		Method: http.MethodPost, Path: "/users/:id/ban", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (*userView, error) {
			return h.view(h.users.Ban(c.Request.Context(), mdw.PrincipalFrom(c), c.Param("id")))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, *userView]{
		Method: http.MethodPost, Path: "/users/:id/unban", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (*userView, error) {
			return h.view(h.users.Unban(c.Request.Context(), mdw.PrincipalFrom(c), c.Param("id")))
		},
	})

	ez.RegisterAction(e, ez.Action[service.ChangeRoleInput, *userView]{
		Method: http.MethodPut, Path: "/users/:id/role", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *service.ChangeRoleInput) (*userView, error) {
			return h.view(h.users.ChangeRole(c.Request.Context(), mdw.PrincipalFrom(c), c.Param("id"), *in))
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, deleted]{
		Method: http.MethodDelete, Path: "/users/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (deleted, error) {
			id := c.Param("id")
			return deleted{ID: id}, h.users.Delete(c.Request.Context(), mdw.PrincipalFrom(c), id)
		},
	})

	ez.RegisterAction(e, ez.Action[service.SignUpInput, *userView]{
		Method: http.MethodPost, Path: "/managers", Binder: ez.BindJSON,
		Permissions: []access.Permission{access.UsersCreateManager},
		Handler: func(c *gin.Context, in *service.SignUpInput) (*userView, error) {
			return h.view(h.users.CreateManager(c.Request.Context(), mdw.PrincipalFrom(c), *in))
		},
	})
}

// MountAdminPublic serves the unauthenticated part of the staff API.
func (h *UserHandler) MountAdminPublic(g *gin.RouterGroup) {
	e := ez.New(g, h.log)

	ez.RegisterAction(e, ez.Action[service.SignUpInput, *userView]{
		Method: http.MethodPost, Path: "/bootstrap", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *service.SignUpInput) (*userView, error) {
			return h.view(h.auth.BootstrapAdmin(c.Request.Context(), c.GetHeader(HeaderBootstrapKey), *in))
		},
	})

	ez.RegisterAction(e, ez.Action[service.SignInInput, *sessionView]{
		Method: http.MethodPost, Path: "/auth/sign-in", Binder: ez.BindJSON,
		Handler: h.signIn,
	})
}
