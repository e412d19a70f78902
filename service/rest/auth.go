package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/ideatoapp/chatgateway/logger"
	"github.com/ideatoapp/chatgateway/storage"
	"github.com/ideatoapp/chatgateway/tools/errs"
	"github.com/ideatoapp/chatgateway/tools/security"
)

// AuthAPI issues the tokens the gateway's auth gate verifies.
type AuthAPI struct {
	store storage.AccountStore
	jwt   security.Options
}

func NewAuthAPI(store storage.AccountStore, jwt security.Options) *AuthAPI {
	return &AuthAPI{store: store, jwt: jwt}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *AuthAPI) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation.WithDetail(err.Error()))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}

	user, err := a.store.CreateUser(c.Request.Context(), req.Username, req.Email, string(hash))
	if err != nil {
		if errs.ErrRecordExists.Is(err) {
			c.JSON(http.StatusBadRequest, errs.ErrRecordExists.WithDetail("username or email already taken"))
			return
		}
		logger.Errorf("[auth] create user email=%s err=%v", req.Email, err)
		c.JSON(http.StatusInternalServerError, errs.ErrPersistence)
		return
	}

	token, expireAt, err := security.Generate(a.jwt, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user":      user,
		"token":     token,
		"expiresAt": expireAt,
	})
}

func (a *AuthAPI) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation.WithDetail(err.Error()))
		return
	}

	user, hash, err := a.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, errs.ErrAuthFailed)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, errs.ErrAuthFailed)
		return
	}

	token, expireAt, err := security.Generate(a.jwt, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      user,
		"token":     token,
		"expiresAt": expireAt,
	})
}
