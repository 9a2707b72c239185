package handler

import (
	"deposit-core/internal/handler/request"
	"deposit-core/internal/handler/response"
	"deposit-core/internal/model"
	"deposit-core/pkg/errno"
	"deposit-core/pkg/validator"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	reg Registry
}

func NewUserHandler(reg Registry) *UserHandler {
	return &UserHandler{reg: reg}
}

// Create registers a wallet owner. Wallets reference a user, so this is the
// first step of putting an address under monitoring.
func (h *UserHandler) Create(c *gin.Context) {
	var req request.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}

	u := &model.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := h.reg.CreateUser(c.Request.Context(), u); err != nil {
		response.Error(c, decodeRegistryErr(err))
		return
	}
	response.Success(c, u)
}

// List returns all registered users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.reg.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, errno.ErrDatabase)
		return
	}
	response.Success(c, users)
}
