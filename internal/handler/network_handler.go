package handler

import (
	"errors"

	"deposit-core/internal/handler/request"
	"deposit-core/internal/handler/response"
	"deposit-core/internal/model"
	"deposit-core/internal/service/registry"
	"deposit-core/pkg/errno"
	"deposit-core/pkg/validator"

	"github.com/gin-gonic/gin"
)

type NetworkHandler struct {
	reg Registry
}

func NewNetworkHandler(reg Registry) *NetworkHandler {
	return &NetworkHandler{reg: reg}
}

// Create registers a blockchain network.
func (h *NetworkHandler) Create(c *gin.Context) {
	var req request.CreateNetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}

	n := &model.BlockchainNetwork{
		Name:                  req.Name,
		ChainID:               req.ChainID,
		RpcUrl:                req.RpcUrl,
		WsUrl:                 req.WsUrl,
		ConfirmationsRequired: req.ConfirmationsRequired,
		BlockTime:             req.BlockTime,
		IsActive:              true,
	}
	if n.ConfirmationsRequired == 0 {
		n.ConfirmationsRequired = 12
	}

	if err := h.reg.CreateNetwork(c.Request.Context(), n); err != nil {
		response.Error(c, errno.ErrDatabase)
		return
	}
	response.Success(c, n)
}

// List returns all registered networks.
func (h *NetworkHandler) List(c *gin.Context) {
	networks, err := h.reg.ListNetworks(c.Request.Context())
	if err != nil {
		response.Error(c, errno.ErrDatabase)
		return
	}
	response.Success(c, networks)
}

func decodeRegistryErr(err error) error {
	switch {
	case errors.Is(err, registry.ErrInvalidAddress):
		return errno.ErrInvalidAddress
	case errors.Is(err, registry.ErrUserNotFound):
		return errno.ErrUserNotFound
	case errors.Is(err, registry.ErrUserExists):
		return errno.ErrUserExists
	case errors.Is(err, registry.ErrNetworkNotFound):
		return errno.ErrNetworkNotFound
	case errors.Is(err, registry.ErrWalletExists):
		return errno.ErrWalletExists
	case errors.Is(err, registry.ErrWalletNotFound):
		return errno.ErrWalletNotFound
	default:
		return errno.ErrDatabase
	}
}
