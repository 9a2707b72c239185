package handler

import (
	"strconv"

	"deposit-core/internal/handler/request"
	"deposit-core/internal/handler/response"
	"deposit-core/internal/model"
	"deposit-core/pkg/errno"
	"deposit-core/pkg/validator"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	reg Registry
}

func NewWalletHandler(reg Registry) *WalletHandler {
	return &WalletHandler{reg: reg}
}

// Register puts an address under monitoring. The engine picks it up at the
// next snapshot refresh, not immediately.
func (h *WalletHandler) Register(c *gin.Context) {
	var req request.RegisterWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}

	w := &model.Wallet{
		UserID:              req.UserID,
		Address:             req.Address,
		BlockchainNetworkID: req.BlockchainNetworkID,
		Label:               req.Label,
		IsActive:            true,
	}

	if err := h.reg.RegisterWallet(c.Request.Context(), w); err != nil {
		response.Error(c, decodeRegistryErr(err))
		return
	}
	response.Success(c, w)
}

// List returns registered wallets, optionally filtered by ?user_id=.
func (h *WalletHandler) List(c *gin.Context) {
	var userID uint64
	if raw := c.Query("user_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.Error(c, errno.ErrBind.WithMessage("user_id must be an integer"))
			return
		}
		userID = parsed
	}

	wallets, err := h.reg.ListWallets(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, errno.ErrDatabase)
		return
	}
	response.Success(c, wallets)
}

// Get returns one wallet by id.
func (h *WalletHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, errno.ErrBind.WithMessage("id must be an integer"))
		return
	}

	w, err := h.reg.GetWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, decodeRegistryErr(err))
		return
	}
	response.Success(c, w)
}
