package handler

import (
	"errors"
	"strconv"

	"deposit-core/internal/handler/response"
	"deposit-core/internal/service/deposit"
	"deposit-core/pkg/errno"
	"deposit-core/pkg/ethtext"

	"github.com/gin-gonic/gin"
)

const defaultPageSize = 50

type DepositHandler struct {
	store DepositReader
}

func NewDepositHandler(store DepositReader) *DepositHandler {
	return &DepositHandler{store: store}
}

// GetByTxHash looks a deposit up by its transaction hash.
func (h *DepositHandler) GetByTxHash(c *gin.Context) {
	txHash := ethtext.NormalizeTxHash(c.Param("tx_hash"))
	if !ethtext.IsValidTxHash(txHash) {
		response.Error(c, errno.ErrInvalidTxHash)
		return
	}

	d, err := h.store.GetByTxHash(c.Request.Context(), txHash)
	if err != nil {
		if errors.Is(err, deposit.ErrNotFound) {
			response.Error(c, errno.ErrDepositNotFound)
			return
		}
		response.Error(c, errno.ErrDatabase)
		return
	}
	response.Success(c, d)
}

// ListByWallet pages a wallet's deposits, newest first.
func (h *DepositHandler) ListByWallet(c *gin.Context) {
	walletID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, errno.ErrBind.WithMessage("id must be an integer"))
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = defaultPageSize
	}

	deposits, err := h.store.ListByWallet(c.Request.Context(), walletID, offset, limit)
	if err != nil {
		response.Error(c, errno.ErrDatabase)
		return
	}
	response.Success(c, gin.H{
		"deposits": deposits,
		"offset":   offset,
		"limit":    limit,
	})
}
