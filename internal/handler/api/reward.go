package api

import (
	"net/http"

	reqdto "hostdash/internal/handler/dto/request"
	resdto "hostdash/internal/handler/dto/response"
	"hostdash/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	cmds commands.RewardCommands
}

func NewRewardHandler(cmds commands.RewardCommands) *RewardHandler {
	return &RewardHandler{cmds: cmds}
}

// @Summary Redeem gift code
// @Tags rewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.RedeemGiftRequest true "Gift code"
// @Success 200 {object} resdto.RewardResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /gifts/redeem [post]
func (h *RewardHandler) RedeemGift(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req reqdto.RedeemGiftRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.cmds.RedeemGift(c.Request.Context(), principal, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromRewardResult(result))
}

// @Summary Claim referral
// @Description Reward both the caller and the owner of the referral code, once per caller
// @Tags rewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.ClaimReferralRequest true "Referral code"
// @Success 200 {object} resdto.RewardResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /referrals/claim [post]
func (h *RewardHandler) ClaimReferral(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req reqdto.ClaimReferralRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.cmds.ClaimReferral(c.Request.Context(), principal, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromRewardResult(result))
}

// @Summary Purchase shop item
// @Description Spend coins on one-off resources
// @Tags rewards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.ShopPurchaseRequest true "Shop purchase"
// @Success 201 {object} resdto.RewardResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /shop/purchases [post]
func (h *RewardHandler) PurchaseShopItem(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req reqdto.ShopPurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.cmds.PurchaseShopItem(c.Request.Context(), principal, req.ItemID, req.GetQuantity())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromRewardResult(result))
}
