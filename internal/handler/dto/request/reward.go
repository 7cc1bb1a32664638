package request

import "github.com/google/uuid"

type RedeemGiftRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

type ClaimReferralRequest struct {
	Code string `json:"code" binding:"required,max=64"`
}

type ShopPurchaseRequest struct {
	ItemID   uuid.UUID `json:"itemId" binding:"required"`
	Quantity int64     `json:"quantity" binding:"omitempty,min=1,max=100"`
}

func (r ShopPurchaseRequest) GetQuantity() int64 {
	if r.Quantity == 0 {
		return 1
	}
	return r.Quantity
}
