package request

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/starloop/go-affiliate/models"
	"gorm.io/gorm"
)

// PayPalDetails pays out to a PayPal account.
type PayPalDetails struct {
	Email string `json:"email"`
}

// BankTransferDetails pays out by wire; Details carries the free-form account
// text the finance team needs.
type BankTransferDetails struct {
	Details string `json:"details"`
}

// WalletCreditDetails credits the marketplace wallet of the given user.
type WalletCreditDetails struct {
	WalletRef string `json:"walletRef"`
}

// PayoutDetails is a tagged union: exactly the variant matching the payout
// method must be set.
type PayoutDetails struct {
	PayPal *PayPalDetails       `json:"paypal,omitempty"`
	Bank   *BankTransferDetails `json:"bankTransfer,omitempty"`
	Wallet *WalletCreditDetails `json:"walletCredit,omitempty"`
}

// Validate checks the variant required by method.
func (d PayoutDetails) Validate(method string) error {
	switch method {
	case models.PayoutMethodPayPal:
		if d.PayPal == nil || d.PayPal.Email == "" {
			return fmt.Errorf("paypal payout requires an email address")
		}
		if _, err := mail.ParseAddress(d.PayPal.Email); err != nil {
			return fmt.Errorf("invalid paypal email %q: %w", d.PayPal.Email, err)
		}
	case models.PayoutMethodBankTransfer:
		if d.Bank == nil || strings.TrimSpace(d.Bank.Details) == "" {
			return fmt.Errorf("bank transfer payout requires account details")
		}
	case models.PayoutMethodWalletCredit:
		if d.Wallet == nil || d.Wallet.WalletRef == "" {
			return fmt.Errorf("wallet credit payout requires a wallet reference")
		}
	default:
		return fmt.Errorf("unsupported payout method %q", method)
	}
	return nil
}

// Encode serializes only the variant matching method.
func (d PayoutDetails) Encode(method string) (string, error) {
	var v any
	switch method {
	case models.PayoutMethodPayPal:
		v = d.PayPal
	case models.PayoutMethodBankTransfer:
		v = d.Bank
	case models.PayoutMethodWalletCredit:
		v = d.Wallet
	default:
		return "", fmt.Errorf("unsupported payout method %q", method)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type CreatePayoutRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
	Details PayoutDetails   `json:"details"`
}

type GetPayoutsRequest struct {
	ID                   *uint                `form:"id"`
	AffiliateID          *uint                `form:"affiliateID"`
	Method               *string              `form:"method"`
	Status               *string              `form:"status"`
	Statuses             []string             `form:"statuses"`
	PaginationConditions PaginationConditions `form:"paginationConditions"`
}

func ApplyGetPayoutsRequest(req GetPayoutsRequest, query *gorm.DB) *gorm.DB {
	if req.ID != nil {
		query = query.Where("id = ?", *req.ID)
	}
	if req.AffiliateID != nil {
		query = query.Where("affiliate_id = ?", *req.AffiliateID)
	}
	if req.Method != nil {
		query = query.Where("method = ?", *req.Method)
	}
	if req.Status != nil {
		query = query.Where("status = ?", *req.Status)
	}
	if len(req.Statuses) > 0 {
		query = query.Where("status IN (?)", req.Statuses)
	}
	return query
}
