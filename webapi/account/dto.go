package account

// CreateAccountRequest is the body of POST /api/accounts.
type CreateAccountRequest struct {
	Type     string `json:"type" validate:"required,oneof=CHECKING SAVINGS DEPOSIT"`
	Currency string `json:"currency" validate:"required,oneof=RUB USD EUR"`
}

// UpdateStatusRequest is the body of PATCH /api/accounts/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListQuery holds the optional filters of GET /api/accounts.
type ListQuery struct {
	Type     string `query:"type" json:"type" validate:"omitempty,oneof=CHECKING SAVINGS DEPOSIT"`
	Currency string `query:"currency" json:"currency" validate:"omitempty,oneof=RUB USD EUR"`
	Status   string `query:"status" json:"status" validate:"omitempty,oneof=ACTIVE BLOCKED CLOSED"`
}

type BalanceResponse struct {
	AccountID string `json:"accountId"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
}

type TotalBalanceResponse struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
	Accounts int    `json:"accounts"`
}

type CloseResponse struct {
	Message   string `json:"message"`
	AccountID string `json:"accountId"`
}
