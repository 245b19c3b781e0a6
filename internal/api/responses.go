package api

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// DataResponse wraps list and balance payloads.
type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// ShortfallResponse is the 402 body for a refused credit deduction.
type ShortfallResponse struct {
	Error                 string `json:"error"`
	Required              int    `json:"required"`
	BonusCredits          int    `json:"bonus_credits"`
	SubscriptionRemaining int    `json:"subscription_remaining"`
}

// LimitResponse is the 403 body for a refused document creation.
type LimitResponse struct {
	Error                 string `json:"error"`
	Resource              string `json:"resource"`
	Limit                 *int   `json:"limit"`
	Current               int    `json:"current"`
	BonusCredits          int    `json:"bonus_credits"`
	SubscriptionRemaining int    `json:"subscription_remaining"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// PageResponse is a DataResponse with paging metadata for admin listings.
type PageResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
