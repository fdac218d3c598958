package storefront

import "encoding/json"

type ConnectRequest struct {
	BaseURL        string `json:"baseUrl"`
	StoreName      string `json:"storeName"`
	ConsumerKey    string `json:"consumerKey"`
	ConsumerSecret string `json:"consumerSecret"`
}

type ConnectionResponse struct {
	Status    string `json:"status"`
	BaseURL   string `json:"baseUrl"`
	StoreName string `json:"storeName"`
}

type StatusResponse struct {
	Connection        ConnectionResponse `json:"connection"`
	LastSyncAt        *string            `json:"lastSyncAt"`
	LastSuccessSyncAt *string            `json:"lastSuccessSyncAt"`
}

// SyncRequest drives a single-day resync. When raw credentials are supplied
// they take precedence over the stored connection, so a business can sync
// before (or without) saving a connection row.
type SyncRequest struct {
	Date           string `json:"date" binding:"required"`
	BaseURL        string `json:"baseUrl"`
	ConsumerKey    string `json:"consumerKey"`
	ConsumerSecret string `json:"consumerSecret"`
}

type TriggerRangeSyncRequest struct {
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

type SyncRunResponse struct {
	ID           uint    `json:"id"`
	Status       string  `json:"status"`
	TriggeredBy  string  `json:"triggeredBy"`
	RangeStart   string  `json:"rangeStart"`
	RangeEnd     string  `json:"rangeEnd"`
	DatesTotal   int     `json:"datesTotal"`
	DatesSynced  int     `json:"datesSynced"`
	OrdersSynced int     `json:"ordersSynced"`
	ErrorCount   int     `json:"errorCount"`
	StartedAt    *string `json:"startedAt"`
	FinishedAt   *string `json:"finishedAt"`
	DurationMs   int64   `json:"durationMs"`
}

type SyncHistoryResponse struct {
	Items []SyncRunResponse `json:"items"`
}

type SyncRunDetailResponse struct {
	SyncRunResponse
	Errors []SyncErrorResponse `json:"errors"`
}

type SyncErrorResponse struct {
	ID        uint   `json:"id"`
	SyncDate  string `json:"syncDate"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// VariationPriceItem is one entry in a bulk price update.
type VariationPriceItem struct {
	ProductId   int64       `json:"productId"`
	VariationId int64       `json:"variationId"`
	Name        string      `json:"name"`
	Price       json.Number `json:"price"`
}

type UpdatePricesRequest struct {
	Items []VariationPriceItem `json:"items"`
}

// UpdatePricesResponse always reports counts, never an all-or-nothing flag.
type UpdatePricesResponse struct {
	Message string   `json:"message"`
	Updated int      `json:"updated"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type SyncRunPayload struct {
	RunId      uint   `json:"run_id"`
	BusinessId string `json:"business_id"`
}
