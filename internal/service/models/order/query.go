package order

import "github.com/google/uuid"

// QueryOrdersModel represents filter parameters for querying orders
type QueryOrdersModel struct {
	Ids     []uuid.UUID `json:"ids,omitempty"`
	UserIds []uuid.UUID `json:"userIds,omitempty"`
	Limit   int         `json:"limit,omitempty"`
	Offset  int         `json:"offset,omitempty"`
}
