package dto

import "github.com/google/uuid"

// RecordViewResponse returns the id linking the Tier-1 and Tier-2 records.
type RecordViewResponse struct {
	ViewID string `json:"view_id"`
}

// MapViewIDToResponse converts a view id to an API response.
func MapViewIDToResponse(viewID uuid.UUID) RecordViewResponse {
	return RecordViewResponse{ViewID: viewID.String()}
}
