package model

import "github.com/google/uuid"

// AccountCode is immutable chart-of-accounts reference data, e.g.
// "5.2.3.1.1.27" with its human-readable name.
type AccountCode struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"hierarchicalCode"`
	Name string    `json:"displayName"`
}

// NotFoundAccountName marks ids the bulk lookup could not resolve. The
// resolver caches these permanently so a missing id is fetched only once.
const NotFoundAccountName = "Data Not Found"

func (a AccountCode) IsNotFound() bool {
	return a.Name == NotFoundAccountName
}
