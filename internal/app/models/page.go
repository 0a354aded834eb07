package models

// PageInfo describes one page of a listing.
type PageInfo struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
}

// AvatarPage is one page of avatar records plus the total count.
type AvatarPage struct {
	Items    []*Avatar `json:"items"`
	PageInfo PageInfo  `json:"pageInfo"`
}

// StudentPage is one page of students plus the total count.
type StudentPage struct {
	Items    []*Student `json:"items"`
	PageInfo PageInfo   `json:"pageInfo"`
}
