package model

import "time"

// CandidateStatus is the review state of a scraped facility candidate.
type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateApproved CandidateStatus = "approved"
	CandidateRejected CandidateStatus = "rejected"
)

// Candidate is a scraped facility awaiting admin review.
type Candidate struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Address    string          `json:"address"`
	Pref       string          `json:"pref"`
	City       string          `json:"city"`
	Latitude   *float64        `json:"latitude,omitempty"`
	Longitude  *float64        `json:"longitude,omitempty"`
	SourceURL  string          `json:"source_url,omitempty"`
	Status     CandidateStatus `json:"status"`
	RejectNote string          `json:"reject_note,omitempty"`
	ScrapedAt  time.Time       `json:"scraped_at"`
	ReviewedAt *time.Time      `json:"reviewed_at,omitempty"`
}

// CandidatePatch holds partial edits to a candidate. Nil fields are untouched.
type CandidatePatch struct {
	Name      *string  `json:"name,omitempty"`
	Address   *string  `json:"address,omitempty"`
	Pref      *string  `json:"pref,omitempty"`
	City      *string  `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// CandidateFilter selects candidates for listing.
type CandidateFilter struct {
	Status CandidateStatus `json:"status,omitempty"`
	Page   int             `json:"page,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// CandidatePage is one page of candidates.
type CandidatePage struct {
	Items []Candidate `json:"items"`
	Meta  SearchMeta  `json:"meta"`
}
