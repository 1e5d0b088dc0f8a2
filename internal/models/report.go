package models

import "time"

// Profile identifies the person who lost an item
type Profile struct {
	FullName      string `json:"full_name" binding:"required"`
	SectionYear   string `json:"section_year" binding:"required"`
	ContactNumber string `json:"contact_number" binding:"required"`
}

// LostItemReport is a report filed by an owner
type LostItemReport struct {
	ID                string    `json:"id"`
	Profile           Profile   `json:"profile"`
	ItemName          string    `json:"item_name"`
	DateLost          string    `json:"date_lost"`
	LastKnownLocation string    `json:"last_known_location"`
	Description       string    `json:"description"`
	Image             string    `json:"image"` // data URI or http(s) URL
	CreatedAt         time.Time `json:"created_at"`
}

// FoundItemReport is a report filed by a finder
type FoundItemReport struct {
	ID            string    `json:"id"`
	ItemName      string    `json:"item_name"`
	Image         string    `json:"image"` // data URI or http(s) URL
	Description   string    `json:"description"`
	LocationFound string    `json:"location_found"`
	DateFound     string    `json:"date_found"`
	FinderName    string    `json:"finder_name,omitempty"`
	FinderContact string    `json:"finder_contact,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MatchResult is a single validated candidate returned by the oracle
type MatchResult struct {
	ID         string  `json:"id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ConfidenceBand buckets a confidence score for presentation
type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "high"
	BandMedium ConfidenceBand = "medium"
	BandLow    ConfidenceBand = "low"
)

// ScoredMatch is a lost item joined with its oracle score. Never persisted.
type ScoredMatch struct {
	LostItemReport
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
	Band       ConfidenceBand `json:"band"`
}

// CreateLostItemRequest is the intake payload for a lost item
type CreateLostItemRequest struct {
	Profile           Profile `json:"profile" binding:"required"`
	ItemName          string  `json:"item_name" binding:"required"`
	DateLost          string  `json:"date_lost" binding:"required"`
	LastKnownLocation string  `json:"last_known_location" binding:"required"`
	Description       string  `json:"description" binding:"required"`
	Image             string  `json:"image" binding:"required"`
}

// CreateFoundItemRequest is the intake payload for a found item
type CreateFoundItemRequest struct {
	ItemName      string `json:"item_name" binding:"required"`
	Image         string `json:"image" binding:"required"`
	Description   string `json:"description" binding:"required"`
	LocationFound string `json:"location_found" binding:"required"`
	DateFound     string `json:"date_found" binding:"required"`
	FinderName    string `json:"finder_name"`
	FinderContact string `json:"finder_contact"`
}

// SelectRequest selects a found item inside a matching session
type SelectRequest struct {
	FoundItemID string `json:"found_item_id" binding:"required"`
	Wait        bool   `json:"wait"`
}

// MatchRun is an audit record of one oracle comparison
type MatchRun struct {
	ID             string    `json:"id" db:"id"`
	SessionID      string    `json:"session_id,omitempty" db:"session_id"`
	FoundItemID    string    `json:"found_item_id" db:"found_item_id"`
	CandidateCount int       `json:"candidate_count" db:"candidate_count"`
	MatchCount     int       `json:"match_count" db:"match_count"`
	DegradedImages int       `json:"degraded_images" db:"degraded_images"`
	Provider       string    `json:"provider" db:"provider"`
	ModelVersion   string    `json:"model_version,omitempty" db:"model_version"`
	Status         string    `json:"status" db:"status"` // "ok", "empty", "failed", "cancelled", "no_candidates"
	ErrorMessage   string    `json:"error_message,omitempty" db:"error_message"`
	DurationMillis int64     `json:"duration_ms" db:"duration_ms"`
	StartedAt      time.Time `json:"started_at" db:"started_at"`
}

// Notification records an acknowledged "notify owner" action
type Notification struct {
	ID           int64     `json:"id" db:"id"`
	SessionID    string    `json:"session_id" db:"session_id"`
	FoundItemID  string    `json:"found_item_id" db:"found_item_id"`
	LostItemID   string    `json:"lost_item_id" db:"lost_item_id"`
	OwnerName    string    `json:"owner_name" db:"owner_name"`
	Message      string    `json:"message" db:"message"`
	Acknowledged time.Time `json:"acknowledged_at" db:"acknowledged_at"`
}
