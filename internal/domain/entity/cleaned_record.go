package entity

import "time"

// Species categories
const (
	CategoryBirds      = "birds"
	CategoryMammals    = "mammals"
	CategoryReptiles   = "reptiles"
	CategoryAmphibians = "amphibians"
	CategoryUnknown    = "unknown"
)

// Validation statuses of a cleaned record
const (
	ValidationPending   = "pending"
	ValidationConfirmed = "confirmed"
	ValidationRejected  = "rejected"
)

// Placeholders written by the transformer for missing values
const (
	UnknownLocation   = "Ubicación desconocida"
	AnonymousObserver = "Anónimo"
)

// CleanedRecord is a RawRecord that passed transformation and validation
type CleanedRecord struct {
	ID               uint      `json:"id,omitempty" csv:"id,omitempty"`
	RawID            uint      `json:"raw_id" csv:"raw_id"`
	SpeciesName      string    `json:"species_name" csv:"species_name"`
	SpeciesCategory  string    `json:"species_category" csv:"species_category"`
	Location         string    `json:"location" csv:"location"`
	Latitude         float64   `json:"latitude" csv:"latitude"`
	Longitude        float64   `json:"longitude" csv:"longitude"`
	SightingDate     time.Time `json:"sighting_date" csv:"sighting_date"`
	ObserverName     string    `json:"observer_name" csv:"observer_name"`
	ObserverEmail    *string   `json:"observer_email" csv:"observer_email,omitempty"`
	Description      *string   `json:"description" csv:"description,omitempty"`
	PhotoURL         *string   `json:"photo_url" csv:"photo_url,omitempty"`
	ValidationStatus string    `json:"validation_status" csv:"validation_status"`
	DataQualityScore float64   `json:"data_quality_score" csv:"data_quality_score"`
	ProcessedAt      time.Time `json:"processed_at" csv:"processed_at"`
}
