package usecase

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/internal/domain/taxonomy"
	"ecovision-etl/pkg/utils"
)

// Rejection reasons reported for records that do not reach the cleaned set
const (
	ReasonTransformFailed  = "Transformación fallida"
	ReasonValidationFailed = "Validación fallida"
)

const (
	maxDescriptionLength = 1000
	coordinateDecimals   = 6
	qualityMaxPoints     = 10.0
	recentSightingDays   = 30
)

// Geofence is an inclusive latitude/longitude bounding box
type Geofence struct {
	LatMin, LatMax float64
	LngMin, LngMax float64
}

// CostaRicaGeofence approximates the national territory
var CostaRicaGeofence = Geofence{LatMin: 8.0, LatMax: 11.5, LngMin: -87.0, LngMax: -82.5}

// Contains reports whether the point lies inside the box
func (g Geofence) Contains(lat, lng float64) bool {
	return g.LatMin <= lat && lat <= g.LatMax && g.LngMin <= lng && lng <= g.LngMax
}

// RejectionError is returned by Clean when a record cannot be normalized
type RejectionError struct {
	Field  string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Field, e.Reason)
}

func reject(field, format string, args ...interface{}) *RejectionError {
	return &RejectionError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Transformer cleans, validates and scores single raw records. It holds no
// mutable state and is safe for concurrent use.
type Transformer struct {
	taxonomy *taxonomy.Taxonomy
	geofence Geofence
	location *time.Location
}

// NewTransformer creates a transformer. Dates submitted without an offset
// are read in loc.
func NewTransformer(tax *taxonomy.Taxonomy, geofence Geofence, loc *time.Location) *Transformer {
	if loc == nil {
		loc = time.Local
	}
	return &Transformer{
		taxonomy: tax,
		geofence: geofence,
		location: loc,
	}
}

// Process runs clean, validate and score for one record. A non-nil
// Rejection means the record was not accepted; panics are recovered and
// reported as a rejection.
func (t *Transformer) Process(raw *entity.RawRecord, now time.Time) (rec *entity.CleanedRecord, rejection *entity.Rejection) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			rejection = &entity.Rejection{
				RawID:  raw.ID,
				Reason: fmt.Sprintf("error transforming record %d: %v", raw.ID, r),
			}
		}
	}()

	cleaned, err := t.Clean(raw, now)
	if err != nil {
		return nil, &entity.Rejection{RawID: raw.ID, Reason: ReasonTransformFailed}
	}
	if !t.Validate(cleaned) {
		return nil, &entity.Rejection{RawID: raw.ID, Reason: ReasonValidationFailed}
	}
	cleaned.DataQualityScore = t.Score(cleaned)
	return cleaned, nil
}

// Clean normalizes a raw record. It fails fast on the first rejected field.
func (t *Transformer) Clean(raw *entity.RawRecord, now time.Time) (*entity.CleanedRecord, error) {
	name := strings.TrimSpace(raw.SpeciesName)
	switch strings.ToLower(name) {
	case "", "null", "none":
		return nil, reject("species_name", "empty value %q", raw.SpeciesName)
	}

	lat, err := utils.ParseCoordinate(raw.Latitude)
	if err != nil {
		return nil, reject("latitude", "%v", err)
	}
	lng, err := utils.ParseCoordinate(raw.Longitude)
	if err != nil {
		return nil, reject("longitude", "%v", err)
	}
	if !t.geofence.Contains(lat, lng) {
		return nil, reject("coordinates", "(%f, %f) outside geofence", lat, lng)
	}

	cleaned := &entity.CleanedRecord{
		RawID:            raw.ID,
		SpeciesName:      t.NormalizeName(name),
		SpeciesCategory:  t.taxonomy.Categorize(name),
		Location:         strings.TrimSpace(raw.Location),
		Latitude:         utils.Round(lat, coordinateDecimals),
		Longitude:        utils.Round(lng, coordinateDecimals),
		SightingDate:     t.resolveDate(raw.SightingDate, now),
		ObserverName:     strings.TrimSpace(raw.ObserverName),
		ValidationStatus: entity.ValidationPending,
		ProcessedAt:      now,
	}
	if cleaned.Location == "" {
		cleaned.Location = entity.UnknownLocation
	}
	if cleaned.ObserverName == "" {
		cleaned.ObserverName = entity.AnonymousObserver
	}

	if raw.ObserverEmail != nil && utils.IsValidEmail(*raw.ObserverEmail) {
		cleaned.ObserverEmail = utils.StringPtr(strings.ToLower(strings.TrimSpace(*raw.ObserverEmail)))
	}
	if raw.Description != nil {
		if d := strings.TrimSpace(*raw.Description); d != "" {
			cleaned.Description = utils.StringPtr(utils.Truncate(d, maxDescriptionLength))
		}
	}
	if raw.PhotoURL != nil && utils.IsValidURL(*raw.PhotoURL) {
		cleaned.PhotoURL = utils.StringPtr(strings.TrimSpace(*raw.PhotoURL))
	}

	return cleaned, nil
}

// NormalizeName collapses whitespace and applies the canonical spelling,
// falling back to title case. Applying it twice yields the same string.
func (t *Transformer) NormalizeName(name string) string {
	collapsed := utils.CollapseWhitespace(name)
	if canonical, ok := t.taxonomy.Canonical(collapsed); ok {
		return canonical
	}
	return utils.TitleCase(collapsed)
}

// resolveDate passes resolved times through and parses text leniently:
// unparsable text becomes the processing time. A missing date stays zero.
func (t *Transformer) resolveDate(ts entity.RawTimestamp, now time.Time) time.Time {
	if ts.Time != nil {
		return *ts.Time
	}
	if ts.Text == "" {
		return time.Time{}
	}
	parsed, err := utils.ParseISOTime(ts.Text, t.location)
	if err != nil {
		return now
	}
	return parsed
}

// Validate checks the required fields of a cleaned record
func (t *Transformer) Validate(rec *entity.CleanedRecord) bool {
	if rec == nil {
		return false
	}
	if strings.TrimSpace(rec.SpeciesName) == "" ||
		strings.TrimSpace(rec.Location) == "" ||
		strings.TrimSpace(rec.ObserverName) == "" {
		return false
	}
	if math.IsNaN(rec.Latitude) || math.IsInf(rec.Latitude, 0) ||
		math.IsNaN(rec.Longitude) || math.IsInf(rec.Longitude, 0) {
		return false
	}
	return !rec.SightingDate.IsZero()
}

// Score computes the normalized quality score in [0, 1]. Recency is measured
// against the record's ProcessedAt, so the result depends only on rec.
func (t *Transformer) Score(rec *entity.CleanedRecord) float64 {
	points := 0.0

	if utf8.RuneCountInString(rec.SpeciesName) > 3 {
		points += 2
	}
	if t.geofence.Contains(rec.Latitude, rec.Longitude) {
		points += 2
	}
	if rec.ObserverName != "" && rec.ObserverName != entity.AnonymousObserver {
		points++
	}
	if rec.ObserverEmail != nil {
		points++
	}
	if rec.Description != nil && utf8.RuneCountInString(*rec.Description) > 10 {
		points++
	}
	if rec.PhotoURL != nil {
		points++
	}
	if !rec.SightingDate.IsZero() {
		daysAgo := math.Floor(rec.ProcessedAt.Sub(rec.SightingDate).Hours() / 24)
		if daysAgo <= recentSightingDays {
			points++
		}
	}
	if rec.SpeciesCategory != "" && rec.SpeciesCategory != entity.CategoryUnknown {
		points++
	}

	return utils.Round(points/qualityMaxPoints, 2)
}
