package usecase

import (
	"strings"
	"testing"
	"time"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/internal/domain/taxonomy"
	"ecovision-etl/pkg/utils"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestTransformer(t *testing.T) *Transformer {
	t.Helper()
	tax, err := taxonomy.Default()
	if err != nil {
		t.Fatalf("taxonomy.Default failed: %v", err)
	}
	return NewTransformer(tax, CostaRicaGeofence, time.UTC)
}

func validRaw() *entity.RawRecord {
	return &entity.RawRecord{
		ID:            1,
		SpeciesName:   "Quetzal Resplandeciente",
		Location:      "Monteverde, Costa Rica",
		Latitude:      utils.StringPtr("10.3009"),
		Longitude:     utils.StringPtr("-84.8066"),
		SightingDate:  entity.TimestampOf(testNow.Add(-24 * time.Hour)),
		ObserverName:  "Ana García",
		ObserverEmail: utils.StringPtr("Ana.Garcia@Email.com"),
		Description:   utils.StringPtr("Avistamiento de quetzal macho con plumaje completo"),
		PhotoURL:      utils.StringPtr("https://example.com/quetzal.jpg"),
	}
}

func TestProcessFullRecordScoresOne(t *testing.T) {
	tr := newTestTransformer(t)

	rec, rejection := tr.Process(validRaw(), testNow)
	if rejection != nil {
		t.Fatalf("unexpected rejection: %+v", rejection)
	}
	if rec.SpeciesName != "Quetzal Resplandeciente" || rec.SpeciesCategory != entity.CategoryBirds {
		t.Fatalf("unexpected species: %q / %q", rec.SpeciesName, rec.SpeciesCategory)
	}
	if rec.ObserverEmail == nil || *rec.ObserverEmail != "ana.garcia@email.com" {
		t.Fatalf("email not normalized: %v", rec.ObserverEmail)
	}
	if rec.ValidationStatus != entity.ValidationPending {
		t.Fatalf("expected pending validation status, got %q", rec.ValidationStatus)
	}
	if !rec.ProcessedAt.Equal(testNow) {
		t.Fatalf("processed_at = %v, want %v", rec.ProcessedAt, testNow)
	}
	if rec.DataQualityScore != 1.0 {
		t.Fatalf("score = %v, want 1.0", rec.DataQualityScore)
	}
}

func TestProcessSlothExample(t *testing.T) {
	tr := newTestTransformer(t)

	raw := &entity.RawRecord{
		ID:            2,
		SpeciesName:   "perezoso tres dedos",
		Location:      "Manuel Antonio",
		Latitude:      utils.StringPtr("9.3847"),
		Longitude:     utils.StringPtr("-84.1506"),
		SightingDate:  entity.TimestampOf(testNow.Add(-48 * time.Hour)),
		ObserverName:  "Carlos Méndez",
		ObserverEmail: utils.StringPtr("carlos@invalid-email"),
		Description:   utils.StringPtr("Perezoso descansando en cecropia"),
	}

	rec, rejection := tr.Process(raw, testNow)
	if rejection != nil {
		t.Fatalf("unexpected rejection: %+v", rejection)
	}
	if rec.SpeciesName != "Perezoso De Tres Dedos" {
		t.Fatalf("species_name = %q", rec.SpeciesName)
	}
	if rec.SpeciesCategory != entity.CategoryMammals {
		t.Fatalf("species_category = %q", rec.SpeciesCategory)
	}
	if rec.ObserverEmail != nil {
		t.Fatalf("invalid email should be dropped, got %q", *rec.ObserverEmail)
	}
	if rec.PhotoURL != nil {
		t.Fatal("photo_url should stay empty")
	}
	// name 2 + geofence 2 + observer 1 + description 1 + recent 1 + category 1
	if rec.DataQualityScore != 0.8 {
		t.Fatalf("score = %v, want 0.8", rec.DataQualityScore)
	}
}

func TestProcessRejectsEmptySpeciesName(t *testing.T) {
	tr := newTestTransformer(t)

	for _, name := range []string{"", "   ", "null", "None"} {
		raw := validRaw()
		raw.SpeciesName = name
		rec, rejection := tr.Process(raw, testNow)
		if rec != nil {
			t.Fatalf("record with name %q should not be accepted", name)
		}
		if rejection == nil || rejection.Reason != ReasonTransformFailed || rejection.RawID != raw.ID {
			t.Fatalf("unexpected rejection for %q: %+v", name, rejection)
		}
	}
}

func TestCleanRejectsNonNumericCoordinates(t *testing.T) {
	tr := newTestTransformer(t)

	cases := []struct {
		name     string
		lat, lng *string
	}{
		{"nil latitude", nil, utils.StringPtr("-84.0")},
		{"text latitude", utils.StringPtr("north"), utils.StringPtr("-84.0")},
		{"nil longitude", utils.StringPtr("10.0"), nil},
		{"text longitude", utils.StringPtr("10.0"), utils.StringPtr("far west")},
		{"nan", utils.StringPtr("NaN"), utils.StringPtr("-84.0")},
	}
	for _, tc := range cases {
		raw := validRaw()
		raw.Latitude, raw.Longitude = tc.lat, tc.lng
		rec, err := tr.Clean(raw, testNow)
		if err == nil || rec != nil {
			t.Fatalf("%s: expected rejection, got %+v", tc.name, rec)
		}
		if _, ok := err.(*RejectionError); !ok {
			t.Fatalf("%s: expected *RejectionError, got %T", tc.name, err)
		}
	}
}

func TestCleanEnforcesGeofence(t *testing.T) {
	tr := newTestTransformer(t)

	cases := []struct {
		lat, lng string
		ok       bool
	}{
		{"8.0", "-87.0", true},
		{"11.5", "-82.5", true},
		{"7.99", "-84.0", false},
		{"11.51", "-84.0", false},
		{"10.0", "-87.01", false},
		{"10.0", "-82.49", false},
		{"40.7128", "-74.0060", false},
	}
	for _, tc := range cases {
		raw := validRaw()
		raw.Latitude, raw.Longitude = utils.StringPtr(tc.lat), utils.StringPtr(tc.lng)
		rec, err := tr.Clean(raw, testNow)
		if tc.ok {
			if err != nil {
				t.Fatalf("(%s, %s) should pass: %v", tc.lat, tc.lng, err)
			}
			if !CostaRicaGeofence.Contains(rec.Latitude, rec.Longitude) {
				t.Fatalf("accepted record outside geofence: %v, %v", rec.Latitude, rec.Longitude)
			}
			continue
		}
		if err == nil {
			t.Fatalf("(%s, %s) should be rejected", tc.lat, tc.lng)
		}
	}
}

func TestCleanRoundsAndDefaults(t *testing.T) {
	tr := newTestTransformer(t)

	raw := validRaw()
	raw.Latitude = utils.StringPtr("10.123456789")
	raw.Longitude = utils.StringPtr("-84.987654321")
	raw.Location = "   "
	raw.ObserverName = ""
	raw.Description = utils.StringPtr("   ")
	raw.PhotoURL = utils.StringPtr("not a url")

	rec, err := tr.Clean(raw, testNow)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if rec.Latitude != 10.123457 || rec.Longitude != -84.987654 {
		t.Fatalf("coordinates not rounded: %v, %v", rec.Latitude, rec.Longitude)
	}
	if rec.Location != entity.UnknownLocation {
		t.Fatalf("location = %q", rec.Location)
	}
	if rec.ObserverName != entity.AnonymousObserver {
		t.Fatalf("observer_name = %q", rec.ObserverName)
	}
	if rec.Description != nil {
		t.Fatalf("blank description should be dropped, got %q", *rec.Description)
	}
	if rec.PhotoURL != nil {
		t.Fatalf("invalid photo url should be dropped, got %q", *rec.PhotoURL)
	}
}

func TestCleanTruncatesDescription(t *testing.T) {
	tr := newTestTransformer(t)

	raw := validRaw()
	raw.Description = utils.StringPtr(strings.Repeat("á", 1500))

	rec, err := tr.Clean(raw, testNow)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if got := len([]rune(*rec.Description)); got != 1000 {
		t.Fatalf("description length = %d runes, want 1000", got)
	}
}

func TestCleanSightingDatePolicy(t *testing.T) {
	tr := newTestTransformer(t)

	raw := validRaw()
	raw.SightingDate = entity.TimestampText("2025-06-01T08:30:00Z")
	rec, err := tr.Clean(raw, testNow)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if want := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC); !rec.SightingDate.Equal(want) {
		t.Fatalf("sighting_date = %v, want %v", rec.SightingDate, want)
	}

	raw.SightingDate = entity.TimestampText("last tuesday")
	rec, err = tr.Clean(raw, testNow)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if !rec.SightingDate.Equal(testNow) {
		t.Fatalf("unparsable date should become processing time, got %v", rec.SightingDate)
	}

	raw.SightingDate = entity.RawTimestamp{}
	_, rejection := tr.Process(raw, testNow)
	if rejection == nil || rejection.Reason != ReasonValidationFailed {
		t.Fatalf("missing date should fail validation, got %+v", rejection)
	}
}

func TestNormalizeNameIsIdempotent(t *testing.T) {
	tr := newTestTransformer(t)

	for _, name := range []string{
		"perezoso tres dedos",
		"  TUCAN   pico iris ",
		"mariposa morpho azul",
		"Colibrí Garganta Rubí",
		"o'brien's frog",
	} {
		once := tr.NormalizeName(name)
		if twice := tr.NormalizeName(once); twice != once {
			t.Fatalf("NormalizeName(%q) = %q, then %q", name, once, twice)
		}
	}

	if got := tr.NormalizeName("  TUCAN   pico iris "); got != "Tucán Pico Iris" {
		t.Fatalf("canonical lookup failed: %q", got)
	}
	if got := tr.NormalizeName("mariposa   morpho"); got != "Mariposa Morpho" {
		t.Fatalf("title case fallback failed: %q", got)
	}
}

func TestScoreIsBoundedAndDeterministic(t *testing.T) {
	tr := newTestTransformer(t)

	minimal := &entity.CleanedRecord{
		SpeciesName:     "Rat",
		SpeciesCategory: entity.CategoryUnknown,
		Location:        entity.UnknownLocation,
		Latitude:        50,
		Longitude:       10,
		SightingDate:    testNow.AddDate(-1, 0, 0),
		ObserverName:    entity.AnonymousObserver,
		ProcessedAt:     testNow,
	}
	if got := tr.Score(minimal); got != 0 {
		t.Fatalf("minimal score = %v, want 0", got)
	}

	rec, rejection := tr.Process(validRaw(), testNow)
	if rejection != nil {
		t.Fatalf("unexpected rejection: %+v", rejection)
	}
	first := tr.Score(rec)
	for i := 0; i < 5; i++ {
		if got := tr.Score(rec); got != first {
			t.Fatalf("score changed between calls: %v vs %v", first, got)
		}
	}
	if first < 0 || first > 1 {
		t.Fatalf("score out of range: %v", first)
	}
}

func TestScoreRecencyUsesProcessedAt(t *testing.T) {
	tr := newTestTransformer(t)

	rec, rejection := tr.Process(validRaw(), testNow)
	if rejection != nil {
		t.Fatalf("unexpected rejection: %+v", rejection)
	}

	rec.SightingDate = testNow.Add(-30*24*time.Hour - time.Hour)
	if got := tr.Score(rec); got != 1.0 {
		t.Fatalf("30 whole days ago should still count as recent, score = %v", got)
	}
	rec.SightingDate = testNow.Add(-31 * 24 * time.Hour)
	if got := tr.Score(rec); got != 0.9 {
		t.Fatalf("31 days ago should not count as recent, score = %v", got)
	}
}

func TestValidate(t *testing.T) {
	tr := newTestTransformer(t)

	if tr.Validate(nil) {
		t.Fatal("nil record should not validate")
	}
	rec, err := tr.Clean(validRaw(), testNow)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if !tr.Validate(rec) {
		t.Fatal("clean record should validate")
	}
	rec.ObserverName = " "
	if tr.Validate(rec) {
		t.Fatal("blank observer should not validate")
	}
}
