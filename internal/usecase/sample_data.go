package usecase

import (
	"time"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/pkg/utils"
)

// SampleRawRecords returns the four reference submissions used for demos and
// end-to-end checks: two clean sightings, one with an invalid email and an
// unnormalized name, and one without a species name.
func SampleRawRecords(now time.Time) []*entity.RawRecord {
	return []*entity.RawRecord{
		{
			SpeciesName:   "Quetzal Resplandeciente",
			Location:      "Monteverde, Costa Rica",
			Latitude:      utils.StringPtr("10.3009"),
			Longitude:     utils.StringPtr("-84.8066"),
			SightingDate:  entity.TimestampOf(now.Add(-24 * time.Hour)),
			ObserverName:  "Ana García",
			ObserverEmail: utils.StringPtr("ana.garcia@email.com"),
			Description:   utils.StringPtr("Avistamiento de quetzal macho con plumaje completo"),
			PhotoURL:      utils.StringPtr("https://example.com/quetzal.jpg"),
		},
		{
			SpeciesName:   "perezoso tres dedos",
			Location:      "Manuel Antonio",
			Latitude:      utils.StringPtr("9.3847"),
			Longitude:     utils.StringPtr("-84.1506"),
			SightingDate:  entity.TimestampOf(now.Add(-48 * time.Hour)),
			ObserverName:  "Carlos Méndez",
			ObserverEmail: utils.StringPtr("carlos@invalid-email"),
			Description:   utils.StringPtr("Perezoso descansando en cecropia"),
		},
		{
			SpeciesName:   "",
			Location:      "Corcovado",
			Latitude:      utils.StringPtr("8.5367"),
			Longitude:     utils.StringPtr("-83.5914"),
			SightingDate:  entity.TimestampOf(now),
			ObserverName:  "María Rodríguez",
			ObserverEmail: utils.StringPtr("maria.rodriguez@email.com"),
			Description:   utils.StringPtr("Avistamiento nocturno"),
			PhotoURL:      utils.StringPtr("https://example.com/unknown.jpg"),
		},
		{
			SpeciesName:   "Jaguar",
			Location:      "Parque Nacional Corcovado",
			Latitude:      utils.StringPtr("8.5367"),
			Longitude:     utils.StringPtr("-83.5914"),
			SightingDate:  entity.TimestampOf(now.Add(-6 * time.Hour)),
			ObserverName:  "Roberto Silva",
			ObserverEmail: utils.StringPtr("roberto.silva@conservation.org"),
			Description:   utils.StringPtr("Jaguar adulto cruzando sendero principal"),
			PhotoURL:      utils.StringPtr("https://example.com/jaguar.jpg"),
		},
	}
}
