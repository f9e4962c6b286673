package wagon

import (
	"fmt"
	"strings"
	"time"

	"railfleet-sim/internal/dataset"
)

// Dimensions holds the physical size of a wagon.
type Dimensions struct {
	CapacityTons int
	LengthM      float64
	WidthM       float64
	HeightM      float64
}

// Wagon is the static record of one freight wagon.
// Values are only built through NewWagon and never mutated afterwards.
type Wagon struct {
	ID                string
	Type              WagonType
	Dimensions        Dimensions
	Operator          string
	Owner             string
	ManufactureDate   time.Time
	SensorInstallDate time.Time
}

// NewWagon validates and constructs a wagon.
func NewWagon(id string, wagonType WagonType, dims Dimensions, operator, owner string, manufactured, installed time.Time) (Wagon, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Wagon{}, ErrEmptyID
	}
	if wagonType.Name == "" || wagonType.RateMultiplier <= 0 {
		return Wagon{}, ErrInvalidType
	}
	if dims.CapacityTons <= 0 || dims.LengthM <= 0 || dims.WidthM <= 0 || dims.HeightM <= 0 {
		return Wagon{}, ErrInvalidDimensions
	}
	if manufactured.IsZero() || installed.IsZero() {
		return Wagon{}, fmt.Errorf("%w: zero date", ErrInstallBeforeManufacture)
	}
	if !installed.After(manufactured) {
		return Wagon{}, fmt.Errorf("%w: manufactured %s installed %s", ErrInstallBeforeManufacture,
			manufactured.Format(dateLayout), installed.Format(dateLayout))
	}
	return Wagon{
		ID:                id,
		Type:              wagonType,
		Dimensions:        dims,
		Operator:          operator,
		Owner:             owner,
		ManufactureDate:   manufactured.UTC(),
		SensorInstallDate: installed.UTC(),
	}, nil
}

// AgeYears returns whole calendar years since manufacture.
func (w Wagon) AgeYears(now time.Time) int {
	return now.Year() - w.ManufactureDate.Year()
}

const dateLayout = "2006-01-02"

// MetadataSchema is the column layout of the wagon metadata table.
var MetadataSchema = dataset.Schema{
	{Name: "id", Kind: dataset.KindString},
	{Name: "type", Kind: dataset.KindString},
	{Name: "capacity_tons", Kind: dataset.KindInt},
	{Name: "length_m", Kind: dataset.KindFloat},
	{Name: "width_m", Kind: dataset.KindFloat},
	{Name: "height_m", Kind: dataset.KindFloat},
	{Name: "operator", Kind: dataset.KindString},
	{Name: "owner", Kind: dataset.KindString},
	{Name: "manufacture_date", Kind: dataset.KindTime},
	{Name: "sensor_installation_date", Kind: dataset.KindTime},
}

// MetadataTable renders wagons as metadata rows.
func MetadataTable(wagons ...Wagon) (*dataset.Table, error) {
	table := dataset.NewTable(MetadataSchema, len(wagons))
	for _, w := range wagons {
		if err := table.Append(
			w.ID,
			w.Type.Name,
			int64(w.Dimensions.CapacityTons),
			w.Dimensions.LengthM,
			w.Dimensions.WidthM,
			w.Dimensions.HeightM,
			w.Operator,
			w.Owner,
			w.ManufactureDate,
			w.SensorInstallDate,
		); err != nil {
			return nil, err
		}
	}
	return table, nil
}
