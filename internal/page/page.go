// Package page holds the dashboard pages. Each page is a small value that
// carries only the analysis settings it needs; Renderer dispatches on the
// concrete type.
package page

import (
	"sort"

	"carprice/domain/car"
	"carprice/internal/config"
	"carprice/internal/errors"
)

// ID names a page in URLs and on the command line.
type ID string

const (
	IDOverview            ID = "overview"
	IDFuelType            ID = "fuel-type"
	IDFuelEfficiency      ID = "fuel-efficiency"
	IDBodyType            ID = "body-type"
	IDDriveWheel          ID = "drive-wheel"
	IDFeatureSignificance ID = "feature-significance"
	IDPriceModel          ID = "price-model"
)

// Page is one of the dashboard pages below. The set is closed.
type Page interface {
	ID() ID
	isPage()
}

// Overview shows headline averages, a price histogram and the data table.
type Overview struct {
	Bins int
}

// FuelType compares diesel and petrol prices. It ignores any fuel type filter.
type FuelType struct {
	Alpha float64
}

// FuelEfficiency splits cars at the median average mileage and compares the
// halves.
type FuelEfficiency struct {
	Alpha float64
}

// BodyType summarizes price per body style.
type BodyType struct {
	Alpha float64
}

// DriveWheel compares front and rear wheel drive prices.
type DriveWheel struct {
	Alpha float64
}

// FeatureSignificance screens every feature for a relationship with price.
// It runs on the whole dataset with the top price quantile removed.
type FeatureSignificance struct {
	Alpha       float64
	CapQuantile float64
	Continuous  []car.Field
	Categorical []car.Field
}

// PriceModel fits a linear price model on the whole dataset with the top
// price quantile removed.
type PriceModel struct {
	CapQuantile float64
	Predictors  []car.Field
}

func (Overview) ID() ID            { return IDOverview }
func (FuelType) ID() ID            { return IDFuelType }
func (FuelEfficiency) ID() ID      { return IDFuelEfficiency }
func (BodyType) ID() ID            { return IDBodyType }
func (DriveWheel) ID() ID          { return IDDriveWheel }
func (FeatureSignificance) ID() ID { return IDFeatureSignificance }
func (PriceModel) ID() ID          { return IDPriceModel }

func (Overview) isPage()            {}
func (FuelType) isPage()            {}
func (FuelEfficiency) isPage()      {}
func (BodyType) isPage()            {}
func (DriveWheel) isPage()          {}
func (FeatureSignificance) isPage() {}
func (PriceModel) isPage()          {}

// ScreenedContinuous are the numeric features tested on the significance page.
var ScreenedContinuous = []car.Field{
	car.FieldWheelbase, car.FieldCarLength, car.FieldCarWidth, car.FieldCarHeight,
	car.FieldCurbWeight, car.FieldEngineSize, car.FieldBoreRatio, car.FieldStroke,
	car.FieldHorsepower, car.FieldPeakRPM, car.FieldCityMPG, car.FieldHighwayMPG,
	car.FieldPricePerHP, car.FieldPowerToWeight, car.FieldEngineEfficiency,
	car.FieldAvgMPG, car.FieldPricePerMPG,
}

// ScreenedCategorical are the categorical features tested on the significance
// page. Manufacturer is left out: it has too many levels for the group tests.
var ScreenedCategorical = []car.Field{
	car.FieldSymboling, car.FieldFuelType, car.FieldAspiration, car.FieldDoorNumber,
	car.FieldCarBody, car.FieldDriveWheel, car.FieldEngineType, car.FieldCylinderNumber,
	car.FieldFuelSystem, car.FieldCompressionRatioBin,
}

// ModelPredictors are the inputs of the price model.
var ModelPredictors = []car.Field{
	car.FieldCurbWeight, car.FieldHorsepower, car.FieldPricePerHP,
	car.FieldWheelbase, car.FieldBoreRatio, car.FieldPowerToWeight,
}

// All returns every page in navigation order, configured from cfg.
func All(cfg config.AnalysisConfig) []Page {
	alpha := cfg.SignificanceLevel
	return []Page{
		Overview{Bins: cfg.HistogramBins},
		FuelType{Alpha: alpha},
		FuelEfficiency{Alpha: alpha},
		BodyType{Alpha: alpha},
		DriveWheel{Alpha: alpha},
		FeatureSignificance{
			Alpha:       alpha,
			CapQuantile: cfg.PriceCapQuantile,
			Continuous:  ScreenedContinuous,
			Categorical: ScreenedCategorical,
		},
		PriceModel{CapQuantile: cfg.PriceCapQuantile, Predictors: ModelPredictors},
	}
}

// Lookup returns the configured page with the given id.
func Lookup(id ID, cfg config.AnalysisConfig) (Page, error) {
	for _, p := range All(cfg) {
		if p.ID() == id {
			return p, nil
		}
	}
	return nil, errors.NotFound("page " + string(id))
}

// IDs lists every page id in navigation order.
func IDs() []ID {
	return []ID{
		IDOverview, IDFuelType, IDFuelEfficiency, IDBodyType,
		IDDriveWheel, IDFeatureSignificance, IDPriceModel,
	}
}

// ignoredFilters reports which of the active criteria a page does not apply.
func ignoredFilters(p Page, active []car.Field) []car.Field {
	switch p.(type) {
	case FuelType:
		for _, f := range active {
			if f == car.FieldFuelType {
				return []car.Field{car.FieldFuelType}
			}
		}
		return nil
	case FeatureSignificance, PriceModel:
		out := append([]car.Field(nil), active...)
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	default:
		return nil
	}
}
