package car

import "sort"

// Field names a column of the car dataset. Names match the input header.
type Field string

// Kind distinguishes categorical from numeric columns.
type Kind int

const (
	Categorical Kind = iota
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Source and derived column names
const (
	FieldCarName        Field = "CarName"
	FieldManufacturer   Field = "manufacturer"
	FieldFuelType       Field = "fueltype"
	FieldAspiration     Field = "aspiration"
	FieldDoorNumber     Field = "doornumber"
	FieldCarBody        Field = "carbody"
	FieldDriveWheel     Field = "drivewheel"
	FieldEngineLocation Field = "enginelocation"
	FieldEngineType     Field = "enginetype"
	FieldCylinderNumber Field = "cylindernumber"
	FieldFuelSystem     Field = "fuelsystem"

	FieldSymboling        Field = "symboling"
	FieldWheelbase        Field = "wheelbase"
	FieldCarLength        Field = "carlength"
	FieldCarWidth         Field = "carwidth"
	FieldCarHeight        Field = "carheight"
	FieldCurbWeight       Field = "curbweight"
	FieldEngineSize       Field = "enginesize"
	FieldBoreRatio        Field = "boreratio"
	FieldStroke           Field = "stroke"
	FieldCompressionRatio Field = "compressionratio"
	FieldHorsepower       Field = "horsepower"
	FieldPeakRPM          Field = "peakrpm"
	FieldCityMPG          Field = "citympg"
	FieldHighwayMPG       Field = "highwaympg"
	FieldPrice            Field = "price"

	FieldPricePerHP          Field = "price_per_hp"
	FieldPowerToWeight       Field = "power_to_weight_ratio"
	FieldEngineEfficiency    Field = "engine_efficiency"
	FieldAvgMPG              Field = "avg_mpg"
	FieldPricePerMPG         Field = "price_per_mpg"
	FieldCompressionRatioBin Field = "compressionratio_bin"
	FieldSymbolingBinned     Field = "symboling_binned"
)

// Column describes one dataset column.
type Column struct {
	Field    Field
	Kind     Kind
	Required bool
	Derived  bool
	Label    string
}

// Columns is the full column catalog: raw columns first, derived last.
var Columns = []Column{
	{Field: FieldManufacturer, Kind: Categorical, Label: "Manufacturer"},
	{Field: FieldFuelType, Kind: Categorical, Required: true, Label: "Fuel Type"},
	{Field: FieldAspiration, Kind: Categorical, Label: "Aspiration"},
	{Field: FieldDoorNumber, Kind: Categorical, Label: "Door Number"},
	{Field: FieldCarBody, Kind: Categorical, Required: true, Label: "Car Body Type"},
	{Field: FieldDriveWheel, Kind: Categorical, Required: true, Label: "Drive Wheel Type"},
	{Field: FieldEngineLocation, Kind: Categorical, Label: "Engine Location"},
	{Field: FieldEngineType, Kind: Categorical, Required: true, Label: "Engine Type"},
	{Field: FieldCylinderNumber, Kind: Categorical, Label: "Cylinder Number"},
	{Field: FieldFuelSystem, Kind: Categorical, Label: "Fuel System"},

	{Field: FieldSymboling, Kind: Numeric, Label: "Insurance Risk Rating"},
	{Field: FieldWheelbase, Kind: Numeric, Required: true, Label: "Wheelbase"},
	{Field: FieldCarLength, Kind: Numeric, Required: true, Label: "Car Length"},
	{Field: FieldCarWidth, Kind: Numeric, Required: true, Label: "Car Width"},
	{Field: FieldCarHeight, Kind: Numeric, Required: true, Label: "Car Height"},
	{Field: FieldCurbWeight, Kind: Numeric, Required: true, Label: "Curb Weight"},
	{Field: FieldEngineSize, Kind: Numeric, Required: true, Label: "Engine Size"},
	{Field: FieldBoreRatio, Kind: Numeric, Label: "Bore Ratio"},
	{Field: FieldStroke, Kind: Numeric, Label: "Stroke"},
	{Field: FieldCompressionRatio, Kind: Numeric, Label: "Compression Ratio"},
	{Field: FieldHorsepower, Kind: Numeric, Required: true, Label: "Horsepower"},
	{Field: FieldPeakRPM, Kind: Numeric, Label: "Peak RPM"},
	{Field: FieldCityMPG, Kind: Numeric, Required: true, Label: "City MPG"},
	{Field: FieldHighwayMPG, Kind: Numeric, Required: true, Label: "Highway MPG"},
	{Field: FieldPrice, Kind: Numeric, Required: true, Label: "Price"},

	{Field: FieldPricePerHP, Kind: Numeric, Derived: true, Label: "Price per Horsepower"},
	{Field: FieldPowerToWeight, Kind: Numeric, Derived: true, Label: "Power to Weight Ratio"},
	{Field: FieldEngineEfficiency, Kind: Numeric, Derived: true, Label: "Engine Efficiency"},
	{Field: FieldAvgMPG, Kind: Numeric, Derived: true, Label: "Average MPG"},
	{Field: FieldPricePerMPG, Kind: Numeric, Derived: true, Label: "Price per MPG"},
	{Field: FieldCompressionRatioBin, Kind: Categorical, Derived: true, Label: "Compression Ratio (binned)"},
	{Field: FieldSymbolingBinned, Kind: Categorical, Derived: true, Label: "Insurance Risk Rating (binned)"},
}

var columnIndex = func() map[Field]Column {
	idx := make(map[Field]Column, len(Columns))
	for _, c := range Columns {
		idx[c.Field] = c
	}
	return idx
}()

// Lookup returns the column definition for f.
func Lookup(f Field) (Column, bool) {
	c, ok := columnIndex[f]
	return c, ok
}

// Label returns the display label for f, falling back to the field name.
func Label(f Field) string {
	if c, ok := columnIndex[f]; ok && c.Label != "" {
		return c.Label
	}
	return string(f)
}

// RequiredFields returns the raw columns an input file must carry, sorted.
// The manufacturer requirement is satisfied by either manufacturer or CarName
// and is checked separately by the loader.
func RequiredFields() []Field {
	var out []Field
	for _, c := range Columns {
		if c.Required {
			out = append(out, c.Field)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FieldsOfKind lists raw and derived fields of the given kind in catalog order.
func FieldsOfKind(k Kind) []Field {
	var out []Field
	for _, c := range Columns {
		if c.Kind == k {
			out = append(out, c.Field)
		}
	}
	return out
}
