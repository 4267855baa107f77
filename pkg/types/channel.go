package types

import "strings"

// SemanticClass classifies what a channel measures.
type SemanticClass string

const (
	SemanticEnergy         SemanticClass = "energy"
	SemanticReactiveEnergy SemanticClass = "reactive_energy"
	SemanticGas            SemanticClass = "gas"
	// SemanticNone is used where the unit has no host-side device class
	// (e.g. standard volume in Nm3).
	SemanticNone SemanticClass = ""
)

// Channel is a catalog entry describing one selectable measurement channel.
// The catalog is static and shared read-only by all coordinator instances.
type Channel struct {
	// Name is the stable configuration identifier for the channel.
	Name string `json:"name"`
	// ObisCode is the remote code queried for this channel.
	ObisCode string `json:"obisCode"`
	// Unit is the unit the remote service reports raw values in.
	Unit string `json:"unit"`
	// Class is the semantic classification of the channel.
	Class SemanticClass `json:"class"`
	// TotalIncreasing reports whether the channel accumulates
	// monotonically (all catalog channels currently do).
	TotalIncreasing bool `json:"totalIncreasing"`
}

// Channels is the full channel catalog, in presentation order.
var Channels = []Channel{
	// Electricity consumption
	{Name: "electricity_consumption_active", ObisCode: "1-1:1.29.0", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	{Name: "electricity_consumption_reactive", ObisCode: "1-1:3.29.0", Unit: "kvar", Class: SemanticReactiveEnergy, TotalIncreasing: true},
	{Name: "electricity_consumption_covered_layer1", ObisCode: "1-65:1.29.1", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	{Name: "electricity_consumption_covered_layer2", ObisCode: "1-65:1.29.2", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	{Name: "electricity_consumption_covered_layer3", ObisCode: "1-65:1.29.3", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	{Name: "electricity_consumption_covered_layer4", ObisCode: "1-65:1.29.4", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	{Name: "electricity_consumption_remaining", ObisCode: "1-65:1.29.9", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	// Electricity production
	{Name: "electricity_production_active", ObisCode: "1-1:2.29.0", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	{Name: "electricity_production_reactive", ObisCode: "1-1:4.29.0", Unit: "kvar", Class: SemanticReactiveEnergy, TotalIncreasing: true},
	{Name: "electricity_production_shared_layer1", ObisCode: "1-65:2.29.1", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	{Name: "electricity_production_shared_layer2", ObisCode: "1-65:2.29.2", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	{Name: "electricity_production_shared_layer3", ObisCode: "1-65:2.29.3", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	{Name: "electricity_production_shared_layer4", ObisCode: "1-65:2.29.4", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	{Name: "electricity_production_remaining", ObisCode: "1-65:2.29.9", Unit: "kW", Class: SemanticEnergy, TotalIncreasing: true},
	// Gas consumption
	{Name: "gas_consumption_volume", ObisCode: "7-1:99.23.15", Unit: "m3", Class: SemanticGas, TotalIncreasing: true},
	{Name: "gas_consumption_standard_volume", ObisCode: "7-1:99.23.17", Unit: "Nm3", Class: SemanticNone, TotalIncreasing: true},
	{Name: "gas_consumption_energy", ObisCode: "7-20:99.33.17", Unit: "kWh", Class: SemanticEnergy, TotalIncreasing: true},
}

var channelsByName = func() map[string]Channel {
	m := make(map[string]Channel, len(Channels))
	for _, c := range Channels {
		m[c.Name] = c
	}
	return m
}()

// LookupChannel resolves a configured channel identifier against the
// catalog. ok is false for identifiers the catalog does not know, which
// callers must skip rather than fail on.
func LookupChannel(name string) (Channel, bool) {
	c, ok := channelsByName[name]
	return c, ok
}

// aggregatedUnits maps a rate unit reported by the remote service to the
// accumulated unit the hourly statistics are stored in.
var aggregatedUnits = map[string]string{
	"kw":   "kWh",
	"kvar": "kvarh",
}

// AggregatedUnit returns the unit for this channel's accumulated
// statistics. Rate units map to their energy equivalent; everything else is
// already an accumulated quantity and passes through.
func (c Channel) AggregatedUnit() string {
	if u, ok := aggregatedUnits[strings.ToLower(c.Unit)]; ok {
		return u
	}
	return c.Unit
}
