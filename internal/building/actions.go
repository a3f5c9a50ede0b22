package building

// Action names, in the canonical order used by the action space.
const (
	ActionCoolingDevice     = "cooling_device"
	ActionHeatingDevice     = "heating_device"
	ActionCoolingStorage    = "cooling_storage"
	ActionHeatingStorage    = "heating_storage"
	ActionDHWStorage        = "dhw_storage"
	ActionElectricalStorage = "electrical_storage"
)

var actionOrder = []string{
	ActionCoolingDevice,
	ActionHeatingDevice,
	ActionCoolingStorage,
	ActionHeatingStorage,
	ActionDHWStorage,
	ActionElectricalStorage,
}

// Actions holds the fractional control inputs for one time step. Device
// actions are fractions of nominal electric power, storage actions are
// fractions of capacity (negative to discharge). Inactive actions are
// ignored by Step.
type Actions struct {
	CoolingDevice     float64
	HeatingDevice     float64
	CoolingStorage    float64
	HeatingStorage    float64
	DHWStorage        float64
	ElectricalStorage float64
}

func (a Actions) value(name string) float64 {
	switch name {
	case ActionCoolingDevice:
		return a.CoolingDevice
	case ActionHeatingDevice:
		return a.HeatingDevice
	case ActionCoolingStorage:
		return a.CoolingStorage
	case ActionHeatingStorage:
		return a.HeatingStorage
	case ActionDHWStorage:
		return a.DHWStorage
	case ActionElectricalStorage:
		return a.ElectricalStorage
	}
	return 0
}

// FromVector maps a flat action vector, ordered like ActiveActions, onto an
// Actions struct. Extra entries are ignored.
func FromVector(active []string, values []float64) Actions {
	var a Actions
	for i, name := range active {
		if i >= len(values) {
			break
		}
		switch name {
		case ActionCoolingDevice:
			a.CoolingDevice = values[i]
		case ActionHeatingDevice:
			a.HeatingDevice = values[i]
		case ActionCoolingStorage:
			a.CoolingStorage = values[i]
		case ActionHeatingStorage:
			a.HeatingStorage = values[i]
		case ActionDHWStorage:
			a.DHWStorage = values[i]
		case ActionElectricalStorage:
			a.ElectricalStorage = values[i]
		}
	}
	return a
}
