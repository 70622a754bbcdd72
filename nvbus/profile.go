package nvbus

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

// FaultProfile is the YAML-decodable form of a fault list, for
// satprovisionctl's `fault` subcommand and for scripted integration tests
// that want to describe scenarios as data rather than Go literals. The
// shape follows the teacher's drivedb YAML idiom: plain exported fields,
// decoded with gopkg.in/yaml.v2.
type FaultProfile struct {
	Faults []FaultSpec `yaml:"faults"`
}

// FaultSpec is the textual form of Fault: "A" or "B" for Device, and a hex
// string (two digits per byte) for FlipBits, to keep profile files
// hand-editable.
type FaultSpec struct {
	Device      string `yaml:"device"`
	Addr        uint32 `yaml:"addr"`
	Width       int    `yaml:"width"`
	FlipBitsHex string `yaml:"flip_bits_hex,omitempty"`
	Dead        bool   `yaml:"dead,omitempty"`
	StatusError bool   `yaml:"status_error,omitempty"`
}

func parseDevice(s string) (Device, error) {
	switch s {
	case "A", "a":
		return DeviceA, nil
	case "B", "b":
		return DeviceB, nil
	default:
		return 0, fmt.Errorf("nvbus: unknown device %q (want A or B)", s)
	}
}

func parseHexBytes(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("nvbus: flip_bits_hex must have even length")
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		var b byte
		if _, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &b); err != nil {
			return nil, fmt.Errorf("nvbus: invalid hex byte %q: %w", s[i*2:i*2+2], err)
		}
		out[i] = b
	}
	return out, nil
}

// DecodeFaultProfile parses a YAML fault-injection profile document.
func DecodeFaultProfile(data []byte) ([]Fault, error) {
	var doc FaultProfile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("nvbus: decode fault profile: %w", err)
	}
	faults := make([]Fault, 0, len(doc.Faults))
	for i, spec := range doc.Faults {
		dev, err := parseDevice(spec.Device)
		if err != nil {
			return nil, fmt.Errorf("nvbus: fault[%d]: %w", i, err)
		}
		flip, err := parseHexBytes(spec.FlipBitsHex)
		if err != nil {
			return nil, fmt.Errorf("nvbus: fault[%d]: %w", i, err)
		}
		faults = append(faults, Fault{
			Device:      dev,
			Addr:        spec.Addr,
			Width:       spec.Width,
			FlipBits:    flip,
			Dead:        spec.Dead,
			StatusError: spec.StatusError,
		})
	}
	return faults, nil
}
