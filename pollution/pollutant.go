// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package pollution

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Pollutant is the on-chain pollutant type code.
type Pollutant uint8

const (
	PM25 Pollutant = iota + 1
	PM10
	SO2
	NO2
	Ozone
	HeavyMetals
)

var pollutantNames = map[Pollutant]string{
	PM25:        "PM2.5",
	PM10:        "PM10",
	SO2:         "SO2",
	NO2:         "NO2",
	Ozone:       "O3",
	HeavyMetals: "Heavy Metals",
}

// DefaultThresholds are the alert levels in µg/m³ used when the contract
// is not consulted. Any heavy metal reading is critical.
var DefaultThresholds = map[Pollutant]uint64{
	PM25:        35,
	PM10:        150,
	SO2:         75,
	NO2:         100,
	Ozone:       70,
	HeavyMetals: 0,
}

func (p Pollutant) Valid() bool {
	_, ok := pollutantNames[p]
	return ok
}

func (p Pollutant) String() string {
	if name, ok := pollutantNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Pollutant(%d)", uint8(p))
}

// ParsePollutant accepts the code names used by the contract tooling
// (PM25, PM10, SO2, NO2, OZONE, HEAVY_METALS) and the display names.
func ParsePollutant(s string) (Pollutant, error) {
	norm := strings.ToUpper(strings.NewReplacer(".", "", " ", "_", "₂", "2", "₃", "3").Replace(strings.TrimSpace(s)))
	switch norm {
	case "PM25":
		return PM25, nil
	case "PM10":
		return PM10, nil
	case "SO2":
		return SO2, nil
	case "NO2":
		return NO2, nil
	case "OZONE", "O3":
		return Ozone, nil
	case "HEAVY_METALS", "HEAVYMETALS":
		return HeavyMetals, nil
	}
	return 0, fmt.Errorf("unknown pollutant %q", s)
}

// Severity grades a measurement from 1 (low) to 5 (critical).
type Severity uint8

const (
	SeverityLow Severity = iota + 1
	SeverityModerate
	SeverityHigh
	SeverityVeryHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityModerate:
		return "moderate"
	case SeverityHigh:
		return "high"
	case SeverityVeryHigh:
		return "very high"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("Severity(%d)", uint8(s))
	}
}

// CalculateSeverity compares value against threshold: below half is low,
// below the threshold moderate, below 1.5x high, below 2x very high and
// anything else critical.
func CalculateSeverity(value, threshold uint64) Severity {
	// Compare 2*value against multiples of threshold/2 to stay in integers.
	v := new(uint256.Int).Lsh(uint256.NewInt(value), 1)
	t := uint256.NewInt(threshold)
	limit := new(uint256.Int)
	for level := SeverityLow; level < SeverityCritical; level++ {
		limit.Add(limit, t)
		if v.Lt(limit) {
			return level
		}
	}
	return SeverityCritical
}
