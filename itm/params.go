// Package itm defines the propagation engine contract used by p2p:
// the signature the Irregular Terrain Model implementation must
// satisfy, its fixed enumerations, and its error taxonomy. The engine
// itself (the ITM algorithm) is an external collaborator and out of
// scope here; callers supply an Engine implementation.
package itm

// Polarization is the antenna polarization.
type Polarization int32

const (
	Horizontal Polarization = 0
	Vertical   Polarization = 1
)

// SitingCriteria describes how carefully an antenna site was chosen.
type SitingCriteria int32

const (
	Random      SitingCriteria = 0
	Careful     SitingCriteria = 1
	VeryCareful SitingCriteria = 2
)

// Climate is the radio climate zone of the path.
type Climate int32

const (
	Equatorial                Climate = 1
	ContinentalSubtropical    Climate = 2
	MaritimeSubtropical       Climate = 3
	Desert                    Climate = 4
	ContinentalTemperate      Climate = 5
	MaritimeTemperateOverLand Climate = 6
	MaritimeTemperateOverSea  Climate = 7
)

// Mode is the dominant propagation mode.
type Mode int32

const (
	ModeNotSet   Mode = 0
	LineOfSight  Mode = 1
	Diffraction  Mode = 2
	Troposcatter Mode = 3
)

// ModeVariability selects how variability is interpreted across time,
// locations and situations.
type ModeVariability int32

const (
	SingleMessage ModeVariability = 0
	Accidental    ModeVariability = 1
	Mobile        ModeVariability = 2
	Broadcast     ModeVariability = 3
)
