package wafer

import (
	"math"

	"github.com/matzehuels/wafermask/pkg/core/pillar"
	"github.com/matzehuels/wafermask/pkg/errors"
)

// Setup configures the structures generated in one section.
type Setup struct {
	// Distance is the centre-to-centre pitch of pillars or walls.
	Distance float64 `json:"distance" toml:"distance" bson:"distance"`

	// Radius is the pillar radius, or the wall thickness for wall kinds.
	Radius float64 `json:"radius" toml:"radius" bson:"radius"`

	Structure Structure `json:"structure" toml:"structure" bson:"structure"`
}

// DefaultSetup is shown for sections without a stored setup.
var DefaultSetup = Setup{Structure: Pillars}

// Validate checks the setup values. Pillars must not overlap their
// neighbours at the configured pitch.
func (s Setup) Validate() error {
	if !s.Structure.Valid() {
		return errors.New(errors.ErrCodeInvalidArgument, "unknown structure %d", int(s.Structure))
	}
	if !finite(s.Distance) || !finite(s.Radius) {
		return errors.New(errors.ErrCodeInvalidArgument, "distance and radius must be finite")
	}
	if s.Structure == Pillars {
		return pillar.ValidateSpacing(s.Distance, s.Radius, 0)
	}
	if s.Distance <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "wall distance must be positive, got %g", s.Distance)
	}
	if s.Radius <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "wall thickness must be positive, got %g", s.Radius)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
