package scope

import (
	"fmt"
	"io"
)

// FactoryStats is a point-in-time view of one factory's demand accounting.
type FactoryStats struct {
	// Name is the factory's registered name.
	Name string

	// Demand counts constructions since the last Preallocate or Reset.
	Demand int64

	// HighWater is the largest Demand observed across preallocation cycles.
	HighWater int64

	// Target is the installed preallocation count.
	Target int

	// Standby is the number of preconstructed objects ready for use.
	Standby int

	// CapHigh is the largest buffer capacity requested, for array factories;
	// zero otherwise.
	CapHigh int64

	// TargetCap is the installed initial-capacity hint for array factories.
	TargetCap int
}

// Stats returns the factory's current accounting.
func (f *Factory) Stats() FactoryStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FactoryStats{
		Name:      f.name,
		Demand:    f.demand,
		HighWater: f.high,
		Target:    f.target,
		Standby:   len(f.standby),
		CapHigh:   f.capHigh,
		TargetCap: f.targetCap,
	}
}

// Snapshot returns the accounting of every registered factory, sorted by
// name.
func Snapshot() []FactoryStats {
	fs := Factories()
	out := make([]FactoryStats, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Stats())
	}
	return out
}

// Fprint writes a human-readable table of the current snapshot, one factory
// per line.
func Fprint(w io.Writer) error {
	for _, s := range Snapshot() {
		var err error
		if s.CapHigh > 0 || s.TargetCap > 0 {
			_, err = fmt.Fprintf(w, "%s demand=%d high=%d target=%d standby=%d cap=%d\n",
				s.Name, s.Demand, s.HighWater, s.Target, s.Standby, s.CapHigh)
		} else {
			_, err = fmt.Fprintf(w, "%s demand=%d high=%d target=%d standby=%d\n",
				s.Name, s.Demand, s.HighWater, s.Target, s.Standby)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
