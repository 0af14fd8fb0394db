package light

// Rig is the fixed set of lights created once per resource pool.
// The slice handed to NewRig is copied, so callers cannot change the rig afterwards.
type Rig struct {
	lights []Light
}

// NewRig creates a rig holding the given lights in order. Nil lights are skipped.
func NewRig(lights ...Light) *Rig {
	r := &Rig{lights: make([]Light, 0, len(lights))}
	for _, l := range lights {
		if l != nil {
			r.lights = append(r.lights, l)
		}
	}
	return r
}

// DefaultRig returns the space background rig: a white ambient light at half
// intensity, a white point light in front of the scene and a violet point light
// above and to the right.
func DefaultRig() *Rig {
	return NewRig(
		NewLight(LightTypeAmbient, WithHexColor("#ffffff"), WithIntensity(0.5)),
		NewLight(LightTypePoint, WithHexColor("#ffffff"), WithIntensity(1), WithPosition(0, 0, 30)),
		NewLight(LightTypePoint, WithHexColor("#6e44ff"), WithIntensity(1), WithPosition(20, 20, 20)),
	)
}

// Lights returns a copy of the rig's lights in creation order.
func (r *Rig) Lights() []Light {
	if r == nil {
		return nil
	}
	out := make([]Light, len(r.lights))
	copy(out, r.lights)
	return out
}

// Len returns the number of lights in the rig.
func (r *Rig) Len() int {
	if r == nil {
		return 0
	}
	return len(r.lights)
}
