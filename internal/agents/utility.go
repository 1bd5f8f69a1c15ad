package agents

// UtilityModel scores a round from the resources a particle ended up holding.
// A is the reward at exactly meeting need, B the slope above need and C the
// slope below need.
type UtilityModel struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// RTotal returns the resources held at the end of a round: what was
// appropriated plus what was generated but not provisioned.
func RTotal(g, p, rP float64) float64 {
	return rP + (g - p)
}

// Utility scores a round. A zero need yields zero utility.
func (u UtilityModel) Utility(g, q, d, p, r, rP float64) float64 {
	if q == 0 {
		return 0
	}
	rTotal := RTotal(g, p, rP)
	if rTotal >= q {
		return u.A + u.B*(rTotal/q-1)
	}
	return u.C * (rTotal / q)
}

// EstimateFullComply is the utility expected when every member complies at
// the given scarcity level.
func (u UtilityModel) EstimateFullComply(scarcity float64) float64 {
	return u.A * scarcity
}

// EstimateFullDefect is the utility expected when every member defects.
func (u UtilityModel) EstimateFullDefect(scarcity float64) float64 {
	return u.C * scarcity
}

// DynamicRange is the sum of the weights, used to normalise utility deltas.
func (u UtilityModel) DynamicRange() float64 {
	return u.A + u.B + u.C
}
