package physics

// Reference values, CODATA 2018 and PDG 2022. Masses are in MeV.
const (
	Alpha0    = 7.2973525693e-3
	InvAlpha0 = 137.035999084

	ElectronMass = 0.51099895000
	MuonMass     = 105.6583755
	TauMass      = 1776.86

	// ZMass is the Z boson pole mass, the usual upper scale for running α.
	ZMass = 91187.6
)

// RydbergCoScaling returns the exponents under which the Rydberg proxy is
// exactly invariant: alpha scales by s and m_e by s^-2. Each call returns
// a fresh map.
func RydbergCoScaling() map[string]float64 {
	return map[string]float64{"alpha": 1, "m_e": -2}
}

// ThomsonCoScaling returns the exponents under which the Thomson proxy is
// exactly invariant: alpha and m_e both scale by s.
func ThomsonCoScaling() map[string]float64 {
	return map[string]float64{"alpha": 1, "m_e": 1}
}
