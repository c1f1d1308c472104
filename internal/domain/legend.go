package domain

// Legend maps categorical class codes to class names. The pipeline uses the
// PREVAH land-use classification, the closed class set the Alpine3D solver
// expects.
type Legend map[int32]string

// PrevahLegend returns the PREVAH classes the pipeline can emit.
func PrevahLegend() Legend {
	return Legend{
		1:  "water",
		2:  "settlement",
		3:  "coniferous forest",
		4:  "deciduous forest",
		5:  "mixed forest",
		6:  "cereals",
		7:  "pasture",
		8:  "bush",
		11: "road",
		13: "firn",
		14: "bare ice",
		15: "rock",
		18: "fruit",
		19: "vegetables",
		20: "wheat",
		21: "alpine vegetation",
		22: "wetlands",
		23: "rough pasture",
		24: "subalpine meadow",
		25: "alpine meadow",
		26: "bare soil vegetation",
		28: "corn",
		29: "grapes",
	}
}
