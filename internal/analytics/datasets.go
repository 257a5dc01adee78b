package analytics

// SampleDatasets is the catalog of triangles bundled with the engine.
// The first entry is the default selection.
var SampleDatasets = []string{
	"clrd",
	"genins",
	"raa",
	"abc",
	"ukmotor",
	"qtr",
	"quarterly",
	"auto",
	"liab",
	"wkcomp",
	"prism",
}

// SanitizeDataset maps an arbitrary hint to a valid catalog entry, falling
// back to the default when the hint is empty or unknown.
func SanitizeDataset(name string) string {
	for _, d := range SampleDatasets {
		if d == name {
			return name
		}
	}
	return SampleDatasets[0]
}
