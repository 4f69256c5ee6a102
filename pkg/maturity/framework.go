package maturity

// FrameworkType identifies a supported security framework.
type FrameworkType string

const (
	FrameworkISO27001 FrameworkType = "iso27001"
	FrameworkNISTCSF  FrameworkType = "nist_csf"
	FrameworkCISAZTMM FrameworkType = "cisa_ztmm"
)

// RecommendationTable maps a top-level branch id to the ordered remediation
// statements suggested for gaps found under that branch. Recommendations
// are advisory: an id absent from the table yields an empty list, never an
// error.
type RecommendationTable map[string][]string

// FrameworkSpec bundles everything the engine needs to know about one
// framework: its maturity scale, its control tree and its recommendation
// table. The three supported frameworks differ only in this configuration,
// not in code.
type FrameworkSpec struct {
	Type            FrameworkType
	Name            string
	Version         string
	Scale           *Scale
	Tree            *Tree
	Recommendations RecommendationTable
}
