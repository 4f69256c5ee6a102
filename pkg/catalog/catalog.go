// Package catalog holds the static reference data of the supported security
// frameworks: maturity scales, control trees and recommendation tables for
// ISO/IEC 27001:2022, NIST CSF 2.0 and the CISA Zero Trust Maturity Model.
// Catalogs are read-only: they are built once at load time and shared.
package catalog

import (
	"fmt"

	"github.com/conformeahq/conformea/pkg/maturity"
)

// Framework returns the spec of a supported framework, or an error for an
// unknown framework type.
func Framework(ft maturity.FrameworkType) (*maturity.FrameworkSpec, error) {
	switch ft {
	case maturity.FrameworkISO27001:
		return ISO27001(), nil
	case maturity.FrameworkNISTCSF:
		return NISTCSF(), nil
	case maturity.FrameworkCISAZTMM:
		return CISAZTMM(), nil
	default:
		return nil, fmt.Errorf("unknown framework %q", ft)
	}
}

// Frameworks returns every registered framework spec in a fixed order.
func Frameworks() []*maturity.FrameworkSpec {
	return []*maturity.FrameworkSpec{ISO27001(), NISTCSF(), CISAZTMM()}
}
