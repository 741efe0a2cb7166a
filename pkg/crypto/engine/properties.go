package engine

import "github.com/pkg/errors"

// Property names understood by algorithm handles. These identifiers are
// stable and must match the underlying provider exactly.
const (
	PropertyChainingMode     = "ChainingMode"
	PropertyBlockLength      = "BlockLength"
	PropertyHashDigestLength = "HashDigestLength"
	PropertyObjectLength     = "ObjectLength"
)

// ChainingMode selects how successive cipher blocks are combined.
type ChainingMode int

const (
	ModeCBC ChainingMode = iota
	ModeCFB
	ModeCTR
	ModeECB
)

// Provider-facing chaining mode identifiers. The mapping below is a closed
// table; changing any string breaks compatibility with existing providers.
const (
	ChainingModeCBC = "ChainingModeCBC"
	ChainingModeCFB = "ChainingModeCFB"
	ChainingModeCTR = "ChainingModeCTR"
	ChainingModeECB = "ChainingModeECB"
	ChainingModeNA  = "ChainingModeN/A"
)

var chainingModeNames = map[ChainingMode]string{
	ModeCBC: ChainingModeCBC,
	ModeCFB: ChainingModeCFB,
	ModeCTR: ChainingModeCTR,
	ModeECB: ChainingModeECB,
}

var chainingModeValues = map[string]ChainingMode{
	ChainingModeCBC: ModeCBC,
	ChainingModeCFB: ModeCFB,
	ChainingModeCTR: ModeCTR,
	ChainingModeECB: ModeECB,
}

// String returns the provider identifier for the mode.
func (m ChainingMode) String() string {
	if s, ok := chainingModeNames[m]; ok {
		return s
	}
	return ChainingModeNA
}

// ParseChainingMode maps a provider identifier back to a ChainingMode.
func ParseChainingMode(s string) (ChainingMode, error) {
	m, ok := chainingModeValues[s]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidArgument, "unknown chaining mode %q", s)
	}
	return m, nil
}

// IsStream reports whether the mode accepts input of any length, as opposed
// to the strict block alignment required by CBC and ECB.
func (m ChainingMode) IsStream() bool {
	return m == ModeCFB || m == ModeCTR
}

// UsesIV reports whether the mode requires an initialization vector.
func (m ChainingMode) UsesIV() bool {
	return m != ModeECB
}
