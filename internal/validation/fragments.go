package validation

// Fragment schemas only pin down the fields the merger interprets; any other
// key is metadata copied through verbatim.

var identityProperties = map[string]any{
	"engine":  map[string]any{"type": "string"},
	"variant": map[string]any{"type": "string"},
	"arch":    map[string]any{"type": "string"},
}

// DistSchema describes dist/<arch>/*.json.
func DistSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": identityProperties,
	}
}

// BenchSchema describes bench/<arch>/*.json.
func BenchSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"metadata", "benchmarks"},
		"properties": map[string]any{
			"metadata": map[string]any{
				"type":       "object",
				"properties": identityProperties,
			},
			"benchmarks": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"score": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "number"},
						},
						"error": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}

// FragmentValidator checks dist and bench fragments before they reach the
// catalog merger.
type FragmentValidator struct {
	dist  *CompiledSchema
	bench *CompiledSchema
}

// NewFragmentValidator compiles the fragment schemas.
func NewFragmentValidator() (*FragmentValidator, error) {
	dist, err := Compile("dist", DistSchema())
	if err != nil {
		return nil, err
	}
	bench, err := Compile("bench", BenchSchema())
	if err != nil {
		return nil, err
	}
	return &FragmentValidator{dist: dist, bench: bench}, nil
}

// ValidateDist checks a decoded distribution fragment.
func (v *FragmentValidator) ValidateDist(payload any) error {
	return v.dist.Validate(payload)
}

// ValidateBench checks a decoded benchmark fragment.
func (v *FragmentValidator) ValidateBench(payload any) error {
	return v.bench.Validate(payload)
}
