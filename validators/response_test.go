package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateResponsePartialBlocks(t *testing.T) {
	text := `Sure! Here is your JSON: {"CoreMetrics":{"confidence":0.9}}`

	result := ValidateResponse(text, "creative_density")
	assert.Equal(t, []string{"CoreMetrics"}, result.BlocksPresent)
	assert.Equal(t, []string{"Dynamics", "Interactions", "KeyEvents", "Patterns", "Quality"}, result.BlocksMissing)
	assert.Equal(t, 0.9, result.Data["CoreMetrics"]["confidence"])
}

func TestValidateResponseNoBraces(t *testing.T) {
	result := ValidateResponse("no json here at all", "speech_analysis")
	assert.Empty(t, result.BlocksPresent)
	assert.Len(t, result.BlocksMissing, 6)
	assert.NotEmpty(t, result.ParseError)
}

func TestValidateResponseMalformedJSON(t *testing.T) {
	// Balanced braces but invalid JSON inside.
	result := ValidateResponse(`{invalid json}`, "speech_analysis")
	assert.Empty(t, result.BlocksPresent)
	assert.Len(t, result.BlocksMissing, 6)
}

func TestValidateResponseAllBlocks(t *testing.T) {
	text := `{
		"CoreMetrics":{"confidence":0.8},
		"Dynamics":{"confidence":0.7},
		"Interactions":{"confidence":0.6},
		"KeyEvents":{"confidence":0.5},
		"Patterns":{"confidence":0.4},
		"Quality":{"confidence":0.3}
	}`

	result := ValidateResponse(text, "creative_density")
	assert.Len(t, result.BlocksPresent, 6)
	assert.Empty(t, result.BlocksMissing)
}

func TestValidateResponseLegacyNames(t *testing.T) {
	text := `{"densityCoreMetrics":{"confidence":0.8},"densityDynamics":{"confidence":0.7}}`

	result := ValidateResponse(text, "creative_density")
	assert.Contains(t, result.BlocksPresent, "CoreMetrics")
	assert.Contains(t, result.BlocksPresent, "Dynamics")
	assert.Equal(t, 0.8, result.Data["CoreMetrics"]["confidence"])
}

func TestValidateResponseCanonicalWinsOverLegacy(t *testing.T) {
	text := `{"CoreMetrics":{"confidence":0.9},"densityCoreMetrics":{"confidence":0.1}}`

	result := ValidateResponse(text, "creative_density")
	assert.Equal(t, 0.9, result.Data["CoreMetrics"]["confidence"])
}

func TestValidateResponseConfidenceNormalization(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "missing defaults", text: `{"CoreMetrics":{}}`, want: 0.5},
		{name: "non-numeric defaults", text: `{"CoreMetrics":{"confidence":"high"}}`, want: 0.5},
		{name: "above range clamps", text: `{"CoreMetrics":{"confidence":1.5}}`, want: 1.0},
		{name: "below range clamps", text: `{"CoreMetrics":{"confidence":-0.5}}`, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateResponse(tt.text, "creative_density")
			require.Contains(t, result.BlocksPresent, "CoreMetrics")
			assert.Equal(t, tt.want, result.Data["CoreMetrics"]["confidence"])
		})
	}
}

func TestValidateResponseNonObjectBlock(t *testing.T) {
	result := ValidateResponse(`{"CoreMetrics":[1,2,3]}`, "creative_density")
	assert.NotContains(t, result.BlocksPresent, "CoreMetrics")
	assert.Contains(t, result.BlocksMissing, "CoreMetrics")
}

func TestExtractBalancedObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "prose prefix", in: `Here you go: {"a":1}`, want: `{"a":1}`},
		{name: "nested", in: `x {"a":{"b":2}} y`, want: `{"a":{"b":2}}`},
		{name: "brace in string", in: `{"a":"}{"}`, want: `{"a":"}{"}`},
		{name: "unclosed", in: `{"a":1`, want: ""},
		{name: "no braces", in: `nothing`, want: ""},
		{name: "largest wins", in: `{"a":1} {"b":{"c":2}}`, want: `{"b":{"c":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractBalancedObject(tt.in))
		})
	}
}

// ValidateResponse must never panic regardless of input shape.
func TestValidateResponseNeverPanics(t *testing.T) {
	inputs := []string{
		"", "{", "}", "{{{{", strings.Repeat("{}", 10000),
		`{"CoreMetrics":null}`, "\x00\x01binary",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { ValidateResponse(in, "creative_density") })
	}
}

func TestCheckBlockSchemas(t *testing.T) {
	result := ValidateResponse(`{"CoreMetrics":{"confidence":0.9}}`, "creative_density")
	assert.Empty(t, CheckBlockSchemas(result))

	// Force an invalid block shape past normalization.
	result.Data["CoreMetrics"]["confidence"] = "broken"
	errs := CheckBlockSchemas(result)
	require.NotEmpty(t, errs)
	assert.Equal(t, "CoreMetrics", errs[0].Block)
}
