package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterVideoCapabilities(t *testing.T) {
	r := NewRegistry()
	RegisterVideoCapabilities(r)

	list := r.List()
	require.Len(t, list, len(AllNames()))
	for i, name := range AllNames() {
		assert.Equal(t, name, list[i].Name)
	}

	menu, ok := r.Get(OpenBurgerMenu)
	require.True(t, ok)
	assert.True(t, menu.IsSignal())

	render, ok := r.Get(RenderVideo)
	require.True(t, ok)
	assert.False(t, render.IsSignal())
	p, ok := render.Param("code")
	require.True(t, ok)
	assert.True(t, p.Required)
}

func TestInputSchema(t *testing.T) {
	s := NewSchema(OpenVideoEditor, "editor").
		AddParam("reason", TypeString, "why", true).
		AddParamWithDefault("suggested_videos", TypeArray, "ids", []string{}).
		Signal().
		Build()

	in := s.InputSchema()
	assert.Equal(t, "object", in["type"])
	assert.Equal(t, []string{"reason"}, in["required"])

	props := in["properties"].(map[string]interface{})
	videos := props["suggested_videos"].(map[string]interface{})
	assert.Equal(t, "array", videos["type"])
	assert.Equal(t, []string{}, videos["default"])
}

func TestCheckType(t *testing.T) {
	cases := []struct {
		typ  string
		v    any
		want bool
	}{
		{TypeString, "x", true},
		{TypeString, 1, false},
		{TypeArray, []any{"a"}, true},
		{TypeArray, []string{"a"}, true},
		{TypeArray, "a", false},
		{TypeInteger, float64(3), true},
		{TypeInteger, 3.5, false},
		{TypeBoolean, true, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CheckType(tc.typ, tc.v), "%s %v", tc.typ, tc.v)
	}
}

func TestParseName(t *testing.T) {
	n, ok := ParseName("render_video")
	assert.True(t, ok)
	assert.Equal(t, RenderVideo, n)

	_, ok = ParseName("Render_Video")
	assert.False(t, ok)
}
