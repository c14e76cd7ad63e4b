package selector

import (
	"strings"

	"github.com/vidcraft-ai/vidcraft/internal/planlib"
	"github.com/vidcraft-ai/vidcraft/internal/tools/schemas"
)

// Pattern is one rule of the deterministic fallback.
type Pattern struct {
	ID string

	// Keywords match against the lowercased request; any one suffices.
	// An empty list matches every request.
	Keywords []string

	// Markers match against the raw request, case-sensitive.
	Markers []string

	// Exclude vetoes the match when any word is present (lowercased).
	Exclude []string

	Build func(request string) *planlib.Plan
}

// Matches checks if the pattern matches the given request.
func (p *Pattern) Matches(request string) bool {
	lower := strings.ToLower(request)

	for _, w := range p.Exclude {
		if strings.Contains(lower, w) {
			return false
		}
	}

	if len(p.Markers) > 0 {
		for _, m := range p.Markers {
			if strings.Contains(request, m) {
				return true
			}
		}
		return false
	}

	if len(p.Keywords) == 0 {
		return true
	}
	for _, kw := range p.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Keyword sets, checked in priority order.
var (
	managementKeywords = []string{
		"see my videos", "video history", "manage videos", "burger menu", "sidebar",
		"video library", "show videos", "list videos", "my generations", "my videos",
	}
	editingKeywords = []string{
		"edit video", "trim video", "merge video", "video editor", "cut video", "combine videos",
	}
	codeMarkers    = []string{"class MyScene", "def construct"}
	renderKeywords = []string{"render", "compile", "execute", "video", "mp4"}
	createWords    = []string{"generate", "create"}
)

// defaultPatterns returns the fallback rules. The first match wins.
func defaultPatterns() []*Pattern {
	return []*Pattern{
		{
			ID:       "ui_manage_videos",
			Keywords: managementKeywords,
			Build: func(string) *planlib.Plan {
				return planlib.NewBuilder(planlib.StrategyFallback).
					Add(schemas.OpenBurgerMenu, "User wants to access video management interface",
						planlib.Params{"reason": planlib.Literal("User requested to see video library/history")}).
					Build()
			},
		},
		{
			ID:       "ui_edit_videos",
			Keywords: editingKeywords,
			Build: func(string) *planlib.Plan {
				return planlib.NewBuilder(planlib.StrategyFallback).
					Add(schemas.OpenVideoEditor, "User wants to edit videos",
						planlib.Params{"reason": planlib.Literal("User requested video editing functionality")}).
					Build()
			},
		},
		{
			ID:      "render_supplied_code",
			Markers: codeMarkers,
			Build: func(request string) *planlib.Plan {
				return planlib.NewBuilder(planlib.StrategyFallback).
					Add(schemas.RenderVideo, "User provided existing Manim code",
						planlib.Params{planlib.CodeKey: planlib.Literal(request)}).
					Build()
			},
		},
		{
			ID:       "render_only",
			Keywords: renderKeywords,
			Exclude:  createWords,
			Build: func(string) *planlib.Plan {
				return planlib.NewBuilder(planlib.StrategyFallback).
					Add(schemas.RenderVideo, "User wants to render existing code",
						planlib.Params{planlib.CodeKey: planlib.Unavailable(planlib.CodeKey)}).
					Build()
			},
		},
		{
			ID: "generate_and_render",
			Build: func(request string) *planlib.Plan {
				return planlib.NewBuilder(planlib.StrategyFallback).
					GenerateAndRender(request,
						"User wants to create new animation",
						"Generated code needs to be rendered").
					Build()
			},
		},
	}
}
