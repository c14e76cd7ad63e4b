// Package prompt builds the system prompt for model-driven tool selection.
package prompt

import (
	"fmt"
	"strings"
)

type Mode string

const (
	ModeFull    Mode = "full"
	ModeMinimal Mode = "minimal" // no worked examples
)

type Builder struct {
	Mode           Mode
	GeneratedToken string
}

type SelectionContext struct {
	Catalog string // "- name: description" lines
}

func NewBuilder(mode Mode, generatedToken string) *Builder {
	return &Builder{Mode: mode, GeneratedToken: generatedToken}
}

// BuildSelectionPrompt returns the policy preamble with the capability
// catalog embedded.
func (b *Builder) BuildSelectionPrompt(ctx SelectionContext) string {
	var sections []string
	sections = append(sections, "You are a tool selection expert for VidCraftAI.\nAnalyze the user's request and determine which tools should be used and in what order.")
	sections = append(sections, "Available tools:\n"+nonEmpty(ctx.Catalog, "None."))
	sections = append(sections, "Rules:\n"+selectionRules)
	sections = append(sections, b.placeholderSection())
	sections = append(sections, "UI Control Guidelines (ONLY when explicitly requested):\n"+uiGuidelines)
	sections = append(sections, "BE CONSERVATIVE: Only execute what the user actually asks for. Do not add extra steps or anticipate future actions.")
	sections = append(sections, b.formatSection())
	if b.Mode == ModeFull {
		sections = append(sections, b.examplesSection())
	}
	return strings.Join(sections, "\n\n")
}

// UserMessage wraps the raw request.
func UserMessage(request string) string {
	return "User request: " + request
}

const selectionRules = `1. If user wants to create animations/videos from scratch, use: generate_manim_code -> render_video
2. If user provides existing manim code to render, use: render_video only
3. If user EXPLICITLY asks to see their videos, video history, or manage videos, use: open_burger_menu
4. If user EXPLICITLY asks to edit, trim, merge, or modify videos, use: open_video_editor
5. ONLY execute UI tools when EXPLICITLY requested - do NOT anticipate future needs
6. Do NOT add UI actions unless the user specifically asks for them`

const uiGuidelines = `- Use "open_burger_menu" for: "show my videos", "video history", "manage videos", "video library", "open sidebar", "burger menu"
- Use "open_video_editor" for: "edit videos", "trim video", "merge videos", "video editor", "cut videos"`

func (b *Builder) placeholderSection() string {
	return fmt.Sprintf(`IMPORTANT: For parameters that depend on previous steps, use these exact placeholders:
- For code parameter that comes from generate_manim_code: use "%s"
- Do NOT use "from_previous_step" or similar text`, b.GeneratedToken)
}

func (b *Builder) formatSection() string {
	return fmt.Sprintf(`Respond with ONLY a JSON array of tool execution plans, no other text. Each plan must have:
- "tool": tool name
- "reasoning": why this tool was selected
- "parameters": what parameters to extract from user prompt (use %s for dependent parameters)`, b.GeneratedToken)
}

func (b *Builder) examplesSection() string {
	return fmt.Sprintf(`Example responses:
For "create a neural network animation":
[
  {"tool": "generate_manim_code", "reasoning": "User wants to create an animation", "parameters": {"prompt": "create a neural network animation"}},
  {"tool": "render_video", "reasoning": "Generated code needs to be rendered to video", "parameters": {"code": "%s"}}
]

For "show me my videos":
[
  {"tool": "open_burger_menu", "reasoning": "User explicitly requested to see their video library", "parameters": {"reason": "User requested to view their videos"}}
]`, b.GeneratedToken)
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
