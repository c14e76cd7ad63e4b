package executor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vidcraft-ai/vidcraft/internal/model"
	"github.com/vidcraft-ai/vidcraft/internal/tools/schemas"
)

// Generator produces text from a chat request.
type Generator interface {
	Generate(ctx context.Context, req *model.Request) (*model.Response, error)
}

const manimSystemPrompt = "You are a code generator for Manim Community v0.19.0. " +
	"Return ONLY a valid Python script defining one class `%s(Scene)` " +
	"with a `construct()` method, no markdown fences or commentary. " +
	"Make sure texts don't overlap and spelling is correct. " +
	"Avoid heavy LaTeX dependencies such as MathTex. " +
	"Keep the video in a 16:9 frame and follow the user's prompt."

const manimExamplePrompt = "Create a red circle that grows from radius 0 to 2 over 3 seconds."

const manimExampleCode = `from manim import *

class %s(Scene):
    def construct(self):
        circle = Circle(radius=0)
        circle.set_fill(RED, opacity=0.8)
        self.play(circle.animate.set(radius=2), run_time=3)
        self.wait()
`

var (
	fenceOpen  = regexp.MustCompile("^```(?:python)?\\n")
	fenceClose = regexp.MustCompile("\\n```$")
	easeIn     = regexp.MustCompile(`\brate_functions\.ease_in\b`)
	easeOut    = regexp.MustCompile(`\brate_functions\.ease_out\b`)
	construct  = regexp.MustCompile(`def\s+construct\s*\(\s*self`)
)

// ManimCode generates a Manim scene from a natural-language prompt.
type ManimCode struct {
	Model       Generator
	SceneClass  string
	Temperature float64
	MaxTokens   int
}

// NewManimCode creates the code generation tool.
func NewManimCode(m Generator, sceneClass string) *ManimCode {
	if sceneClass == "" {
		sceneClass = "MyScene"
	}
	return &ManimCode{
		Model:       m,
		SceneClass:  sceneClass,
		Temperature: 0.2,
		MaxTokens:   1200,
	}
}

func (t *ManimCode) Name() schemas.Name { return schemas.GenerateManimCode }

func (t *ManimCode) Description() string { return "Generate Manim scene code from a prompt" }

func (t *ManimCode) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	start := time.Now()

	prompt, _ := input["prompt"].(string)
	if strings.TrimSpace(prompt) == "" {
		return TimedResult(NewErrorResult(fmt.Errorf("prompt is required")), start), nil
	}
	if t.Model == nil {
		return TimedResult(NewErrorResult(fmt.Errorf("code generation model is not configured")), start), nil
	}

	resp, err := t.Model.Generate(ctx, &model.Request{
		System: fmt.Sprintf(manimSystemPrompt, t.SceneClass),
		History: []model.Message{
			{Role: model.RoleUser, Content: manimExamplePrompt},
			{Role: model.RoleAssistant, Content: fmt.Sprintf(manimExampleCode, t.SceneClass)},
		},
		Prompt:      prompt,
		Temperature: t.Temperature,
		MaxTokens:   t.MaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return TimedResult(NewErrorResult(fmt.Errorf("code generation API error: %w", err)), start), nil
	}

	code := CleanCode(resp.Text)
	if err := t.checkScene(code); err != nil {
		return TimedResult(NewErrorResult(err), start), nil
	}

	return TimedResult(NewSuccessResult(map[string]any{"code": code}), start), nil
}

// CleanCode strips markdown fences and rewrites rate function names that
// Manim does not define.
func CleanCode(raw string) string {
	code := strings.TrimSpace(raw) + "\n"
	code = fenceOpen.ReplaceAllString(code, "")
	code = strings.TrimRight(code, "\n")
	code = fenceClose.ReplaceAllString(code, "")
	code = easeIn.ReplaceAllString(code, "rate_functions.ease_in_quad")
	code = easeOut.ReplaceAllString(code, "rate_functions.ease_out_quad")
	return code + "\n"
}

func (t *ManimCode) checkScene(code string) error {
	if !strings.Contains(code, "class "+t.SceneClass+"(") || !construct.MatchString(code) {
		return fmt.Errorf("generated code does not define %s with a construct method; try again with a shorter prompt", t.SceneClass)
	}
	return nil
}
