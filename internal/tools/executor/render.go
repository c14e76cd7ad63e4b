package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidcraft-ai/vidcraft/internal/tools/schemas"
)

// CommandRunner runs an external command in dir and returns its stderr.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command, discarding stdout.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// RenderConfig configures the render tool.
type RenderConfig struct {
	ManimBin   string // Default: manim
	SceneClass string // Default: MyScene
	Quality    string // l, m, h, p or k
	WorkDir    string // Default: os.TempDir()
	VideosDir  string // Default: <WorkDir>/videos
	URLPrefix  string // Default: /videos/
}

// RenderVideo renders Manim code to an MP4 file.
type RenderVideo struct {
	cfg    RenderConfig
	runner CommandRunner
}

// NewRenderVideo creates the render tool. A nil runner uses ExecRunner.
func NewRenderVideo(cfg RenderConfig, runner CommandRunner) *RenderVideo {
	if cfg.ManimBin == "" {
		cfg.ManimBin = "manim"
	}
	if cfg.SceneClass == "" {
		cfg.SceneClass = "MyScene"
	}
	if cfg.Quality == "" {
		cfg.Quality = "l"
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	if cfg.VideosDir == "" {
		cfg.VideosDir = filepath.Join(cfg.WorkDir, "videos")
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/videos/"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &RenderVideo{cfg: cfg, runner: runner}
}

func (t *RenderVideo) Name() schemas.Name { return schemas.RenderVideo }

func (t *RenderVideo) Description() string { return "Render Manim scene code to MP4" }

func (t *RenderVideo) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	start := time.Now()

	code, _ := input["code"].(string)
	if strings.TrimSpace(code) == "" {
		return TimedResult(NewErrorResult(fmt.Errorf("code is required")), start), nil
	}

	if err := os.MkdirAll(t.cfg.WorkDir, 0755); err != nil {
		return TimedResult(NewErrorResult(err), start), nil
	}
	stem := "scene_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	sceneFile := filepath.Join(t.cfg.WorkDir, stem+".py")
	if err := os.WriteFile(sceneFile, []byte(code), 0644); err != nil {
		return TimedResult(NewErrorResult(err), start), nil
	}
	defer os.Remove(sceneFile)

	args := []string{filepath.Base(sceneFile), t.cfg.SceneClass, "-q" + t.cfg.Quality, "--format", "mp4"}
	stderr, err := t.runner.Run(ctx, t.cfg.WorkDir, t.cfg.ManimBin, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return TimedResult(NewErrorResult(fmt.Errorf("manim render failed:\n%s", strings.TrimSpace(string(stderr)))), start), nil
	}

	rendered, err := findRendered(t.cfg.WorkDir, stem)
	if err != nil {
		return TimedResult(NewErrorResult(err), start), nil
	}

	final, err := moveInto(rendered, t.cfg.VideosDir, stem+".mp4")
	if err != nil {
		return TimedResult(NewErrorResult(err), start), nil
	}

	return TimedResult(NewSuccessResult(map[string]any{
		"video_url": t.cfg.URLPrefix + filepath.Base(final),
	}), start), nil
}

// findRendered returns the newest .mp4 under root whose path mentions stem.
func findRendered(root, stem string) (string, error) {
	var newest string
	var newestMod time.Time
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".mp4") || !strings.Contains(p, stem) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest, newestMod = p, info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if newest == "" {
		return "", fmt.Errorf("no MP4 found for %s under %s", stem, root)
	}
	return newest, nil
}

// moveInto moves src to dir/name, copying when a rename crosses devices.
func moveInto(src, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, name)
	if err := os.Rename(src, dest); err == nil {
		return dest, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	_ = os.Remove(src)
	return dest, nil
}
