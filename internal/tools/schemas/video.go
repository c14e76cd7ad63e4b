package schemas

// RegisterVideoCapabilities registers the animation, render and UI signal
// capabilities.
func RegisterVideoCapabilities(registry *Registry) {
	registry.Register(NewSchema(GenerateManimCode,
		"Generates Python code using Manim library for creating mathematical animations, geometric shapes, text animations, and educational visualizations. Use this when user wants to create animations, mathematical content, or visual demonstrations.").
		AddParam("prompt", TypeString, "Description of the animation to create", true).
		WithKeywords("animation", "manim", "mathematical", "geometric", "visual", "educational", "shapes", "text", "movement", "graphics").
		Build())

	registry.Register(NewSchema(RenderVideo,
		"Renders Manim Python code into an MP4 video file. Use this after generating manim code or when user has existing manim code that needs to be converted to video.").
		AddParam("code", TypeString, "Python code containing Manim scene definition", true).
		WithKeywords("render", "video", "mp4", "compile", "execute", "manim", "code", "output").
		Build())

	registry.Register(NewSchema(OpenBurgerMenu,
		"Opens the burger menu/sidebar to show video library and management options. Use when user wants to see their generated videos, video history, manage videos, or access video library.").
		AddParam("reason", TypeString, "Reason why the burger menu should be opened", true).
		WithKeywords("videos", "history", "library", "manage", "burger", "menu", "sidebar", "generated", "see", "view", "show", "list").
		Signal().
		Build())

	registry.Register(NewSchema(OpenVideoEditor,
		"Opens the video editor interface for trimming, merging, and editing videos. Use when user wants to edit, trim, merge, or modify existing videos.").
		AddParam("reason", TypeString, "Reason why the video editor should be opened", true).
		AddParamWithDefault("suggested_videos", TypeArray, "Optional list of video IDs to pre-select for editing", []string{}).
		WithKeywords("edit", "trim", "merge", "cut", "combine", "modify", "editor", "video editor", "editing").
		Signal().
		Build())
}
