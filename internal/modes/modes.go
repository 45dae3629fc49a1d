// Package modes holds the static catalog of generation modes. A mode decides the system instruction a
// chat session is created with and how its output is previewed and exported.
package modes

import (
	"fmt"
	"strings"
)

// Output canvas size every mode targets.
const (
	OutputWidth  = 800
	OutputHeight = 600
)

// Mode describes one kind of artifact the model can be asked to produce.
type Mode struct {
	Key   string
	Name  string
	Emoji string
	// Syntax is the highlighting language of the generated source, or "image" for image output.
	Syntax            string
	SystemInstruction string
	Presets           []Preset

	// TitlePrefix is prepended to the prompt to title an exported artifact.
	TitlePrefix string
	ImageOutput bool
}

// Preset is a one-click example prompt.
type Preset struct {
	Label  string
	Prompt string
}

// DefaultKey is the mode used when none, or an unknown one, is selected.
const DefaultKey = "ui"

var unsplashIDs = []string{
	"photo-1549880338-65ddcdfd017b",
	"photo-1500530855697-b586d89ba3ee",
	"photo-1517817748496-62facd949d43",
	"photo-1501785888041-af3ef285b470",
	"photo-1507525428034-b723cf961d3e",
}

// imageFallbackScript is the inline helper HTML modes embed so an <img> always shows something: it
// cycles through the Unsplash ids, then picsum.photos.
func imageFallbackScript() string {
	return fmt.Sprintf(`window.__imgOk = function imgOk(el, w, h){
  if(!el) return;
  const IDS = ["%[1]s"];
  let idx = 0;
  const W = Math.max(1, Math.floor(w || el.naturalWidth || %[2]d));
  const H = Math.max(1, Math.floor(h || el.naturalHeight || %[3]d));
  const next = () => {
    if (idx < IDS.length) {
      el.src = "https://images.unsplash.com/" + IDS[idx++] + "?auto=format&fit=crop&q=80&w=" + W + "&h=" + H;
      return;
    }
    el.src = "https://picsum.photos/" + W + "/" + H;
  };
  el.referrerPolicy = "no-referrer";
  el.crossOrigin = "anonymous";
  el.onerror = () => { next(); };
  if(!el.src) next();
};
`, strings.Join(unsplashIDs, `", "`), OutputWidth, OutputHeight)
}

var catalog = []Mode{
	{
		Key:    "ui",
		Name:   "Tailwind UI",
		Emoji:  "🧩",
		Syntax: "html",
		SystemInstruction: `You are an expert web developer specializing in Tailwind CSS.
You will be given a prompt, which could be text or a combination of text and an image.
Your task is to generate a complete, self-contained HTML file that implements the described UI component or webpage.
The generated file must include a <script> tag to load Tailwind CSS from the CDN ('https://cdn.tailwindcss.com').
The HTML should be well-structured, and all styling must be done using Tailwind CSS classes.
The entire response must be a single block of HTML code. Do not include any explanations, comments, or markdown formatting like ` + "```html" + `. Just return the raw HTML code.
Ensure the design is modern, responsive, and aesthetically pleasing. If an image is provided, use it as a visual reference for the design.`,
		TitlePrefix: "Build",
		Presets: []Preset{
			{Label: "🔐 login form", Prompt: "a login form"},
			{Label: "💳 pricing table", Prompt: "a pricing table with three tiers"},
			{Label: "📊 dashboard", Prompt: "an analytics dashboard with cards and a chart placeholder"},
			{Label: "🛒 product card", Prompt: "a product card with image, price and add to cart button"},
		},
	},
	{
		Key:    "p5",
		Name:   "P5.js",
		Emoji:  "🎨",
		Syntax: "javascript",
		SystemInstruction: fmt.Sprintf(`You are an expert P5.js developer. Output ONLY P5 JavaScript for a %[1]dx%[2]d sketch that runs without blanks.

Image rules:
- Prefer Unsplash images that resolve: use any of these IDs: %[3]s.
- Build URLs exactly like:
  const W=%[1]d, H=%[2]d;
  const URL = "https://images.unsplash.com/%[4]s?auto=format&fit=crop&q=80&w=" + W + "&h=" + H;
- Use preload() with loadImage(URL, ...) and set img. If it fails, draw a visible gradient instead (never leave the canvas blank).
- Never attempt CORS-tainting get() without checks; only draw the image or fallback.
- Show something visible in setup() before images finish loading (e.g., background gradient).

Sketch checklist:
- createCanvas(%[1]d, %[2]d);
- background(...) in setup so first frame is never blank.
- If image not ready, draw gradient; when ready, draw image + overlays/animation.
- Add minimal interactivity (mouse move/press) if appropriate.
- Return ONLY the P5 code (no HTML, no comments outside code).`,
			OutputWidth, OutputHeight, strings.Join(unsplashIDs, ", "), unsplashIDs[0]),
		TitlePrefix: "Code",
		Presets: []Preset{
			{Label: "🐦 birds", Prompt: "flock of birds"},
			{Label: "⏰ clock", Prompt: "analog clock"},
			{Label: "🖼️ portrait", Prompt: "an abstract self portrait"},
			{Label: "😵‍💫 illusion", Prompt: "an optical illusion"},
			{Label: "💧 raindrops", Prompt: "raindrops"},
			{Label: "📺 TV", Prompt: "simulation of a TV with different channels"},
			{Label: "🌈 kaleidoscope", Prompt: "colorful interactive kaleidoscope"},
			{Label: "🎉 confetti", Prompt: "confetti"},
			{Label: "🎆 fireworks", Prompt: "fireworks"},
			{Label: "🐜 ants", Prompt: "ant simulation"},
			{Label: "✨ fireflies", Prompt: "fireflies"},
			{Label: "🌳 fractal", Prompt: "fractal tree"},
			{Label: "🌊 pond", Prompt: "pond ripples"},
			{Label: "🚲 pelican riding bicycle", Prompt: "a pelican riding a bicycle"},
		},
	},
	{
		Key:    "svg",
		Name:   "SVG",
		Emoji:  "📐",
		Syntax: "xml",
		SystemInstruction: fmt.Sprintf(`You are an expert at turning prompts into a single, self-contained SVG.
- Output size %[1]dx%[2]d with viewBox="0 0 %[1]d %[2]d" on the root <svg>.
- Do NOT link external images in SVG. Use gradients/shapes/filters. No blank or near-invisible output.
- Return ONLY SVG markup.`, OutputWidth, OutputHeight),
		TitlePrefix: "Draw",
		Presets: []Preset{
			{Label: "🦄 unicorn", Prompt: "a unicorn"},
			{Label: "🦀 crab", Prompt: "a crab"},
			{Label: "🐭 mouse", Prompt: "a cute mouse"},
			{Label: "🚲 pelican riding bicycle", Prompt: "a pelican riding a bicycle"},
			{Label: "🍉 watermelon", Prompt: "a watermelon"},
			{Label: "🎂 cake", Prompt: "a birthday cake"},
			{Label: "🍦 ice cream", Prompt: "an ice cream cone"},
			{Label: "🏙️ city", Prompt: "a city"},
			{Label: "🏖️ beach", Prompt: "a beach"},
			{Label: "💻 computer", Prompt: "a computer"},
			{Label: "🖥️ GUI", Prompt: "a computer GUI with labels"},
			{Label: "🛋️ floor plan", Prompt: "a living room floor plan with labels"},
			{Label: "🤖 robot", Prompt: "a robot"},
		},
	},
	{
		Key:    "html",
		Name:   "HTML/JS",
		Emoji:  "📄",
		Syntax: "html",
		SystemInstruction: fmt.Sprintf(`You are an expert web developer. Output a COMPLETE single-file app (HTML + inline CSS + JS) that:
- Looks good at ~4:3 and mobile widths.
- Shows a REAL image immediately (no blanks) and a working link button.

STRICT image/link rules:
- Place an <img id="hero"> with src set to a concrete Unsplash ID: %[1]s.
- <img> MUST include referrerpolicy="no-referrer" and crossOrigin="anonymous".
- Add onerror to rotate through %[2]d IDs (%[3]s) and finally picsum.photos to guarantee display.
- Include a visible <a id="heroLink" target="_blank" rel="noopener" href="https://unsplash.com/photos/%[1]s">Open Image</a>.
  This MUST be a real link (not a placeholder) and update if the fallback swaps to a different ID.
- Embed this helper in a <script> tag and call window.__imgOk(hero, %[4]d, %[5]d) once the page loads:
%[6]s
Return ONLY the final HTML.`, unsplashIDs[0], len(unsplashIDs), strings.Join(unsplashIDs, ", "),
			OutputWidth, OutputHeight, imageFallbackScript()),
		TitlePrefix: "Code",
		Presets: []Preset{
			{Label: "☀️ weather app", Prompt: "a simulated weather app"},
			{Label: "📝 todo list", Prompt: "a todo list"},
			{Label: "🪙 coin flip", Prompt: "coin flipping app, with an animated coin"},
			{Label: "🗓️ calendar", Prompt: "a calendar"},
			{Label: "🧮 calculator", Prompt: "a calculator"},
			{Label: "🎮 tic-tac-toe", Prompt: "tic tac toe game where you play against the computer"},
			{Label: "✏️ drawing app", Prompt: "simple drawing app"},
			{Label: "🎨 pixel art", Prompt: "pixel art painting app"},
			{Label: "📎 infinite paperclip game", Prompt: "infinite paperclip game"},
			{Label: "🖥️ computer terminal", Prompt: "a vintage computer terminal simulation"},
			{Label: "🧠 memory game", Prompt: "a memory game"},
		},
	},
	{
		Key:    "three",
		Name:   "Three.js",
		Emoji:  "3️⃣",
		Syntax: "html",
		SystemInstruction: fmt.Sprintf(`You are an expert Three.js dev. Output a COMPLETE HTML document that:
- Shows a 3D scene immediately (never blank), with OrbitControls and responsive canvas.
- Uses an Unsplash texture with *guaranteed* fallback and a working "Open Image" link.

Imports:
- three + OrbitControls from ESM: https://esm.run/three and https://esm.run/three/examples/jsm/controls/OrbitControls

Image & link rules:
- Use IDs: %[1]s. Start with %[2]s.
- Build texture URL via images.unsplash.com with w=1024&h=1024, q=80.
- Set texture loader crossOrigin = 'anonymous'.
- On a texture error move on to the next ID, then try https://picsum.photos/1024/1024 as a last resort.
- If every texture fails, use a MeshStandardMaterial with a visible color.
- Include a real anchor <a id="heroLink" href="https://unsplash.com/photos/%[2]s" target="_blank" rel="noopener">Open Image</a>
  and update it if fallback swaps to another ID.
- Embed this helper in a <script> tag for any <img> the page shows:
%[3]s
Return ONLY the HTML.`, strings.Join(unsplashIDs, ", "), unsplashIDs[0], imageFallbackScript()),
		TitlePrefix: "Code",
		Presets: []Preset{
			{Label: "📦 cubes", Prompt: "a dynamic 3D grid of cubes that react to mouse position by changing scale and color"},
			{Label: "🌌 galaxy", Prompt: "a procedural colorful galaxy with thousands of randomly placed and sized stars (spheres with basic materials)"},
			{Label: "👤 figure", Prompt: "a 3D figure created using basic geometric shapes (spheres for head, cylinders for limbs, etc.) with different colors"},
			{Label: "🐭 mouse", Prompt: "a cute 3D mouse"},
			{Label: "🏀 bouncing ball", Prompt: "a bouncing 3D ball that casts a dynamic shadow on a plane"},
			{Label: "🌊 undulating surface", Prompt: "something interesting using the Math.sin() function to create an undulating surface in 3D"},
			{Label: "🍩 donuts", Prompt: "a scene composed entirely of interconnected tori (donut shapes) forming a complex structure"},
			{Label: "🪑 table", Prompt: "a 3D table and chairs"},
			{Label: "🌳 trees", Prompt: "a 3D terrain with trees and blue sky"},
		},
	},
	{
		Key:    "image",
		Name:   "Images",
		Emoji:  "🖼️",
		Syntax: "image",
		SystemInstruction: fmt.Sprintf(`You are an expert at turning text prompts into images. Target %dx%d. Ensure fully realized compositions (no blanks).`,
			OutputWidth, OutputHeight),
		ImageOutput: true,
	},
}

// All returns the catalog in display order.
func All() []Mode {
	out := make([]Mode, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the mode with the given key.
func Lookup(key string) (Mode, bool) {
	for _, m := range catalog {
		if m.Key == key {
			return m, true
		}
	}
	return Mode{}, false
}

// Get returns the mode with the given key, or the default mode when the key is unknown.
func Get(key string) Mode {
	if m, ok := Lookup(key); ok {
		return m
	}
	m, _ := Lookup(DefaultKey)
	return m
}

// Title names an artifact produced from prompt.
func (m Mode) Title(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if m.TitlePrefix == "" {
		return prompt
	}
	if prompt == "" {
		return m.TitlePrefix + " " + strings.ToLower(m.Name)
	}
	return m.TitlePrefix + " " + prompt
}

// Extension is the file extension of the mode's raw source.
func (m Mode) Extension() string {
	switch m.Syntax {
	case "javascript":
		return "js"
	case "xml":
		return "svg"
	case "image":
		return "png"
	default:
		return "html"
	}
}
