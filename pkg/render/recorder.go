package render

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"image/color"
	"unicode/utf8"
)

// Op is one recorded drawing call
type Op struct {
	Kind        string    `json:"kind"` // clear, line, circle, pill, text
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	X2          float64   `json:"x2,omitempty"`
	Y2          float64   `json:"y2,omitempty"`
	W           float64   `json:"w,omitempty"`
	H           float64   `json:"h,omitempty"`
	R           float64   `json:"r,omitempty"`
	Color       string    `json:"color,omitempty"`
	Highlight   string    `json:"highlight,omitempty"`
	LineWidth   float64   `json:"lineWidth,omitempty"`
	Dash        []float64 `json:"dash,omitempty"`
	BorderColor string    `json:"borderColor,omitempty"`
	BorderWidth float64   `json:"borderWidth,omitempty"`
	Text        string    `json:"text,omitempty"`
	FontSize    float64   `json:"fontSize,omitempty"`
	Bold        bool      `json:"bold,omitempty"`
}

// Recorder is a Canvas that keeps a display list instead of pixels.
// Clear discards everything recorded so far.
type Recorder struct {
	width, height float64
	ops           []Op
}

// NewRecorder creates a recorder for a surface of the given size
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{width: width, height: height}
}

// Resize changes the reported surface size
func (r *Recorder) Resize(width, height float64) {
	r.width, r.height = width, height
}

func (r *Recorder) Size() (float64, float64) {
	return r.width, r.height
}

func (r *Recorder) Clear(bg color.NRGBA) {
	r.ops = r.ops[:0]
	r.ops = append(r.ops, Op{Kind: "clear", W: r.width, H: r.height, Color: Hex(bg)})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, s Stroke) {
	r.ops = append(r.ops, Op{
		Kind: "line", X: x1, Y: y1, X2: x2, Y2: y2,
		Color: Hex(s.Color), LineWidth: s.Width, Dash: append([]float64(nil), s.Dash...),
	})
}

func (r *Recorder) Circle(x, y, radius float64, f Fill, border Stroke) {
	op := Op{Kind: "circle", X: x, Y: y, R: radius, Color: Hex(f.Color)}
	if f.Radial {
		op.Highlight = Hex(f.Highlight)
	}
	if border.Width > 0 {
		op.BorderColor = Hex(border.Color)
		op.BorderWidth = border.Width
	}
	r.ops = append(r.ops, op)
}

func (r *Recorder) Pill(x, y, w, h, radius float64, fill color.NRGBA) {
	r.ops = append(r.ops, Op{Kind: "pill", X: x, Y: y, W: w, H: h, R: radius, Color: Hex(fill)})
}

func (r *Recorder) Text(s string, x, y float64, f Font, c color.NRGBA) {
	r.ops = append(r.ops, Op{Kind: "text", X: x, Y: y, Text: s, FontSize: f.Size, Bold: f.Bold, Color: Hex(c)})
}

// TextWidth approximates an average glyph as 0.6em.
func (r *Recorder) TextWidth(s string, f Font) float64 {
	return 0.6 * f.Size * float64(utf8.RuneCountInString(s))
}

// Ops returns a copy of the display list
func (r *Recorder) Ops() []Op {
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Load replaces the display list with a copy of ops
func (r *Recorder) Load(ops []Op) {
	r.ops = append(r.ops[:0:0], ops...)
}

// Count returns the number of ops of the given kind
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Hash identifies the recorded scene. Identical scenes hash equal.
func (r *Recorder) Hash() string {
	jsonData, err := json.Marshal(r.ops)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(jsonData)
	return fmt.Sprintf("%x", hash)
}

// Replay draws the recorded ops onto another canvas.
func (r *Recorder) Replay(c Canvas) error {
	for _, op := range r.ops {
		switch op.Kind {
		case "clear":
			bg, err := ParseHex(op.Color)
			if err != nil {
				return err
			}
			c.Clear(bg)
		case "line":
			col, err := ParseHex(op.Color)
			if err != nil {
				return err
			}
			c.Line(op.X, op.Y, op.X2, op.Y2, Stroke{Color: col, Width: op.LineWidth, Dash: op.Dash})
		case "circle":
			fill := Fill{}
			var err error
			if fill.Color, err = ParseHex(op.Color); err != nil {
				return err
			}
			if op.Highlight != "" {
				fill.Radial = true
				if fill.Highlight, err = ParseHex(op.Highlight); err != nil {
					return err
				}
			}
			border := Stroke{Width: op.BorderWidth}
			if op.BorderColor != "" {
				if border.Color, err = ParseHex(op.BorderColor); err != nil {
					return err
				}
			}
			c.Circle(op.X, op.Y, op.R, fill, border)
		case "pill":
			col, err := ParseHex(op.Color)
			if err != nil {
				return err
			}
			c.Pill(op.X, op.Y, op.W, op.H, op.R, col)
		case "text":
			col, err := ParseHex(op.Color)
			if err != nil {
				return err
			}
			c.Text(op.Text, op.X, op.Y, Font{Size: op.FontSize, Bold: op.Bold}, col)
		default:
			return fmt.Errorf("unknown op kind %q", op.Kind)
		}
	}
	return nil
}

// ParseHex parses #rrggbb or #rrggbbaa
func ParseHex(s string) (color.NRGBA, error) {
	c := color.NRGBA{A: 0xff}
	var err error
	switch len(s) {
	case 7:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	case 9:
		_, err = fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = fmt.Errorf("bad length")
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}
