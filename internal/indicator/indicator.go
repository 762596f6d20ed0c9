// package indicator shows the current track in a small always-visible status text.
//
// Every sink implements [Indicator]. SetText is fire and forget: sinks never block the
// caller on slow consumers and never return errors.
package indicator

import (
	"fmt"

	"github.com/desertthunder/spotkey/internal/models"
)

// Liked-state glyphs shown before the track text.
const (
	GlyphLiked   = "♥"
	GlyphUnliked = "♡"
	GlyphUnknown = "?"
)

// Indicator displays a single line of status text.
type Indicator interface {
	SetText(text string)
}

// Func adapts a plain function to [Indicator].
type Func func(text string)

func (f Func) SetText(text string) { f(text) }

// Multi fans a text out to every sink.
type Multi []Indicator

func (m Multi) SetText(text string) {
	for _, sink := range m {
		if sink != nil {
			sink.SetText(text)
		}
	}
}

// Discard drops every text.
var Discard Indicator = Func(func(string) {})

// Glyph returns the liked glyph; a nil liked means the state could not be read.
func Glyph(liked *bool) string {
	switch {
	case liked == nil:
		return GlyphUnknown
	case *liked:
		return GlyphLiked
	default:
		return GlyphUnliked
	}
}

// TrackText formats "<glyph> <album> · <track>" for the indicator.
func TrackText(track *models.Track, liked *bool) string {
	if track == nil {
		return GlyphUnknown + " nothing playing"
	}
	if track.Album == "" {
		return fmt.Sprintf("%s %s", Glyph(liked), track.Name)
	}
	return fmt.Sprintf("%s %s · %s", Glyph(liked), track.Album, track.Name)
}
