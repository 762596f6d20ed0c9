// Package hotkeys maps global keyboard chords to handlers.
//
// A chord is one or more combos separated by commas; a combo is modifiers and one key joined
// with "+", e.g. "control + alt + shift + b, 3". Spaces are ignored and names are
// case-insensitive.
//
// Single-step chords grab their combo from the [Backend] for as long as they are bound.
// Multi-step chords only grab the leader. Pressing a leader arms a follow-up window during
// which the possible next combos are grabbed too; the first match dispatches and the window
// closes on any press or on timeout, releasing the temporary grabs.
//
// All events are consumed by [Table.Listen], which runs handlers one at a time.
package hotkeys
