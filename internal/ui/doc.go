// Package ui implements the terminal status view using bubbletea's Elm architecture.
//
// The (view) [Model] shows the current indicator text in a banner and keeps a scrollable,
// filterable list of earlier texts below it. Texts arrive as [Msg] values sent by the
// terminal indicator sink; the view never calls the remote service itself.
//
// Keyboard: j/k scroll the history, / filters it, c clears it, ? toggles help, q quits.
package ui
