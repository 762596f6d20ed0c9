package hotkeys

// Backend grabs combos from the operating system and reports presses.
type Backend interface {
	Register(c Combo) error
	Unregister(c Combo) error
	// Events delivers a combo every time a registered combo is pressed.
	Events() <-chan Combo
	Close() error
}
