package editor

// PointerEvent is the normalized pointer input consumed by the editors.
// X and Y are page coordinates; the movement fields are deltas since the
// previous event of the same gesture.
type PointerEvent struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	MovementX float64 `json:"movementX"`
	MovementY float64 `json:"movementY"`
}

// WheelEvent is a wheel notch at page position X, Y.
type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
}

// MouseEvent carries the fields browsers report for mouse and pointer events.
type MouseEvent struct {
	PageX     float64 `json:"pageX"`
	PageY     float64 `json:"pageY"`
	MovementX float64 `json:"movementX"`
	MovementY float64 `json:"movementY"`
}

// FromMouse adapts a mouse or pointer event.
func FromMouse(ev MouseEvent) PointerEvent {
	return PointerEvent{X: ev.PageX, Y: ev.PageY, MovementX: ev.MovementX, MovementY: ev.MovementY}
}

// TouchTracker adapts touch input, which reports only absolute positions, by
// remembering the previous touch point of the gesture.
type TouchTracker struct {
	lastX, lastY float64
	active       bool
}

// Start begins a touch gesture. The first event carries no movement.
func (t *TouchTracker) Start(x, y float64) PointerEvent {
	t.lastX, t.lastY, t.active = x, y, true
	return PointerEvent{X: x, Y: y}
}

// Move reports a touch move with movement relative to the previous point.
func (t *TouchTracker) Move(x, y float64) PointerEvent {
	if !t.active {
		return t.Start(x, y)
	}
	ev := PointerEvent{X: x, Y: y, MovementX: x - t.lastX, MovementY: y - t.lastY}
	t.lastX, t.lastY = x, y
	return ev
}

// End finishes the gesture.
func (t *TouchTracker) End(x, y float64) PointerEvent {
	ev := t.Move(x, y)
	t.active = false
	return ev
}
