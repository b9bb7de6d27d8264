package featuregrid

// Button identifies a pointer button.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
)

// Modifier is a bit set of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModAlt
)

// PointerEvent is a pointer press in pixel coordinates within a
// Width x Height viewport.
type PointerEvent struct {
	X, Y          float64
	Width, Height float64
	Button        Button
	Modifiers     Modifier
}

// KeyEvent is a key press with its held modifiers.
type KeyEvent struct {
	Key       rune
	Modifiers Modifier
}

// EnlargeEvent asks the host view to open a focused single-cell view of one
// box and its dimension pair.
type EnlargeEvent struct {
	Row, Col   int
	Dimensions DimensionPair
}

// OnEnlarge registers a handler for enlarge events. Handlers run
// synchronously on the event-dispatching goroutine, in registration order.
func (c *Controller) OnEnlarge(fn func(EnlargeEvent)) {
	c.enlargeHandlers = append(c.enlargeHandlers, fn)
}

// PointerPress dispatches a pointer press. Shift+left adds a lasso point in
// the box under the cursor, shift+right clears the lasso, and control emits
// an enlarge event for the box under the cursor. Events arriving before the
// first successful SetData, or without a pan-zoom service to resolve the
// box, are ignored.
func (c *Controller) PointerPress(ev PointerEvent) {
	if c.matrix == nil || c.collab.PanZoom == nil {
		return
	}
	switch {
	case ev.Modifiers == ModShift:
		if c.collab.Lasso == nil {
			return
		}
		switch ev.Button {
		case ButtonLeft:
			row, col := c.collab.PanZoom.BoxAt(ev.X, ev.Y, ev.Width, ev.Height)
			c.collab.Lasso.SetBox(row, col)
			wx, wy := c.collab.PanZoom.WorldAt(ev.X, ev.Y, ev.Width, ev.Height)
			c.collab.Lasso.Add(wx, wy)
		case ButtonRight:
			c.collab.Lasso.Clear()
		default:
			return
		}
		if r := c.collab.Renderer; r != nil {
			r.RequestDraw()
		}
	case ev.Modifiers == ModControl:
		row, col := c.collab.PanZoom.BoxAt(ev.X, ev.Y, ev.Width, ev.Height)
		event := EnlargeEvent{Row: row, Col: col, Dimensions: c.matrix.At(row, col)}
		for _, fn := range c.enlargeHandlers {
			fn(event)
		}
	}
}

// KeyPress dispatches a key press. Alt with + or - nudges the marker size
// by a quarter point.
func (c *Controller) KeyPress(ev KeyEvent) {
	if ev.Modifiers&ModAlt == 0 {
		return
	}
	switch ev.Key {
	case '+':
		c.SetMarkerSize(c.markerSize + markerSizeStep)
	case '-':
		c.SetMarkerSize(c.markerSize - markerSizeStep)
	}
}
