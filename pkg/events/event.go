package events

// Point is a location in logical pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vector is a displacement in logical pixels.
type Vector struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Tilt is a unit vector pointing from a pen tip to its far end. Z points
// out of the screen.
type Tilt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PointerDevice is the kind of pointing device that produced an event.
type PointerDevice uint8

const (
	// DeviceTouch is imprecise finger input.
	DeviceTouch PointerDevice = iota
	// DevicePen is stylus input.
	DevicePen
	// DeviceEraser is the eraser end of a stylus.
	DeviceEraser
	// DeviceCursor is any indirect input such as a mouse or trackpad.
	DeviceCursor
)

// Precise reports whether the device can hit small targets.
func (d PointerDevice) Precise() bool {
	return d != DeviceTouch
}

// Volatile reports whether the device cannot be expected to hold still,
// which matters for drag thresholds.
func (d PointerDevice) Volatile() bool {
	return d != DeviceCursor
}

// Hover is a pointer moving without contact. Touch devices never hover.
type Hover struct {
	// PointerID is a stable hardware pointer id, or zero.
	PointerID      uint64        `json:"pointerId"`
	Location       Point         `json:"location"`
	WindowLocation Point         `json:"windowLocation"`
	Tilt           Tilt          `json:"tilt"`
	Device         PointerDevice `json:"device"`
}

// Type implements Event.
func (Hover) Type() Type { return TypeHover }

// PointerPhase is the phase of a pointer contact.
type PointerPhase uint8

const (
	PointerDown PointerPhase = iota
	PointerMove
	PointerUp
	PointerCancel
)

// Pointer is a pointer contact event.
type Pointer struct {
	PointerID      uint64        `json:"pointerId"`
	Phase          PointerPhase  `json:"phase"`
	Location       Point         `json:"location"`
	WindowLocation Point         `json:"windowLocation"`
	// Pressure is between 0 and 1; devices without pressure report 1.
	Pressure       float64       `json:"pressure"`
	Tilt           Tilt          `json:"tilt"`
	Device         PointerDevice `json:"device"`
}

// Type implements Event.
func (Pointer) Type() Type { return TypePointer }

// Modifiers is the modifier key state during a key event.
type Modifiers struct {
	Shift   bool `json:"shift"`
	Control bool `json:"control"`
	Option  bool `json:"option"`
	Command bool `json:"command"`
}

// KeyCode is a layout-independent key identifier.
type KeyCode uint8

// Key codes. Letters and digits are contiguous.
const (
	KeyUnknown KeyCode = 0
	KeyA       KeyCode = 0x01
	KeyZ       KeyCode = 0x1A
	Key0       KeyCode = 0x20
	Key9       KeyCode = 0x29

	KeyReturn        KeyCode = 0x35
	KeyTab           KeyCode = 0x36
	KeySpace         KeyCode = 0x37
	KeyDelete        KeyCode = 0x38
	KeyEscape        KeyCode = 0x39
	KeyLeftArrow     KeyCode = 0x44
	KeyDownArrow     KeyCode = 0x45
	KeyUpArrow       KeyCode = 0x46
	KeyRightArrow    KeyCode = 0x47
	KeyForwardDelete KeyCode = 0x48
	KeyHome          KeyCode = 0x4A
	KeyEnd           KeyCode = 0x4B
	KeyPageUp        KeyCode = 0x4C
	KeyPageDown      KeyCode = 0x4D
)

// Letter returns the key code for an ASCII letter, or KeyUnknown.
func Letter(r rune) KeyCode {
	switch {
	case r >= 'a' && r <= 'z':
		return KeyA + KeyCode(r-'a')
	case r >= 'A' && r <= 'Z':
		return KeyA + KeyCode(r-'A')
	}
	return KeyUnknown
}

// Digit returns the key code for an ASCII digit, or KeyUnknown.
func Digit(r rune) KeyCode {
	if r >= '0' && r <= '9' {
		return Key0 + KeyCode(r-'0')
	}
	return KeyUnknown
}

// Key is a key press, repeat or release.
type Key struct {
	Code      KeyCode   `json:"code"`
	Modifiers Modifiers `json:"modifiers"`
	Down      bool      `json:"down"`
	Repeat    bool      `json:"repeat"`
}

// Type implements Event.
func (Key) Type() Type { return TypeKey }

// Scroll is a scroll wheel or trackpad scroll.
type Scroll struct {
	Location       Point  `json:"location"`
	WindowLocation Point  `json:"windowLocation"`
	Delta          Vector `json:"delta"`
	// Discrete is set for devices that scroll in increments and may
	// benefit from smoothing.
	Discrete bool `json:"discrete"`
}

// Type implements Event.
func (Scroll) Type() Type { return TypeScroll }
