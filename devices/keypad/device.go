// Package keypad maps keyboard and gamepad input onto the 16 key hex keypad.
package keypad

import (
	"context"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/retroenv/retrogolib/log"

	"github.com/hexaflex/chippy/devices"
)

// Keys maps keyboard keys onto keypad indices. The left hand block of a
// QWERTY keyboard mirrors the COSMAC VIP keypad layout:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var Keys = map[glfw.Key]int{
	glfw.Key1: 0x1, glfw.Key2: 0x2, glfw.Key3: 0x3, glfw.Key4: 0xc,
	glfw.KeyQ: 0x4, glfw.KeyW: 0x5, glfw.KeyE: 0x6, glfw.KeyR: 0xd,
	glfw.KeyA: 0x7, glfw.KeyS: 0x8, glfw.KeyD: 0x9, glfw.KeyF: 0xe,
	glfw.KeyZ: 0xa, glfw.KeyX: 0x0, glfw.KeyC: 0xb, glfw.KeyV: 0xf,
}

// Buttons maps gamepad buttons onto keypad indices. The directional pad
// covers the 2/4/6/8 cursor keys most programs use.
var Buttons = map[glfw.GamepadButton]int{
	glfw.ButtonDpadUp:    0x2,
	glfw.ButtonDpadLeft:  0x4,
	glfw.ButtonDpadRight: 0x6,
	glfw.ButtonDpadDown:  0x8,
	glfw.ButtonA:         0x5,
	glfw.ButtonB:         0xb,
	glfw.ButtonX:         0x7,
	glfw.ButtonY:         0x9,
	glfw.ButtonBack:      0xe,
	glfw.ButtonStart:     0xf,
}

// Device forwards key edges to the machine.
type Device struct {
	ctx     context.Context
	logger  *log.Logger
	machine devices.Machine
	joy     glfw.Joystick
	buttons [glfw.ButtonLast + 1]bool // Last observed gamepad button state.
	gamepad bool                      // Gamepad connected?
}

var _ devices.Device = &Device{}

// New creates a new device. Key events are forwarded under ctx.
func New(ctx context.Context, logger *log.Logger) *Device {
	return &Device{
		ctx:    ctx,
		logger: logger,
	}
}

// ID returns the device id.
func (d *Device) ID() devices.ID {
	return devices.KeypadID
}

// Startup initializes device resources.
// It detects any connected gamepad.
func (d *Device) Startup(m devices.Machine) error {
	d.machine = m
	glfw.SetJoystickCallback(d.configure)

	for joy := glfw.Joystick1; joy <= glfw.JoystickLast; joy++ {
		if joy.Present() && joy.IsGamepad() {
			d.configure(joy, glfw.Connected)
			break
		}
	}

	return nil
}

// Shutdown clears up device resources.
func (d *Device) Shutdown() error {
	glfw.SetJoystickCallback(nil)
	d.machine = nil
	d.gamepad = false
	return nil
}

// HandleKey forwards a keyboard event. Returns false if the key is not
// part of the keypad mapping.
func (d *Device) HandleKey(key glfw.Key, action glfw.Action) bool {
	index, ok := Keys[key]
	if !ok {
		return false
	}

	switch action {
	case glfw.Press:
		d.send(index, true)
	case glfw.Release:
		d.send(index, false)
	}

	return true
}

// Update polls the gamepad and forwards button edges.
func (d *Device) Update() {
	if !d.gamepad {
		return
	}

	state := d.joy.GetGamepadState()
	if state == nil {
		return
	}

	for btn, action := range state.Buttons {
		pressed := action == glfw.Press
		if pressed == d.buttons[btn] {
			continue
		}

		d.buttons[btn] = pressed
		if index, ok := Buttons[glfw.GamepadButton(btn)]; ok {
			d.send(index, pressed)
		}
	}
}

func (d *Device) send(index int, pressed bool) {
	if d.machine == nil {
		return
	}

	var err error
	if pressed {
		err = d.machine.Press(d.ctx, index)
	} else {
		err = d.machine.Release(d.ctx, index)
	}

	if err != nil {
		d.logger.Debug("key event dropped", log.Int("key", index), log.Err(err))
	}
}

// configure is called whenever a joystick is connected or disconnected from the system.
func (d *Device) configure(joy glfw.Joystick, event glfw.PeripheralEvent) {
	d.gamepad = event == glfw.Connected && joy.IsGamepad()
	d.joy = joy

	if d.gamepad {
		d.logger.Info("gamepad connected", log.String("name", joy.GetGamepadName()))
	} else {
		d.logger.Info("gamepad disconnected")
	}

	// Release whatever the old gamepad was holding.
	for btn, pressed := range d.buttons {
		if pressed {
			if index, ok := Buttons[glfw.GamepadButton(btn)]; ok {
				d.send(index, false)
			}
		}
		d.buttons[btn] = false
	}
}
