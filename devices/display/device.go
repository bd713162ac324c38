// Package display presents the published core frames in an OpenGL context.
package display

import (
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/pkg/errors"

	"github.com/hexaflex/chippy/devices"
	"github.com/hexaflex/chippy/devices/cpu"
)

// Display properties.
const (
	Width  = cpu.Width  // Display width in pixels.
	Height = cpu.Height // Display height in pixels.
)

// Device defines all internal doodads for the display.
type Device struct {
	machine     devices.Machine
	palette     *cpu.Palette
	pixels      [cpu.FrameBytes]byte
	shader      uint32
	vao         uint32
	vbo         uint32
	texture     uint32
	last        *cpu.Frame // Frame currently held by the texture.
	initialized bool
}

var _ devices.Device = &Device{}

// New creates a new device using the given palette.
// A nil palette selects cpu.DefaultPalette.
func New(palette *cpu.Palette) *Device {
	if palette == nil {
		palette = &cpu.DefaultPalette
	}
	return &Device{palette: palette}
}

// Draw renders the most recently published frame.
// It must be called from the thread owning the GL context.
func (d *Device) Draw() {
	if !d.initialized {
		return
	}

	if frame := d.machine.Frame(); frame != nil && frame != d.last {
		d.last = frame
		if err := frame.Draw(d.pixels[:], d.palette); err == nil {
			uploadTexture(d.texture, Width, Height, d.pixels[:])
		}
	}

	gl.UseProgram(d.shader)
	gl.BindVertexArray(d.vao)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, d.texture)

	gl.DrawArrays(gl.TRIANGLES, 0, 6)
}

// ID returns the device identifier.
func (d *Device) ID() devices.ID {
	return devices.DisplayID
}

// Startup initializes device resources.
// The GL context must be current.
func (d *Device) Startup(m devices.Machine) error {
	var err error

	d.shader, err = compileProgram(vertex, fragment)
	if err != nil {
		return errors.Wrapf(err, "failed to compile shaders")
	}

	gl.UseProgram(d.shader)

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	gl.GenBuffers(1, &d.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)

	vertAttrib := uint32(gl.GetAttribLocation(d.shader, glStr("vertPos")))
	texCoordAttrib := uint32(gl.GetAttribLocation(d.shader, glStr("vertTexCoord")))

	gl.EnableVertexAttribArray(vertAttrib)
	gl.VertexAttribPointer(vertAttrib, 3, gl.FLOAT, false, 5*4, gl.PtrOffset(0))

	gl.EnableVertexAttribArray(texCoordAttrib)
	gl.VertexAttribPointer(texCoordAttrib, 2, gl.FLOAT, false, 5*4, gl.PtrOffset(3*4))

	d.texture = makeTexture()
	d.machine = m
	d.last = nil
	d.initialized = true
	return nil
}

// Shutdown clears up device resources.
func (d *Device) Shutdown() error {
	if !d.initialized {
		return nil
	}

	d.initialized = false
	d.machine = nil
	d.last = nil
	gl.DeleteTextures(1, &d.texture)
	gl.DeleteBuffers(1, &d.vbo)
	gl.DeleteVertexArrays(1, &d.vao)
	gl.DeleteProgram(d.shader)
	return nil
}

var quadVertices = []float32{
	//  X, Y, Z, U, V
	-1.0, -1.0, 0.0, 0.0, 1.0,
	1.0, -1.0, 0.0, 1.0, 1.0,
	-1.0, 1.0, 0.0, 0.0, 0.0,
	1.0, -1.0, 0.0, 1.0, 1.0,
	1.0, 1.0, 0.0, 1.0, 0.0,
	-1.0, 1.0, 0.0, 0.0, 0.0,
}
