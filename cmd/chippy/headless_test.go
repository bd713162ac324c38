package main

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	"github.com/hexaflex/chippy/arch"
	"github.com/hexaflex/chippy/devices/cpu"
)

// Draws the font glyph for 0 at (0, 0) and loops.
var glyphProgram = []byte{
	0x60, 0x00, // LD V0, 0
	0xf0, 0x29, // LD F, V0
	0xd0, 0x05, // DRW V0, V0, 5
	0x12, 0x06, // JP 206
}

func TestRunHeadless(t *testing.T) {
	config := &Config{Target: arch.Original, Clock: 11, Frames: 3}

	var sb strings.Builder
	err := runHeadless(context.Background(), log.NewTestLogger(t), config, glyphProgram, &sb)
	assert.NoError(t, err)

	out := sb.String()
	assert.True(t, strings.HasPrefix(out, "plane 0:\n####....."))
	assert.True(t, strings.Contains(out, "\n#..#....."))
	assert.True(t, strings.Contains(out, "plane 1:\n"))
}

func TestRunHeadlessExit(t *testing.T) {
	config := &Config{Target: arch.SuperModern, Clock: 30, Frames: 100}

	var sb strings.Builder
	err := runHeadless(context.Background(), log.NewTestLogger(t), config, []byte{0x00, 0xfd}, &sb)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(sb.String(), "plane 0:\n"))
}

func TestRunHeadlessFault(t *testing.T) {
	config := &Config{Target: arch.Original, Clock: 11, Frames: 1}

	var sb strings.Builder
	err := runHeadless(context.Background(), log.NewTestLogger(t), config, []byte{0x00, 0xee}, &sb)
	assert.True(t, errors.Is(err, cpu.ErrStackUnderflow))
}

func TestRunHeadlessTrace(t *testing.T) {
	config := &Config{Target: arch.Original, Clock: 4, Frames: 1, Trace: true}

	var sb strings.Builder
	err := runHeadless(context.Background(), log.NewTestLogger(t), config, glyphProgram, &sb)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(sb.String(), "0200  6000  "))
}
