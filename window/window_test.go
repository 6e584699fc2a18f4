// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window_test

import (
	"testing"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/window"
	qt "github.com/frankban/quicktest"
)

var (
	_ window.Window = (*window.SDL)(nil)
	_ window.Window = (*window.GLFW)(nil)
	_ core.Window   = window.Window(nil)
)

func TestUnknownWindowSystem(t *testing.T) {
	c := qt.New(t)

	w, err := window.New("wayland", "koru", 800, 600)
	c.Assert(err, qt.ErrorMatches, `unknown window system "wayland"`)
	c.Assert(w, qt.IsNil)
}
