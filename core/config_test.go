// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"
	"time"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/gfx"
	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"
)

func TestDefaultConfiguration(t *testing.T) {
	c := qt.New(t)

	cfg := core.DefaultConfiguration()
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 60)
	c.Assert(cfg.Renderer.FramesInFlight, qt.Equals, 2)
	c.Assert(cfg.Renderer.ShaderCompiler, qt.Equals, "glslc")
	c.Assert(cfg.Renderer.DeviceExtensions, qt.DeepEquals, []string{"VK_KHR_swapchain"})
	c.Assert(cfg.Renderer.FenceTimeout, qt.Equals, time.Duration(0))
}

func TestLoadConfigurationFromEnvironment(t *testing.T) {
	c := qt.New(t)

	envy.Temp(func() {
		envy.Set("KORU_WIDTH", "1280")
		envy.Set("KORU_HEIGHT", "720")
		envy.Set("KORU_FPS", "0")
		envy.Set("KORU_FRAMES_IN_FLIGHT", "3")
		envy.Set("KORU_SHADER_DIR", "/tmp/shaders")
		envy.Set("KORU_SHADER_ARCHIVE", "shaders.kar")
		envy.Set("KORU_PRESENT_MODE", "fifo_relaxed")
		envy.Set("KORU_FENCE_TIMEOUT", "250ms")
		envy.Set("KORU_DEBUG", "true")

		cfg, err := core.LoadConfiguration()
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Renderer.ScreenWidth, qt.Equals, uint32(1280))
		c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, uint32(720))
		c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 0)
		c.Assert(cfg.Renderer.FramesInFlight, qt.Equals, 3)
		c.Assert(cfg.Renderer.ShaderDirectory, qt.Equals, "/tmp/shaders")
		c.Assert(cfg.Renderer.ShaderArchive, qt.Equals, "shaders.kar")
		c.Assert(cfg.Renderer.PresentMode, qt.Equals, gfx.PresentModeFifoRelaxed)
		c.Assert(cfg.Renderer.FenceTimeout, qt.Equals, 250*time.Millisecond)
		c.Assert(cfg.Renderer.DebugMode, qt.IsTrue)
	})
}

func TestLoadConfigurationRejectsInvalid(t *testing.T) {
	for key, value := range map[string]string{
		"KORU_WIDTH":            "wide",
		"KORU_FPS":              "-1",
		"KORU_FRAMES_IN_FLIGHT": "0",
		"KORU_PRESENT_MODE":     "vsync",
		"KORU_FENCE_TIMEOUT":    "soon",
		"KORU_DEBUG":            "maybe",
	} {
		key, value := key, value
		t.Run(key, func(t *testing.T) {
			c := qt.New(t)
			envy.Temp(func() {
				envy.Set(key, value)
				_, err := core.LoadConfiguration()
				c.Assert(err, qt.ErrorMatches, ".*"+key+".*|unknown present mode.*")
			})
		})
	}
}
