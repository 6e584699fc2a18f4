// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"
	"time"

	"github.com/devblok/koru/gfx"
	"github.com/gobuffalo/envy"
	"github.com/pkg/errors"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay between window event polls in milliseconds
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	// SwapchainSize requests a number of swapchain images,
	// 0 lets the surface capabilities decide.
	SwapchainSize uint32

	// FramesInFlight bounds how far the CPU may run ahead of the GPU.
	FramesInFlight int

	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32

	ShaderDirectory string
	ShaderArchive   string
	ShaderCompiler  string

	// PresentMode is used when the surface supports it, FIFO otherwise.
	PresentMode gfx.PresentMode

	// FenceTimeout bounds a single fence wait, 0 waits forever.
	FenceTimeout time.Duration

	ClearColor [4]float32

	DebugMode bool
}

// DefaultConfiguration returns the configuration used when nothing is overridden.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  16,
		},
		Renderer: RendererConfiguration{
			SwapchainSize:  0,
			FramesInFlight: 2,
			ScreenWidth:    800,
			ScreenHeight:   600,
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
			ShaderDirectory: "./shaders",
			ShaderCompiler:  "glslc",
			PresentMode:     gfx.PresentModeMailbox,
			ClearColor:      [4]float32{0.005, 0.005, 0.005, 1},
		},
	}
}

// LoadConfiguration reads KORU_* environment variables on top of DefaultConfiguration.
func LoadConfiguration() (Configuration, error) {
	cfg := DefaultConfiguration()

	uints := []struct {
		key string
		dst *uint32
	}{
		{"KORU_WIDTH", &cfg.Renderer.ScreenWidth},
		{"KORU_HEIGHT", &cfg.Renderer.ScreenHeight},
		{"KORU_SWAPCHAIN_SIZE", &cfg.Renderer.SwapchainSize},
	}
	for _, u := range uints {
		raw := envy.Get(u.key, "")
		if raw == "" {
			continue
		}
		num, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return cfg, errors.Wrapf(err, "parsing %s", u.key)
		}
		*u.dst = uint32(num)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"KORU_FPS", &cfg.Time.FramesPerSecond},
		{"KORU_EVENT_POLL_DELAY", &cfg.Time.EventPollDelay},
		{"KORU_FRAMES_IN_FLIGHT", &cfg.Renderer.FramesInFlight},
	}
	for _, i := range ints {
		raw := envy.Get(i.key, "")
		if raw == "" {
			continue
		}
		num, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, errors.Wrapf(err, "parsing %s", i.key)
		}
		if num < 0 {
			return cfg, errors.Errorf("%s must not be negative", i.key)
		}
		*i.dst = num
	}
	if cfg.Renderer.FramesInFlight == 0 {
		return cfg, errors.New("KORU_FRAMES_IN_FLIGHT must be at least 1")
	}

	cfg.Renderer.ShaderDirectory = envy.Get("KORU_SHADER_DIR", cfg.Renderer.ShaderDirectory)
	cfg.Renderer.ShaderArchive = envy.Get("KORU_SHADER_ARCHIVE", cfg.Renderer.ShaderArchive)
	cfg.Renderer.ShaderCompiler = envy.Get("KORU_SHADER_COMPILER", cfg.Renderer.ShaderCompiler)

	if raw := envy.Get("KORU_PRESENT_MODE", ""); raw != "" {
		mode, ok := gfx.ParsePresentMode(raw)
		if !ok {
			return cfg, errors.Errorf("unknown present mode %q", raw)
		}
		cfg.Renderer.PresentMode = mode
	}

	if raw := envy.Get("KORU_FENCE_TIMEOUT", ""); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, errors.Wrap(err, "parsing KORU_FENCE_TIMEOUT")
		}
		cfg.Renderer.FenceTimeout = timeout
	}

	if raw := envy.Get("KORU_DEBUG", ""); raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, errors.Wrap(err, "parsing KORU_DEBUG")
		}
		cfg.Renderer.DebugMode = debug
	}

	return cfg, nil
}
