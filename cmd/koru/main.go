// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/device"
	"github.com/devblok/koru/renderable"
	"github.com/devblok/koru/vkr"
	"github.com/devblok/koru/window"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

var (
	windowSystem = flag.String("window", string(window.KindSDL), "Window system, sdl or glfw")
	envFile      = flag.String("env", ".env", "Environment file read before configuration")
	shaderName   = flag.String("shader", "triangle", "Shader the renderables draw with")
	meshFile     = flag.String("mesh", "", "COLLADA (.dae) or Wavefront (.obj) file drawn as well")
)

func loadEnvironment(path string) error {
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	envy.Reload()
	return nil
}

func main() {
	flag.Parse()

	if err := loadEnvironment(*envFile); err != nil {
		log.WithError(err).Fatal("loading environment file")
	}

	configuration, err := core.LoadConfiguration()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if configuration.Renderer.DebugMode {
		log.SetLevel(log.DebugLevel)
	}

	win, err := window.New(window.Kind(*windowSystem), "Koru3D",
		int(configuration.Renderer.ScreenWidth),
		int(configuration.Renderer.ScreenHeight))
	if err != nil {
		log.WithError(err).Fatal("creating window")
	}

	instance, err := device.NewVulkanInstance(device.DefaultVulkanApplicationInfo, win.ProcAddr(), device.InstanceConfiguration{
		Extensions: win.InstanceExtensions(),
		DebugMode:  configuration.Renderer.DebugMode,
	})
	if err != nil {
		log.WithError(err).Fatal("creating vulkan instance")
	}

	surface, err := win.CreateSurface(instance.Handle())
	if err != nil {
		log.WithError(err).Fatal("creating surface")
	}
	if err := instance.SetSurface(surface); err != nil {
		log.WithError(err).Fatal("setting surface")
	}

	physicalDevice, err := instance.SelectPhysicalDevice(configuration.Renderer.DeviceExtensions)
	if err != nil {
		log.WithError(err).Fatal("selecting physical device")
	}

	source, sourceCloser, err := shaderSource(configuration.Renderer)
	if err != nil {
		log.WithError(err).Fatal("opening shaders")
	}

	var driver vkr.Driver
	if configuration.Renderer.DebugMode {
		driver.Layers = []string{device.ValidationLayer}
	}
	renderSystem := core.NewRenderSystem(driver, win, physicalDevice, source, configuration.Renderer)

	renderables := []renderable.Renderable{
		renderable.NewTriangle(renderSystem.CreateRenderMediator(*shaderName)),
		renderable.NewQuad(renderSystem.CreateRenderMediator(*shaderName),
			glm.Vec2{0.6, 0.6}, 0.2, glm.Vec3{1.0, 0.8, 0.0}),
	}
	if *meshFile != "" {
		meshes, err := loadMeshes(*meshFile, func() core.Mediator {
			return renderSystem.CreateRenderMediator(*shaderName)
		})
		if err != nil {
			log.WithError(err).WithField("file", *meshFile).Fatal("loading meshes")
		}
		renderables = append(renderables, meshes...)
	}

	run(win, renderSystem, core.NewTime(configuration.Time))

	// Frames in flight may still reference renderable buffers.
	renderSystem.ResetCommandPool()
	destroyAll(renderables)
	renderSystem.Destroy()

	if err := sourceCloser.Close(); err != nil {
		log.WithError(err).Warn("closing shader source")
	}
	instance.Destroy()
	win.Destroy()
	log.Info("shut down")
}

func run(win window.Window, renderSystem *core.RenderSystem, t *core.Time) {
	defer t.Stop()

	statTicker := time.NewTicker(time.Second)
	defer statTicker.Stop()

	var lastFrameCount uint64
	for win.NotClosed() {
		select {
		case <-t.EventTicker().C:
			events := win.PollEvents()
			if events.Quit {
				log.Info("event loop exited")
				return
			}
			if events.Resized {
				renderSystem.NotifyResized()
			}
		case <-t.FpsTicker().C:
			renderSystem.DrawFrame()
		case <-statTicker.C:
			frameCount := renderSystem.Renderer().FrameCount()
			log.WithField("fps", frameCount-lastFrameCount).Debug("frames drawn")
			lastFrameCount = frameCount
		}
	}
}
