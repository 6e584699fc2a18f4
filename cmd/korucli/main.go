// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/devblok/koru/device"
	log "github.com/sirupsen/logrus"
)

var (
	debug  = flag.Bool("debug", false, "Enable validation layers")
	indent = flag.Bool("indent", false, "Indent the JSON output")
)

func main() {
	flag.Parse()

	cfg := device.InstanceConfiguration{
		DebugMode: *debug,
	}

	instance, err := device.NewVulkanInstance(device.DefaultVulkanApplicationInfo, nil, cfg)
	if err != nil {
		log.WithError(err).Fatal("creating vulkan instance")
	}
	defer instance.Destroy()

	encoder := json.NewEncoder(os.Stdout)
	if *indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(instance.PhysicalDevicesInfo()); err != nil {
		log.WithError(err).Error("encoding device report")
	}
}
