// SPDX-License-Identifier: GPL-3.0-only

// Package udev discovers backlight devices by crawling the kernel's device tree.
package udev

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"
	"github.com/rs/zerolog/log"
)

// BacklightSubsystem is the udev subsystem of backlight devices.
const BacklightSubsystem = "backlight"

// Device is a discovered backlight device.
type Device struct {
	// Name is the kernel name, e.g. intel_backlight.
	Name string
	// Directory is the sysfs directory holding the brightness attributes.
	Directory string
	// Type is the backlight type (raw, platform or firmware) if known.
	Type string
}

// Crawler walks existing devices and sends the ones matching matcher to
// queue, closing queue when done. crawler.ExistingDevices is the default.
type Crawler func(queue chan crawler.Device, errs chan error, matcher netlink.Matcher) chan struct{}

// Discoverer finds backlight devices.
type Discoverer struct {
	crawl Crawler
}

// DiscovererOption is a functional option for configuring a Discoverer.
type DiscovererOption func(*Discoverer)

// WithCrawler sets a custom device crawler for testing.
func WithCrawler(fn Crawler) DiscovererOption {
	return func(d *Discoverer) {
		d.crawl = fn
	}
}

// NewDiscoverer creates a backlight discoverer.
func NewDiscoverer(opts ...DiscovererOption) *Discoverer {
	d := &Discoverer{crawl: crawler.ExistingDevices}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// createMatcher matches devices of the backlight subsystem.
func createMatcher() *netlink.RuleDefinitions {
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Env: map[string]string{
			"SUBSYSTEM": "^" + BacklightSubsystem + "$",
		},
	})
	return rules
}

// Backlights returns every backlight device, sorted by name. Devices that
// cannot be read are skipped and logged; the first crawl error is returned
// only when no device was found at all.
func (d *Discoverer) Backlights() ([]Device, error) {
	queue := make(chan crawler.Device)
	errs := make(chan error)
	d.crawl(queue, errs, createMatcher())

	var (
		devices  []Device
		firstErr error
	)
	for {
		select {
		case dev, ok := <-queue:
			if !ok {
				sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
				if len(devices) == 0 && firstErr != nil {
					return nil, fmt.Errorf("failed to crawl devices: %w", firstErr)
				}
				return devices, nil
			}
			if device, ok := handleDevice(dev); ok {
				devices = append(devices, device)
			}
		case err := <-errs:
			log.Debug().Err(err).Msg("Device crawl error")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
}

// handleDevice converts a crawled device into a backlight Device.
func handleDevice(dev crawler.Device) (Device, bool) {
	if dev.Env["SUBSYSTEM"] != BacklightSubsystem {
		return Device{}, false
	}
	dir := dev.KObj
	if !strings.HasPrefix(dir, "/sys/") {
		dir = filepath.Join("/sys", dir)
	}
	device := Device{
		Name:      filepath.Base(dir),
		Directory: dir,
		Type:      dev.Env["TYPE"],
	}
	log.Debug().Str("name", device.Name).Str("directory", device.Directory).Msg("Found backlight device")
	return device, true
}

// Find returns the backlight device named name.
func (d *Discoverer) Find(name string) (Device, error) {
	devices, err := d.Backlights()
	if err != nil {
		return Device{}, err
	}
	for _, device := range devices {
		if device.Name == name {
			return device, nil
		}
	}
	return Device{}, fmt.Errorf("backlight device %s not found", name)
}

// First returns the first backlight device in name order.
func (d *Discoverer) First() (Device, error) {
	devices, err := d.Backlights()
	if err != nil {
		return Device{}, err
	}
	if len(devices) == 0 {
		return Device{}, fmt.Errorf("no backlight devices found")
	}
	return devices[0], nil
}
