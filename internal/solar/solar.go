// SPDX-License-Identifier: GPL-3.0-only

// Package solar determines whether it is day or night at a geographic location.
package solar

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/rs/zerolog/log"
)

// ErrNoSunEvent is returned when the sun does not rise or set on the requested
// day at the requested location (polar day or polar night).
var ErrNoSunEvent = errors.New("sun does not rise or set on this day")

const (
	// standardAltitude is the solar altitude in degrees at which the upper limb
	// of the sun touches a sea-level horizon: 34' of atmospheric refraction
	// plus 16' of solar semi-diameter.
	standardAltitude = -0.833

	// dipArcMinutesPerRootMeter approximates the dip of the horizon seen from
	// an elevated observer, in arc minutes per square root of meters.
	dipArcMinutesPerRootMeter = 2.076
)

// Location is the observer's position on earth.
type Location struct {
	Latitude  float64 // degrees, north positive
	Longitude float64 // degrees, east positive
	Elevation float64 // meters above sea level
}

// Events holds the sunrise and sunset bracketing local noon, both in UTC.
type Events struct {
	Sunrise time.Time
	Sunset  time.Time
}

// Clock supplies the current instant and the local time zone.
type Clock interface {
	Now() time.Time
	Zone() *time.Location
}

// SystemClock reads the system clock and time zone.
type SystemClock struct{}

// Now returns the current instant in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Zone returns the system's local time zone.
func (SystemClock) Zone() *time.Location { return time.Local }

// HorizonAltitude returns the solar altitude in degrees that counts as sunrise
// or sunset for an observer at the given elevation.
func HorizonAltitude(elevation float64) float64 {
	if elevation <= 0 {
		return standardAltitude
	}
	return standardAltitude - dipArcMinutesPerRootMeter*math.Sqrt(elevation)/60
}

// LocalNoon returns the UTC instant of 12:00:00 in zone on the calendar day
// that now falls on in zone. Daylight saving time is taken from zone itself.
func LocalNoon(now time.Time, zone *time.Location) time.Time {
	local := now.In(zone)
	year, month, day := local.Date()
	return time.Date(year, month, day, 12, 0, 0, 0, zone).UTC()
}

// Today returns the most recent sunrise at or before local noon and the next
// sunset at or after local noon.
func Today(loc Location, now time.Time, zone *time.Location) (Events, error) {
	noon := LocalNoon(now, zone)
	altitude := HorizonAltitude(loc.Elevation)

	// Far from the zone's meridian (UTC+13, UTC-12) the solar day around local
	// noon is carried by the neighbouring UTC date, so look at the dates on
	// both sides and keep the events closest to noon.
	var events Events
	for _, offset := range []int{-1, 0, 1} {
		rise, set, err := eventsOn(loc, altitude, noon.AddDate(0, 0, offset))
		if err != nil {
			if offset == 0 {
				return Events{}, err
			}
			continue
		}
		if !rise.After(noon) && (events.Sunrise.IsZero() || rise.After(events.Sunrise)) {
			events.Sunrise = rise
		}
		if !set.Before(noon) && (events.Sunset.IsZero() || set.Before(events.Sunset)) {
			events.Sunset = set
		}
	}
	if events.Sunrise.IsZero() || events.Sunset.IsZero() {
		return Events{}, fmt.Errorf("no sunrise/sunset around %s: %w", noon.Format(time.RFC3339), ErrNoSunEvent)
	}
	return events, nil
}

func eventsOn(loc Location, altitude float64, day time.Time) (rise, set time.Time, err error) {
	year, month, date := day.Date()
	rise, set = sunrise.TimeOfElevation(loc.Latitude, loc.Longitude, altitude, year, month, date)
	if rise.IsZero() || set.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("latitude %.4f on %04d-%02d-%02d: %w",
			loc.Latitude, year, month, date, ErrNoSunEvent)
	}
	return rise.UTC(), set.UTC(), nil
}

// IsDark reports whether it is dark at loc at the instant now. It is light
// only strictly between sunrise and sunset; both boundaries count as dark.
func IsDark(loc Location, now time.Time, zone *time.Location) (bool, error) {
	now = now.UTC()
	log.Debug().Time("now", now.In(zone)).Msg("Current time")
	log.Debug().Time("noon", LocalNoon(now, zone).In(zone)).Msg("Noon today")

	events, err := Today(loc, now, zone)
	if err != nil {
		return false, err
	}
	log.Debug().
		Time("sunrise", events.Sunrise.In(zone)).
		Time("sunset", events.Sunset.In(zone)).
		Msg("Solar events today")

	if events.Sunrise.Before(now) && now.Before(events.Sunset) {
		log.Info().Msg("Based on your location it should be light outside right now")
		return false, nil
	}
	log.Info().Msg("Based on your location it should be dark outside right now")
	return true, nil
}
