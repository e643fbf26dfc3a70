package adjust_test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"
	"github.com/shini4i/auto-brightness/internal/adjust"
	"github.com/shini4i/auto-brightness/internal/brightness"
	"github.com/shini4i/auto-brightness/internal/config"
	"github.com/shini4i/auto-brightness/internal/hid"
	"github.com/shini4i/auto-brightness/internal/solar"
	"github.com/shini4i/auto-brightness/internal/udev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var delft = solar.Location{Latitude: 52.0, Longitude: 4.3, Elevation: 0}

type fixedClock struct {
	now  time.Time
	zone *time.Location
}

func (c fixedClock) Now() time.Time       { return c.now }
func (c fixedClock) Zone() *time.Location { return c.zone }

func nightClock(t *testing.T) fixedClock {
	zone, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)
	return fixedClock{now: time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC), zone: zone}
}

func dayClock(t *testing.T) fixedClock {
	clock := nightClock(t)
	clock.now = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	return clock
}

// recordingStepper records which direction it was moved in.
type recordingStepper struct {
	name      string
	err       error
	increases []float64
	decreases []float64
}

func (s *recordingStepper) Name() string { return s.name }

func (s *recordingStepper) Increase(step float64) (bool, error) {
	s.increases = append(s.increases, step)
	return s.err == nil, s.err
}

func (s *recordingStepper) Decrease(step float64) (bool, error) {
	s.decreases = append(s.decreases, step)
	return s.err == nil, s.err
}

// fakeXrandr reports a single output and records brightness changes.
type fakeXrandr struct {
	brightness string
	set        []string
}

func (f *fakeXrandr) Run(args ...string) ([]byte, error) {
	if args[0] == "--output" {
		f.set = append(f.set, args[3])
		return nil, nil
	}
	return []byte("eDP1 connected primary 1440x900+0+0\n\tBrightness: " + f.brightness + "\n"), nil
}

func TestRun_DirectionFollowsDaylight(t *testing.T) {
	tests := []struct {
		name      string
		clock     fixedClock
		direction adjust.Direction
	}{
		{name: "night dims", clock: nightClock(t), direction: adjust.Dim},
		{name: "day brightens", clock: dayClock(t), direction: adjust.Brighten},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := &recordingStepper{name: "first"}
			second := &recordingStepper{name: "second"}

			result, err := adjust.Run(adjust.Options{
				Location: delft,
				Clock:    tt.clock,
				Step:     brightness.GradualStep,
				Displays: []adjust.Stepper{first, second},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.direction, result.Direction)
			require.Len(t, result.Outcomes, 2)

			for _, s := range []*recordingStepper{first, second} {
				if tt.direction == adjust.Dim {
					assert.Equal(t, []float64{10}, s.decreases)
					assert.Empty(t, s.increases)
				} else {
					assert.Equal(t, []float64{10}, s.increases)
					assert.Empty(t, s.decreases)
				}
			}
		})
	}
}

func TestRun_FailurePolicy(t *testing.T) {
	cause := errors.New("output not found")

	t.Run("aborts at first failure by default", func(t *testing.T) {
		failing := &recordingStepper{name: "failing", err: cause}
		next := &recordingStepper{name: "next"}

		result, err := adjust.Run(adjust.Options{
			Location: delft,
			Clock:    nightClock(t),
			Step:     brightness.FullStep,
			Displays: []adjust.Stepper{failing, next},
		})
		require.ErrorIs(t, err, cause)
		assert.Len(t, result.Outcomes, 1)
		assert.Empty(t, next.decreases, "later displays are not attempted")
	})

	t.Run("continues when configured", func(t *testing.T) {
		failing := &recordingStepper{name: "failing", err: cause}
		next := &recordingStepper{name: "next"}

		result, err := adjust.Run(adjust.Options{
			Location:        delft,
			Clock:           nightClock(t),
			Step:            brightness.FullStep,
			Displays:        []adjust.Stepper{failing, next},
			ContinueOnError: true,
		})
		require.ErrorIs(t, err, cause)
		require.Len(t, result.Outcomes, 2)
		assert.Equal(t, []float64{100}, next.decreases)
		assert.True(t, result.Outcomes[1].Changed)
	})
}

func TestRun_PolarLocationFails(t *testing.T) {
	display := &recordingStepper{name: "display"}
	_, err := adjust.Run(adjust.Options{
		Location: solar.Location{Latitude: 78.2, Longitude: 15.6},
		Clock:    fixedClock{now: time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC), zone: time.UTC},
		Step:     brightness.GradualStep,
		Displays: []adjust.Stepper{display},
	})
	require.ErrorIs(t, err, solar.ErrNoSunEvent)
	assert.Empty(t, display.increases)
	assert.Empty(t, display.decreases)
}

func TestRun_SoftwareDisplayAtNight(t *testing.T) {
	runner := &fakeXrandr{brightness: "0.80"}
	cfg := &config.Config{
		Location: config.Location{Latitude: 52.0, Longitude: 4.3},
		Displays: []config.Display{{Name: "Laptop", MinBrightness: ptr(10), MaxBrightness: ptr(100), OutputName: "eDP1"}},
	}

	displays, err := adjust.Build(cfg, adjust.Environment{Xrandr: runner})
	require.NoError(t, err)
	defer displays.Close()

	result, err := adjust.Run(adjust.Options{
		Location: cfg.SolarLocation(),
		Clock:    nightClock(t),
		Step:     brightness.GradualStep,
		Displays: displays.Steppers(),
	})
	require.NoError(t, err)
	assert.Equal(t, adjust.Dim, result.Direction)
	assert.True(t, result.Outcomes[0].Changed)
	assert.Equal(t, []string{"0.70"}, runner.set)
}

func ptr(v float64) *float64 { return &v }

func fakeBacklight(t *testing.T, maximum, actual int) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "acpi_video0")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, value := range map[string]int{"max_brightness": maximum, "actual_brightness": actual, "brightness": actual} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(fmt.Sprintf("%d\n", value)), 0o644))
	}
	return dir
}

// fakeLogind records SetBrightness calls.
type fakeLogind struct {
	calls  []string
	closed bool
}

func (f *fakeLogind) SetBrightness(subsystem, name string, value uint32) error {
	f.calls = append(f.calls, fmt.Sprintf("%s/%s=%d", subsystem, name, value))
	return nil
}

func (f *fakeLogind) Close() error {
	f.closed = true
	return nil
}

// fakeHID is a Studio Display reporting a fixed brightness.
type fakeHID struct {
	nits   uint32
	sent   []uint32
	closed bool
}

func (f *fakeHID) GetFeatureReport(data []byte) (int, error) {
	binary.LittleEndian.PutUint32(data[1:5], f.nits)
	return len(data), nil
}

func (f *fakeHID) SendFeatureReport(data []byte) (int, error) {
	f.sent = append(f.sent, binary.LittleEndian.Uint32(data[1:5]))
	return len(data), nil
}

func (f *fakeHID) Close() error {
	f.closed = true
	return nil
}

func (f *fakeHID) Info() hid.DeviceInfo {
	return hid.DeviceInfo{Serial: "C02ABC123", Product: "Studio Display"}
}

func TestBuild_AllBackends(t *testing.T) {
	dir := fakeBacklight(t, 255, 25)
	logind := &fakeLogind{}
	studio := &fakeHID{nits: 60000}
	var openedSerial string

	cfg := &config.Config{
		Location: config.Location{Latitude: 52.0, Longitude: 4.3},
		Displays: []config.Display{
			{Name: "Laptop", MinBrightness: ptr(5), SysDirectory: dir, UseLogind: true},
			{Name: "External", OutputName: "eDP1"},
			{Name: "Studio", Serial: "*"},
		},
	}
	env := adjust.Environment{
		Xrandr:        &fakeXrandr{brightness: "1.0"},
		ConnectLogind: func() (adjust.LogindSession, error) { return logind, nil },
		OpenHID: func(serial string) (hid.Device, error) {
			openedSerial = serial
			return studio, nil
		},
	}

	displays, err := adjust.Build(cfg, env)
	require.NoError(t, err)
	require.Len(t, displays.Controllers, 3)
	assert.Equal(t, "Laptop", displays.Controllers[0].Name())
	assert.Equal(t, "External", displays.Controllers[1].Name())
	assert.Equal(t, "Studio", displays.Controllers[2].Name())

	result, err := adjust.Run(adjust.Options{
		Location: cfg.SolarLocation(),
		Clock:    nightClock(t),
		Step:     brightness.GradualStep,
		Displays: displays.Steppers(),
	})
	require.NoError(t, err)
	for _, o := range result.Outcomes {
		assert.True(t, o.Changed, "%s should change", o.Name)
	}

	assert.Equal(t, []string{"backlight/acpi_video0=13"}, logind.calls)
	assert.Equal(t, "", openedSerial, "* selects the first Studio Display")
	assert.Equal(t, []uint32{54040}, studio.sent)

	require.NoError(t, displays.Close())
	assert.True(t, logind.closed)
	assert.True(t, studio.closed)
}

// backlightCrawler reports the given backlight devices the way the udev
// crawler does.
func backlightCrawler(kobjs ...string) udev.Crawler {
	return func(queue chan crawler.Device, errs chan error, matcher netlink.Matcher) chan struct{} {
		go func() {
			for _, kobj := range kobjs {
				queue <- crawler.Device{KObj: kobj, Env: map[string]string{"SUBSYSTEM": "backlight"}}
			}
			close(queue)
		}()
		return make(chan struct{}, 1)
	}
}

func TestBuild_BacklightName(t *testing.T) {
	discoverer := udev.NewDiscoverer(udev.WithCrawler(backlightCrawler(
		"/sys/devices/pci0000:00/0000:00:02.0/drm/card0/card0-eDP-1/intel_backlight",
	)))

	t.Run("known device resolves to its directory", func(t *testing.T) {
		cfg := &config.Config{
			Displays: []config.Display{{Name: "Laptop", SysDirectory: "intel_backlight"}},
		}
		displays, err := adjust.Build(cfg, adjust.Environment{Discoverer: discoverer})
		require.NoError(t, err)
		require.Len(t, displays.Controllers, 1)
	})

	t.Run("unknown device fails at build time", func(t *testing.T) {
		cfg := &config.Config{
			Displays: []config.Display{{Name: "Laptop", SysDirectory: "intel_backlihgt"}},
		}
		_, err := adjust.Build(cfg, adjust.Environment{Discoverer: discoverer})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backlight device intel_backlihgt not found")
	})
}

func TestBuild_LogindConnectError(t *testing.T) {
	cause := errors.New("no system bus")
	cfg := &config.Config{
		Displays: []config.Display{{Name: "Laptop", SysDirectory: "/sys/class/backlight/x", UseLogind: true}},
	}

	_, err := adjust.Build(cfg, adjust.Environment{
		ConnectLogind: func() (adjust.LogindSession, error) { return nil, cause },
	})
	assert.ErrorIs(t, err, cause)
}

func TestStepFor(t *testing.T) {
	uptime := func(d time.Duration) func() (time.Duration, error) {
		return func() (time.Duration, error) { return d, nil }
	}

	step, err := adjust.StepFor(false, uptime(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, float64(brightness.FullStep), step)

	step, err = adjust.StepFor(false, uptime(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, float64(brightness.GradualStep), step)

	step, err = adjust.StepFor(true, func() (time.Duration, error) {
		t.Fatal("uptime must not be read when forced")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, float64(brightness.FullStep), step)

	_, err = adjust.StepFor(false, func() (time.Duration, error) { return 0, errors.New("no sysinfo") })
	assert.Error(t, err)
}

func TestUptime(t *testing.T) {
	up, err := adjust.Uptime()
	require.NoError(t, err)
	assert.Greater(t, up, time.Duration(0))
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "dim", adjust.Dim.String())
	assert.Equal(t, "brighten", adjust.Brighten.String())
}
