package audio

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gordonklaus/portaudio"
)

func inputDevice(deviceNameOrID string) (d *portaudio.DeviceInfo, err error) {
	if deviceNameOrID == "" {
		d, err = portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("get default audio input device: %w", err)
		}
	} else {
		devices, err := portaudio.Devices()
		if err != nil {
			return nil, fmt.Errorf("list available audio devices: %w", err)
		}

		d, err = findDevice(devices, deviceNameOrID)
		if err != nil {
			printAvailableDevices()
			return nil, fmt.Errorf("get audio input device: %w", err)
		}

		if d.MaxInputChannels < 1 {
			printAvailableDevices()
			return nil, fmt.Errorf("audio device %q is not an input device or in use by another program", d.Name)
		}
	}

	slog.Info(fmt.Sprintf("using audio input device %q, sample rate: %d", d.Name, int(d.DefaultSampleRate)))

	return d, nil
}

// findDevice looks up a device by its index or by a substring of its name.
func findDevice(devices []*portaudio.DeviceInfo, device string) (*portaudio.DeviceInfo, error) {
	if device == "" {
		return nil, fmt.Errorf("no audio device ID or name specified")
	}

	deviceID, err := strconv.ParseInt(device, 10, 32)
	if err != nil {
		for _, d := range devices {
			if strings.Contains(d.Name, device) {
				return d, nil
			}
		}

		return nil, fmt.Errorf("audio device %q not found", device)
	}

	if deviceID >= int64(len(devices)) || deviceID < 0 {
		return nil, fmt.Errorf("audio device %d not found - please specify the ID of an existing device", deviceID)
	}

	return devices[deviceID], nil
}

// ListDevices writes a table of the available audio devices to w.
func ListDevices(w io.Writer) error {
	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("get available audio devices: %w", err)
	}

	writeDeviceTable(w, devices)

	return nil
}

func writeDeviceTable(w io.Writer, devices []*portaudio.DeviceInfo) {
	format := "%2s  %-55s  %2s  %3s  %s\n"
	fmt.Fprintf(w, format, "ID", "NAME", "IN", "OUT", "SAMPLERATE")
	for i, device := range devices {
		fmt.Fprintf(w, "%2d  %-55s  %2d  %3d  %10d\n", i, device.Name, device.MaxInputChannels, device.MaxOutputChannels, int(device.DefaultSampleRate))
	}
}

func printAvailableDevices() {
	fmt.Fprintln(os.Stderr, "\nAvailable audio devices:")
	fmt.Fprintln(os.Stderr)
	if err := ListDevices(os.Stderr); err != nil {
		slog.Warn(err.Error())
	}
	fmt.Fprintln(os.Stderr)
}
