package videohub

import (
	"bytes"
	"strconv"
	"strings"
)

// Presence is the tri-state device-present indicator. The zero value,
// PresenceUnknown, means the field was absent from the block; clients
// sending a VideohubDevice block to rename a device should leave it at the
// zero value.
type Presence int

const (
	PresenceUnknown Presence = iota
	PresenceYes
	PresenceNo
	PresenceNeedsUpdate
)

func toPresence(s string) Presence {
	switch s {
	case "true":
		return PresenceYes
	case "false":
		return PresenceNo
	case "needs_update":
		return PresenceNeedsUpdate
	default:
		return PresenceUnknown
	}
}

// KVPair is a single unrecognized key/value line preserved from a
// key/value-bodied block so that forward-compatible fields are not lost.
type KVPair struct {
	Key   string
	Value string
}

// DeviceInfoBlock describes the hardware capabilities and identity of the
// routed device. Every device sends it upon connection; clients may send
// a partial DeviceInfoBlock to rename the device.
type DeviceInfoBlock struct {
	Empty                  bool
	Present                Presence
	ModelName              string
	FriendlyName           string
	UniqueID               string
	VideoInputs            int
	VideoProcessingUnits   int
	VideoOutputs           int
	VideoMonitoringOutputs int
	SerialPorts            int
	Unknown                []KVPair
}

func (DeviceInfoBlock) header() string { return "VIDEOHUB DEVICE:" }

func (k *DeviceInfoBlock) parse(b []byte) error {
	if len(trim(b)) == 0 {
		k.Empty = true
		return nil
	}
	for key, val := range colonLines(b) {
		normalized := append([]byte(nil), key...)
		lowercase(normalized)
		switch string(normalized) {
		case "device present":
			lv := append([]byte(nil), val...)
			lowercase(lv)
			k.Present = toPresence(string(lv))
		case "model name":
			k.ModelName = string(val)
		case "friendly name":
			k.FriendlyName = string(val)
		case "unique id":
			k.UniqueID = string(val)
		case "video inputs":
			k.VideoInputs, _ = strconv.Atoi(string(val))
		case "video processing units":
			k.VideoProcessingUnits, _ = strconv.Atoi(string(val))
		case "video outputs":
			k.VideoOutputs, _ = strconv.Atoi(string(val))
		case "video monitoring outputs":
			k.VideoMonitoringOutputs, _ = strconv.Atoi(string(val))
		case "serial ports":
			k.SerialPorts, _ = strconv.Atoi(string(val))
		default:
			k.Unknown = append(k.Unknown, KVPair{Key: string(key), Value: string(val)})
		}
	}
	return nil
}

func (k *DeviceInfoBlock) dump(b *bytes.Buffer) {
	if k.Empty {
		return
	}
	switch k.Present {
	case PresenceYes:
		b.WriteString("Device present: true\n")
	case PresenceNo:
		b.WriteString("Device present: false\n")
	case PresenceNeedsUpdate:
		b.WriteString("Device present: needs_update\n")
	}
	if k.ModelName != "" {
		b.WriteString("Model name: ")
		b.WriteString(strings.ReplaceAll(k.ModelName, "\n", ""))
		b.WriteByte('\n')
	}
	if k.FriendlyName != "" {
		b.WriteString("Friendly name: ")
		b.WriteString(strings.ReplaceAll(k.FriendlyName, "\n", ""))
		b.WriteByte('\n')
	}
	if k.UniqueID != "" {
		b.WriteString("Unique ID: ")
		b.WriteString(strings.ReplaceAll(k.UniqueID, "\n", ""))
		b.WriteByte('\n')
	}
	if k.Present == PresenceYes {
		b.WriteString("Video inputs: ")
		b.WriteString(strconv.Itoa(k.VideoInputs))
		b.WriteString("\nVideo processing units: ")
		b.WriteString(strconv.Itoa(k.VideoProcessingUnits))
		b.WriteString("\nVideo outputs: ")
		b.WriteString(strconv.Itoa(k.VideoOutputs))
		b.WriteString("\nVideo monitoring outputs: ")
		b.WriteString(strconv.Itoa(k.VideoMonitoringOutputs))
		b.WriteString("\nSerial ports: ")
		b.WriteString(strconv.Itoa(k.SerialPorts))
		b.WriteByte('\n')
	}
	for _, kv := range k.Unknown {
		b.WriteString(kv.Key)
		b.WriteString(": ")
		b.WriteString(kv.Value)
		b.WriteByte('\n')
	}
}
