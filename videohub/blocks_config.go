package videohub

import "bytes"

// ConfigurationBlock carries extra device configuration outside of routing
// and labels, as free-form setting/value pairs. This block is not
// documented by Blackmagic Design; the only setting observed in practice
// is "Take Mode", exposed below via TakeMode/SetTakeMode for convenience,
// but any other setting/value pair round-trips unchanged through Entries.
type ConfigurationBlock struct {
	Empty   bool
	Entries []KVPair
}

func (ConfigurationBlock) header() string { return "CONFIGURATION:" }

func (k *ConfigurationBlock) parse(b []byte) error {
	if len(trim(b)) == 0 {
		k.Empty = true
		return nil
	}
	for key, val := range colonLines(b) {
		k.Entries = append(k.Entries, KVPair{Key: string(key), Value: string(val)})
	}
	return nil
}

func (k *ConfigurationBlock) dump(b *bytes.Buffer) {
	if k.Empty {
		return
	}
	for _, e := range k.Entries {
		b.WriteString(e.Key)
		b.WriteString(": ")
		b.WriteString(e.Value)
		b.WriteByte('\n')
	}
}

// TakeMode reports the "Take Mode" setting, if present among Entries.
func (k *ConfigurationBlock) TakeMode() (enabled, present bool) {
	for _, e := range k.Entries {
		if equalFoldASCII(e.Key, "take mode") {
			return equalFoldASCII(e.Value, "true"), true
		}
	}
	return false, false
}

// SetTakeMode sets (or replaces) the "Take Mode" setting.
func (k *ConfigurationBlock) SetTakeMode(enabled bool) {
	val := "false"
	if enabled {
		val = "true"
	}
	for i, e := range k.Entries {
		if equalFoldASCII(e.Key, "take mode") {
			k.Entries[i].Value = val
			k.Empty = false
			return
		}
	}
	k.Entries = append(k.Entries, KVPair{Key: "Take Mode", Value: val})
	k.Empty = false
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
