package videohub

import "bytes"

// AlarmStatusBlock reports named alarm conditions as free-form text
// name/status pairs. Order and duplicate names, if any, are preserved
// exactly as received.
type AlarmStatusBlock struct {
	Empty   bool
	Entries []KVPair
}

func (AlarmStatusBlock) header() string { return "ALARM STATUS:" }

func (k *AlarmStatusBlock) parse(b []byte) error {
	if len(trim(b)) == 0 {
		k.Empty = true
		return nil
	}
	for key, val := range colonLines(b) {
		k.Entries = append(k.Entries, KVPair{Key: string(key), Value: string(val)})
	}
	return nil
}

func (k *AlarmStatusBlock) dump(b *bytes.Buffer) {
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
