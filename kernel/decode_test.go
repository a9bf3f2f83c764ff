package kernel

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeExecRecord(t *testing.T) {
	raw := make([]byte, execRecordSize)
	binary.LittleEndian.PutUint32(raw[0:4], 42)
	binary.LittleEndian.PutUint32(raw[4:8], 42)
	copy(raw[8:], "curl\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")

	rec, ok := decodeExecRecord(raw)
	require.True(t, ok)
	require.Equal(t, uint32(42), rec.Pid)
	require.Equal(t, uint32(42), rec.Tgid)
	require.Equal(t, "curl", rec.ShortName())
}

func TestDecodeExecRecordTooShort(t *testing.T) {
	_, ok := decodeExecRecord(make([]byte, 4))
	require.False(t, ok)
}
