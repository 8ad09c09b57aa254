package audio

import (
	"bytes"
	"encoding/binary"
)

const wavHeaderSize = 44

// EncodeWAV wraps 16-bit mono PCM in a canonical RIFF/WAVE container.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	buf.WriteString("RIFF")
	le32(buf, uint32(36+len(pcm))) //nolint:gosec // captures are bounded by the phrase limit
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	le32(buf, 16)
	le16(buf, 1) // PCM
	le16(buf, channels)
	le32(buf, uint32(sampleRate)) //nolint:gosec // positive by config validation
	le32(buf, uint32(byteRate))   //nolint:gosec // positive by config validation
	le16(buf, uint16(blockAlign)) //nolint:gosec // constant
	le16(buf, bitsPerSample)

	buf.WriteString("data")
	le32(buf, uint32(len(pcm))) //nolint:gosec // captures are bounded by the phrase limit
	buf.Write(pcm)

	return buf.Bytes()
}

func le16(buf *bytes.Buffer, v uint16) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}

func le32(buf *bytes.Buffer, v uint32) {
	_ = binary.Write(buf, binary.LittleEndian, v)
}
