package audio

import "encoding/binary"

// Chunk is a raw piece of the audio stream as delivered by the ingestor,
// already assigned its monotonic sample range.
type Chunk struct {
	StreamID string
	Range    SampleRange
	PCM      []byte // s16le mono
}

// Frame is a fixed-duration slice of the stream used for VAD.
type Frame struct {
	Range SampleRange
	PCM   []byte
}

// Window is an overlapping slice of the stream fed to diarization.
type Window struct {
	Range SampleRange
	PCM   []byte
}

// DecodeS16 converts s16le PCM bytes into int16 samples. A trailing odd
// byte is ignored.
func DecodeS16(pcm []byte) []int16 {
	n := len(pcm) / BytesPerSample
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*BytesPerSample:]))
	}
	return out
}
