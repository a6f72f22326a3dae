package server

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	var seed [SeedSize]byte
	for i := range seed {
		seed[i] = byte(i)
	}
	snap := &Snapshot{
		Roster:  []Player{{ID: 0, Pos: Vec2{1, 2}}, {ID: 1, Pos: Vec2{-3.5, 0}}},
		MapSeed: seed,
	}

	tests := []struct {
		name string
		in   Payload
	}{
		{"snapshot", snap},
		{"stamped snapshot", snap.WithAssignedID(1)},
		{"delta", delta(move(0, 1, 0), move(1, -0.25, 3), move(0, 1, 0))},
	}
	codec := Codec{CompressThreshold: 512}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := codec.Encode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, frameRaw, b[0])

			out, err := codec.Decode(b)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.in, out); diff != "" {
				t.Fatalf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodecCompressesLargeFrames(t *testing.T) {
	roster := make([]Player, 500)
	for i := range roster {
		roster[i] = Player{ID: i, Pos: Vec2{X: float64(i), Y: float64(i % 7)}}
	}
	snap := &Snapshot{Roster: roster}

	small, err := Codec{}.Encode(snap)
	require.NoError(t, err)
	assert.Equal(t, frameRaw, small[0])

	codec := Codec{CompressThreshold: 512}
	b, err := codec.Encode(snap)
	require.NoError(t, err)
	assert.Equal(t, frameLZ4, b[0])
	assert.Less(t, len(b), len(small))

	out, err := codec.Decode(b)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(Payload(snap), out))
}

func TestCodecRejectsMalformedFrames(t *testing.T) {
	codec := Codec{}
	good, err := codec.Encode(delta(move(0, 1, 1)))
	require.NoError(t, err)

	unknownKind := append([]byte(nil), good...)
	for i := 1; i < len(unknownKind); i++ {
		if Kind(unknownKind[i]) == KindDelta {
			unknownKind[i] = 9
			break
		}
	}

	for name, frame := range map[string][]byte{
		"empty":        nil,
		"unknown flag": append([]byte{7}, good[1:]...),
		"garbage":      {frameRaw, 0xc1, 0xc1, 0xc1},
		"bad lz4":      {frameLZ4, 1, 2, 3, 4},
		"unknown kind": unknownKind,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(frame)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestCodecRejectsNilPayload(t *testing.T) {
	_, err := Codec{}.Encode(nil)
	assert.Error(t, err)
}
