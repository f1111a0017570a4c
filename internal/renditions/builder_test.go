package renditions

import (
	"testing"

	mctypes "github.com/aws/aws-sdk-go-v2/service/mediaconvert/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildJobLadder(t *testing.T) {
	job := BuildJob("arn:aws:iam::123:role/encode", "media-bucket", "0 US/alice/trip/clip.mov", "0 US/alice/trip/outputs/clip/")

	require.NotNil(t, job.Settings)
	require.Len(t, job.Settings.OutputGroups, 1)

	group := job.Settings.OutputGroups[0]
	require.Len(t, group.Outputs, 4, "three video renditions plus one audio rendition")

	wantHeights := []int32{1080, 720, 480}
	wantWidths := []int32{1920, 1280, 854}
	wantBitrates := []int32{5_000_000, 3_000_000, 1_200_000}

	for i := range wantHeights {
		out := group.Outputs[i]
		require.NotNil(t, out.VideoDescription, "output %d", i)
		assert.Equal(t, wantHeights[i], *out.VideoDescription.Height)
		assert.Equal(t, wantWidths[i], *out.VideoDescription.Width)

		h264 := out.VideoDescription.CodecSettings.H264Settings
		require.NotNil(t, h264)
		assert.Equal(t, wantBitrates[i], *h264.Bitrate)
		assert.Equal(t, mctypes.H264RateControlModeCbr, h264.RateControlMode)
		assert.Equal(t, 2.0, *h264.GopSize)
		assert.Equal(t, mctypes.H264GopSizeUnitsSeconds, h264.GopSizeUnits)
	}

	audio := group.Outputs[3]
	assert.Nil(t, audio.VideoDescription)
	require.Len(t, audio.AudioDescriptions, 1)
	aac := audio.AudioDescriptions[0].CodecSettings.AacSettings
	require.NotNil(t, aac)
	assert.Equal(t, int32(96000), *aac.Bitrate)
	assert.Equal(t, "_audio", *audio.NameModifier)

	hls := group.OutputGroupSettings.HlsGroupSettings
	require.NotNil(t, hls)
	assert.Equal(t, "s3://media-bucket/0 US/alice/trip/outputs/clip/", *hls.Destination)
	assert.Equal(t, int32(6), *hls.SegmentLength)
	assert.Equal(t, mctypes.HlsDirectoryStructureSingleDirectory, hls.DirectoryStructure)

	in := job.Settings.Inputs[0]
	assert.Equal(t, "s3://media-bucket/0 US/alice/trip/clip.mov", *in.FileInput)
}

func TestBuildJobDeterministic(t *testing.T) {
	a := BuildJob("role", "bucket", "dir/clip.mp4", "dir/outputs/clip/")
	b := BuildJob("role", "bucket", "dir/clip.mp4", "dir/outputs/clip/")
	assert.Equal(t, a, b)
}

func TestDestinationPrefix(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"0 US/alice/trip/clip.mov", "0 US/alice/trip/outputs/clip/"},
		{"clip.mp4", "outputs/clip/"},
		{"a/b.mkv", "a/outputs/b/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DestinationPrefix(tt.key))
	}
}
