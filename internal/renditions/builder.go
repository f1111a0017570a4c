// Package renditions builds the fixed adaptive-bitrate output ladder submitted
// to MediaConvert for every mirrored video. The ladder is not configurable:
// the same input key always yields an identical job description, which keeps
// re-submission after a retry idempotent.
package renditions

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
	mctypes "github.com/aws/aws-sdk-go-v2/service/mediaconvert/types"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/classifier"
)

const (
	segmentLengthSeconds = 6
	gopSizeSeconds       = 2.0
	audioBitrate         = 96000
	audioSampleRate      = 48000
)

type videoRung struct {
	width   int32
	height  int32
	bitrate int32
}

// Three H264 renditions plus one audio-only rendition, top to bottom.
var ladder = []videoRung{
	{width: 1920, height: 1080, bitrate: 5_000_000},
	{width: 1280, height: 720, bitrate: 3_000_000},
	{width: 854, height: 480, bitrate: 1_200_000},
}

// DestinationPrefix returns the per-asset output directory for a source key:
// the source directory plus "outputs/<basename>/".
func DestinationPrefix(key string) string {
	dir, name := classifier.SplitKey(key)
	return classifier.JoinKey(dir, "outputs") + "/" + name + "/"
}

// BuildJob assembles the transcode job for one uploaded original. Pure and
// deterministic; the caller owns submission.
func BuildJob(roleARN, bucket, inputKey, destinationPrefix string) *mediaconvert.CreateJobInput {
	outputs := make([]mctypes.Output, 0, len(ladder)+1)
	for _, r := range ladder {
		outputs = append(outputs, videoOutput(r))
	}
	outputs = append(outputs, audioOutput())

	return &mediaconvert.CreateJobInput{
		Role: aws.String(roleARN),
		Settings: &mctypes.JobSettings{
			TimecodeConfig: &mctypes.TimecodeConfig{
				Source: mctypes.TimecodeSourceZerobased,
			},
			Inputs: []mctypes.Input{
				{
					FileInput: aws.String(fmt.Sprintf("s3://%s/%s", bucket, inputKey)),
					AudioSelectors: map[string]mctypes.AudioSelector{
						"Audio Selector 1": {
							DefaultSelection: mctypes.AudioDefaultSelectionDefault,
						},
					},
					VideoSelector: &mctypes.VideoSelector{},
				},
			},
			OutputGroups: []mctypes.OutputGroup{
				{
					Name: aws.String("HLS Group"),
					OutputGroupSettings: &mctypes.OutputGroupSettings{
						Type: mctypes.OutputGroupTypeHlsGroupSettings,
						HlsGroupSettings: &mctypes.HlsGroupSettings{
							Destination:            aws.String(fmt.Sprintf("s3://%s/%s", bucket, destinationPrefix)),
							SegmentLength:          aws.Int32(segmentLengthSeconds),
							MinSegmentLength:       aws.Int32(0),
							ManifestDurationFormat: mctypes.HlsManifestDurationFormatInteger,
							CodecSpecification:     mctypes.HlsCodecSpecificationRfc4281,
							DirectoryStructure:     mctypes.HlsDirectoryStructureSingleDirectory,
							ManifestCompression:    mctypes.HlsManifestCompressionNone,
							ClientCache:            mctypes.HlsClientCacheEnabled,
						},
					},
					Outputs: outputs,
				},
			},
		},
	}
}

func videoOutput(r videoRung) mctypes.Output {
	return mctypes.Output{
		NameModifier: aws.String(fmt.Sprintf("_%dp", r.height)),
		VideoDescription: &mctypes.VideoDescription{
			Width:  aws.Int32(r.width),
			Height: aws.Int32(r.height),
			CodecSettings: &mctypes.VideoCodecSettings{
				Codec: mctypes.VideoCodecH264,
				H264Settings: &mctypes.H264Settings{
					Bitrate:                             aws.Int32(r.bitrate),
					RateControlMode:                     mctypes.H264RateControlModeCbr,
					CodecProfile:                        mctypes.H264CodecProfileMain,
					CodecLevel:                          mctypes.H264CodecLevelAuto,
					GopSize:                             aws.Float64(gopSizeSeconds),
					GopSizeUnits:                        mctypes.H264GopSizeUnitsSeconds,
					NumberBFramesBetweenReferenceFrames: aws.Int32(2),
					AdaptiveQuantization:                mctypes.H264AdaptiveQuantizationHigh,
					SceneChangeDetect:                   mctypes.H264SceneChangeDetectTransitionDetection,
				},
			},
		},
		ContainerSettings: &mctypes.ContainerSettings{
			Container: mctypes.ContainerTypeM3u8,
		},
	}
}

func audioOutput() mctypes.Output {
	return mctypes.Output{
		NameModifier: aws.String("_audio"),
		AudioDescriptions: []mctypes.AudioDescription{
			{
				CodecSettings: &mctypes.AudioCodecSettings{
					Codec: mctypes.AudioCodecAac,
					AacSettings: &mctypes.AacSettings{
						Bitrate:    aws.Int32(audioBitrate),
						CodingMode: mctypes.AacCodingModeCodingMode20,
						SampleRate: aws.Int32(audioSampleRate),
					},
				},
			},
		},
		ContainerSettings: &mctypes.ContainerSettings{
			Container: mctypes.ContainerTypeM3u8,
		},
	}
}
