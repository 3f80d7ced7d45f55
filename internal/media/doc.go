// Package media probes video files with ffprobe so the pipeline can scale
// frame sampling to clip length and record when footage was shot.
package media
