// Package codec implements the external-collaborator boundary spec §1
// names out of scope: container demux/mux, codec decode/encode, and
// resampling are delegated to ffmpeg subprocesses. This package only
// owns the pipes and the raw frame/sample buffers that cross them; it
// performs no DSP.
//
// Grounded on hacktvlive/source/capture.go (ffmpeg subprocess started
// with a stdout pipe, a goroutine reading fixed-size raw frames into a
// shared buffer) and rtl_tv/video/ffplay.go (stdin-pipe subprocess
// writer, adapted from playback to encoding).
package codec

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"ntscvhs/internal/config"
	"ntscvhs/internal/errs"
)

// Decoder demuxes and decodes one input (spec §6 "-i <path>") into raw
// BGRA video frames and interleaved 16-bit PCM audio, via two ffmpeg
// subprocesses reading the same input.
type Decoder struct {
	videoCmd *exec.Cmd
	video    io.ReadCloser
	audioCmd *exec.Cmd
	audio    io.ReadCloser

	Stride    int
	FrameSize int
}

// NewDecoder starts the ffmpeg subprocesses for one input path, scaled
// and framerate-converted to the configured Standard, with audio
// resampled to the fixed 44100Hz chain rate and the given channel count.
func NewDecoder(cfg *config.Config, input string, channels int) (*Decoder, error) {
	std := cfg.Standard
	stride := std.Width * 4

	videoArgs := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", input,
		"-vf", fmt.Sprintf("scale=%d:%d,fps=%d/%d", std.Width, std.Height, std.FrameRateNum, std.FrameRateDen),
		"-f", "rawvideo", "-pix_fmt", "bgra", "-",
	}
	videoCmd := exec.Command("ffmpeg", videoArgs...)
	videoOut, err := videoCmd.StdoutPipe()
	if err != nil {
		return nil, errs.New(errs.OpenInput, "codec.NewDecoder", err)
	}
	if err := videoCmd.Start(); err != nil {
		return nil, errs.New(errs.OpenInput, "codec.NewDecoder", err)
	}

	audioArgs := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", input,
		"-vn", "-ar", "44100", "-ac", fmt.Sprintf("%d", channels),
		"-f", "s16le", "-",
	}
	audioCmd := exec.Command("ffmpeg", audioArgs...)
	audioOut, err := audioCmd.StdoutPipe()
	if err != nil {
		videoCmd.Process.Kill()
		return nil, errs.New(errs.OpenInput, "codec.NewDecoder", err)
	}
	if err := audioCmd.Start(); err != nil {
		videoCmd.Process.Kill()
		return nil, errs.New(errs.OpenInput, "codec.NewDecoder", err)
	}

	return &Decoder{
		videoCmd:  videoCmd,
		video:     videoOut,
		audioCmd:  audioCmd,
		audio:     audioOut,
		Stride:    stride,
		FrameSize: stride * std.Height,
	}, nil
}

// ReadFrame fills dst (len must equal FrameSize) with the next decoded
// BGRA frame, returning io.EOF once the input is exhausted (spec §7
// DecodeError is recoverable for corrupt frames, but a clean EOF is not
// an error).
func (d *Decoder) ReadFrame(dst []byte) error {
	_, err := io.ReadFull(d.video, dst)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return io.EOF
	}
	if err != nil {
		return errs.New(errs.DecodeError, "codec.ReadFrame", err)
	}
	return nil
}

// ReadAudio fills dst with the next interleaved PCM samples, returning
// the count actually read and io.EOF once the input is exhausted.
func (d *Decoder) ReadAudio(dst []int16) (int, error) {
	raw := make([]byte, len(dst)*2)
	n, err := io.ReadFull(d.audio, raw)
	samples := n / 2
	for i := 0; i < samples; i++ {
		dst[i] = int16(raw[i*2]) | int16(raw[i*2+1])<<8
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return samples, io.EOF
	}
	if err != nil {
		return samples, errs.New(errs.DecodeError, "codec.ReadAudio", err)
	}
	return samples, nil
}

// Close waits for both ffmpeg subprocesses to exit.
func (d *Decoder) Close() error {
	d.video.Close()
	videoErr := d.videoCmd.Wait()
	d.audio.Close()
	audioErr := d.audioCmd.Wait()
	if videoErr != nil {
		return errs.New(errs.DecodeError, "codec.Decoder.Close", videoErr)
	}
	if audioErr != nil {
		return errs.New(errs.DecodeError, "codec.Decoder.Close", audioErr)
	}
	return nil
}

// Encoder muxes emulated RGB frames and emulated PCM audio into the
// output container (spec §6 "Output container"): video as H.264 (CRF 0,
// preset ultrafast, tune zerolatency) in YUV 4:4:4P, audio as signed-16-bit
// little-endian PCM at 44100Hz. Video is streamed over the subprocess's
// stdin; audio is streamed over a second pipe passed as an extra file
// descriptor, so one ffmpeg process muxes both without an intermediate
// file.
type Encoder struct {
	cmd       *exec.Cmd
	videoIn   io.WriteCloser
	audioIn   io.WriteCloser
	Stride    int
	FrameSize int
}

// NewEncoder starts the muxing ffmpeg subprocess for output (spec §6's
// container, determined by output's extension).
func NewEncoder(cfg *config.Config, output string, channels int) (*Encoder, error) {
	std := cfg.Standard
	stride := std.Width * 4

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo", "-pix_fmt", "argb",
		"-video_size", fmt.Sprintf("%dx%d", std.Width, std.Height),
		"-framerate", fmt.Sprintf("%d/%d", std.FrameRateNum, std.FrameRateDen),
		"-i", "pipe:0",
		"-f", "s16le", "-ar", "44100", "-ac", fmt.Sprintf("%d", channels),
		"-i", "pipe:3",
		"-c:v", "libx264", "-crf", "0", "-preset", "ultrafast", "-tune", "zerolatency",
		"-pix_fmt", "yuv444p",
		"-c:a", "pcm_s16le",
		"-y", output,
	}
	cmd := exec.Command("ffmpeg", args...)

	videoIn, err := cmd.StdinPipe()
	if err != nil {
		return nil, errs.New(errs.OpenOutput, "codec.NewEncoder", err)
	}
	audioR, audioW, err := os.Pipe()
	if err != nil {
		return nil, errs.New(errs.OpenOutput, "codec.NewEncoder", err)
	}
	cmd.ExtraFiles = append(cmd.ExtraFiles, audioR)

	if err := cmd.Start(); err != nil {
		return nil, errs.New(errs.OpenOutput, "codec.NewEncoder", err)
	}
	audioR.Close()

	return &Encoder{
		cmd:       cmd,
		videoIn:   videoIn,
		audioIn:   audioW,
		Stride:    stride,
		FrameSize: stride * std.Height,
	}, nil
}

// WriteFrame writes one encoded RGB frame (len must equal FrameSize).
func (e *Encoder) WriteFrame(frame []byte) error {
	if _, err := e.videoIn.Write(frame); err != nil {
		return errs.New(errs.EncodeError, "codec.WriteFrame", err)
	}
	return nil
}

// WriteAudio writes interleaved PCM samples.
func (e *Encoder) WriteAudio(samples []int16) error {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		raw[i*2] = byte(s)
		raw[i*2+1] = byte(s >> 8)
	}
	if _, err := e.audioIn.Write(raw); err != nil {
		return errs.New(errs.EncodeError, "codec.WriteAudio", err)
	}
	return nil
}

// Close flushes the trailer by closing both input pipes and waiting for
// ffmpeg to finish muxing.
func (e *Encoder) Close() error {
	e.videoIn.Close()
	e.audioIn.Close()
	if err := e.cmd.Wait(); err != nil {
		return errs.New(errs.EncodeError, "codec.Encoder.Close", err)
	}
	return nil
}
