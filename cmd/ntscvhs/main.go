// Command ntscvhs transcodes video through the NTSC/PAL composite and
// VHS analog-artifact emulation chain (spec.md), shelling out to ffmpeg
// for container demux/mux and codec decode/encode.
//
// Grounded on hacktvlive/main.go (device-open/configure/run/signal
// shape, device swapped for the codec/compositor/audio collaborators)
// and zsiec-prism/cmd/prism/main.go (slog setup, errgroup-free top-level
// wiring handed to internal/pipeline).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"ntscvhs/internal/audio"
	"ntscvhs/internal/codec"
	"ntscvhs/internal/compositor"
	"ntscvhs/internal/config"
	"ntscvhs/internal/errs"
	"ntscvhs/internal/pipeline"
	"ntscvhs/internal/progress"
)

const audioChannels = 2

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(os.Args[1:]); err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			slog.Error("ntscvhs failed", "op", e.Op, "kind", e.Kind, "error", e.Err)
		} else {
			slog.Error("ntscvhs failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.New(args)
	if err != nil {
		return err
	}
	if cfg.Debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if len(cfg.Inputs) == 0 {
		return errs.New(errs.InvalidArgument, "main.run", fmt.Errorf("at least one -i input is required"))
	}
	if cfg.Output == "" {
		return errs.New(errs.InvalidArgument, "main.run", fmt.Errorf("-o output is required"))
	}

	decoders := make([]*codec.Decoder, len(cfg.Inputs))
	for i, input := range cfg.Inputs {
		dec, err := codec.NewDecoder(cfg, input, audioChannels)
		if err != nil {
			return err
		}
		decoders[i] = dec
	}
	defer func() {
		for _, dec := range decoders {
			_ = dec.Close()
		}
	}()

	enc, err := codec.NewEncoder(cfg, cfg.Output, audioChannels)
	if err != nil {
		return err
	}
	defer func() {
		if err := enc.Close(); err != nil {
			slog.Error("encoder flush failed", "error", err)
		}
	}()

	comp := compositor.New(cfg)
	audioBank, err := audio.New(cfg, audioChannels)
	if err != nil {
		return err
	}

	// audioSamplesPerFrame is the number of interleaved PCM frames
	// (44100Hz chain rate against the configured Standard's frame rate)
	// spanning one video frame's duration, rounded down (735 for NTSC).
	audioSamplesPerFrame := cfg.Standard.FrameRateDen * int(audio.SampleRate) / cfg.Standard.FrameRateNum

	var dropped, processed atomic.Int64

	reporter := progress.New(os.Stdout, os.Stdout.Fd(), func() progress.Stats {
		return progress.Stats{FieldIndex: processed.Load(), Dropped: dropped.Load()}
	})

	ctx, cancelProgress := context.WithCancel(context.Background())
	defer cancelProgress()
	go reporter.Run(ctx)

	produce := makeProducer(cfg, decoders, comp, audioBank, audioSamplesPerFrame, &dropped)
	consume := makeConsumer(enc, &processed)

	p := pipeline.New(produce, consume, cfg.DelayDepth)
	if err := p.Run(context.Background()); err != nil {
		return err
	}
	return nil
}

// makeProducer decodes one input frame per layer, composites both field
// parities into a single output frame, and decodes the matching audio
// span, bundling both into one pipeline.Field (spec §5's producer side).
func makeProducer(
	cfg *config.Config,
	decoders []*codec.Decoder,
	comp *compositor.Compositor,
	audioBank *audio.Bank,
	audioSamplesPerFrame int,
	dropped *atomic.Int64,
) pipeline.Producer {
	stride := cfg.Standard.Width * 4
	frameSize := stride * cfg.Standard.Height

	layers := make([][]byte, len(decoders))
	for i := range layers {
		layers[i] = make([]byte, frameSize)
	}
	dst := make([]byte, frameSize)
	pcm := make([]int16, audioSamplesPerFrame*audioChannels)

	return func(ctx context.Context, index int64) (pipeline.Field, bool, error) {
		for i, dec := range decoders {
			if err := dec.ReadFrame(layers[i]); err != nil {
				if errors.Is(err, io.EOF) {
					return pipeline.Field{}, false, nil
				}
				return pipeline.Field{}, false, err
			}
		}

		frame := &compositor.Frame{Layers: layers, Stride: stride, Interlaced: false, TopFieldFirst: true}

		if err := comp.ProcessField(frame, index*2, dst); err != nil {
			dropped.Add(1)
			return pipeline.Field{}, false, err
		}
		if err := comp.ProcessField(frame, index*2+1, dst); err != nil {
			dropped.Add(1)
			return pipeline.Field{}, false, err
		}

		n, err := decoders[0].ReadAudio(pcm)
		if err != nil && !errors.Is(err, io.EOF) {
			return pipeline.Field{}, false, err
		}
		processedAudio := audioBank.ProcessInterleaved(pcm[:n])

		out := make([]byte, frameSize)
		copy(out, dst)
		return pipeline.Field{Index: index, RGB: out, Audio: processedAudio}, true, nil
	}
}

// makeConsumer writes one fully-degraded frame plus its audio span to
// the encoder collaborator, in the strict order the producer emitted
// them (spec §5 "Ordering guarantees").
func makeConsumer(enc *codec.Encoder, processed *atomic.Int64) pipeline.Consumer {
	return func(ctx context.Context, f pipeline.Field) error {
		if err := enc.WriteFrame(f.RGB); err != nil {
			return err
		}
		if len(f.Audio) > 0 {
			if err := enc.WriteAudio(f.Audio); err != nil {
				return err
			}
		}
		processed.Add(1)
		return nil
	}
}
