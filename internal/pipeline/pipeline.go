// Package pipeline implements the two-stage producer/consumer model of
// spec §5: a producer runs decode plus the DSP chain and hands completed
// fields to a single consumer over a buffered channel with N-1 slots
// (spec §6's "-d" delay-buffer depth N), which is the backpressure contract between
// DSP throughput and encoder throughput. A soft-cancel flag set on
// interrupt signals finishes the current field, drains whatever is still
// queued in the delay buffer to the consumer, then unwinds; a second
// interrupt escalates to a hard abort that drops anything still queued.
//
// Grounded on zsiec-prism/cmd/prism/main.go (context-cancel-on-signal,
// golang.org/x/sync/errgroup supervision of concurrent stages) and
// hacktvlive/main.go's signal channel shape, with the double-signal
// escalation and strict field-ordering semantics from spec §5 that the
// pack examples don't themselves need.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ntscvhs/internal/errs"
)

// Field is one completed unit of work handed from producer to consumer:
// one fully degraded video frame (both field parities already written
// into RGB) plus the audio samples spanning that frame's duration, ready
// for the encoder collaborator. Index is the frame's presentation order.
type Field struct {
	Index int64
	RGB   []byte
	Audio []int16
}

// Producer computes one field given its index. It reports that the input
// is exhausted by returning ok=false with a nil error.
type Producer func(ctx context.Context, index int64) (Field, bool, error)

// Consumer writes one completed field to the encoder collaborator, in
// strict field-index order (spec §5 "Ordering guarantees").
type Consumer func(ctx context.Context, f Field) error

// Pipeline wires one Producer and one Consumer through a buffered channel
// with delayDepth-1 slots — spec §6's "-d <n> delay-buffer depth (1..256)",
// mirroring original_source/ffmpeg_ntsc.cpp's output_avstream_video_frame
// ring buffer of depth+1 preallocated frames, adapted here to a Go
// channel rather than a frame pool (Go's allocator
// doesn't need the preallocation the C++ original used to avoid
// malloc-per-frame). The channel is the only cross-goroutine structure;
// all DSP filter state stays producer-owned and the encoder context stays
// consumer-owned (spec §5 "Shared resources"). A depth of 1 degenerates
// to a direct unbuffered handoff.
type Pipeline struct {
	produce    Producer
	consume    Consumer
	delayDepth int

	cancel chan struct{} // soft-cancel flag, closed once
}

// New builds a Pipeline with the given delay-buffer depth (spec §6 "-d").
// Call Run to drive it to completion.
func New(produce Producer, consume Consumer, delayDepth int) *Pipeline {
	return &Pipeline{
		produce:    produce,
		consume:    consume,
		delayDepth: delayDepth,
		cancel:     make(chan struct{}),
	}
}

// Run drives the producer/consumer pair to completion (or to the first
// error / soft-cancel), installing signal handling for
// SIGINT/SIGTERM/SIGHUP/SIGQUIT per spec §5's cancellation policy: the
// first signal requests a soft cancel that finishes the current field and
// flushes the encoder; a second signal hard-aborts via context
// cancellation, emitting no partial frame.
func (p *Pipeline) Run(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer stop()

	hardCtx, hardCancel := context.WithCancel(parent)
	defer hardCancel()

	go p.watchEscalation(ctx, hardCancel)

	g, gctx := errgroup.WithContext(hardCtx)

	capacity := p.delayDepth - 1
	if capacity < 0 {
		capacity = 0
	}
	frames := make(chan Field, capacity) // spec §6 "-d": N-deep delay buffer

	g.Go(func() error {
		defer close(frames)
		return p.runProducer(gctx, frames)
	})
	g.Go(func() error {
		return p.runConsumer(gctx, frames)
	})

	if err := g.Wait(); err != nil {
		return errs.New(errs.EncodeError, "pipeline.Run", err)
	}
	return nil
}

// watchEscalation sets the soft-cancel flag on the first signal and
// forces a hard abort on the second, within a 20-second window (spec §5
// "A second interrupt within 20[s] triggers escalates to hard abort").
func (p *Pipeline) watchEscalation(ctx context.Context, hardCancel context.CancelFunc) {
	<-ctx.Done()
	close(p.cancel)
	slog.Warn("pipeline: soft cancel requested, finishing current field")

	escalate, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer stop()

	select {
	case <-escalate.Done():
		slog.Warn("pipeline: second interrupt received, hard aborting")
		hardCancel()
	case <-time.After(20 * time.Second):
	}
}

// runProducer computes fields in strictly increasing index order and
// sends each to the consumer over the frames channel, blocking while its
// delayDepth-1 slots are full; with a depth of 1 the channel is
// unbuffered and every send waits until the consumer takes the field.
func (p *Pipeline) runProducer(ctx context.Context, frames chan<- Field) error {
	var index int64
	for {
		select {
		case <-p.cancel:
			return nil
		default:
		}

		f, ok, err := p.produce(ctx, index)
		if err != nil {
			if errs.OfKind(err, errs.DecodeError) {
				slog.Warn("pipeline: discarding frame after decode error", "field_index", index, "error", err)
				index++
				continue
			}
			return err
		}
		if !ok {
			return nil
		}

		select {
		case frames <- f:
		case <-ctx.Done():
			return ctx.Err()
		}
		index++
	}
}

// runConsumer receives fields in the order the producer sent them (the
// channel already guarantees FIFO delivery) and writes each to
// the encoder collaborator.
func (p *Pipeline) runConsumer(ctx context.Context, frames <-chan Field) error {
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			if err := p.consume(ctx, f); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
