package app

import (
	"context"
	"time"

	"github.com/ayusman/posetris/internal/capture"
	"github.com/ayusman/posetris/internal/detector"
	"github.com/ayusman/posetris/internal/session"
)

// runLoop ticks at the configured frame rate until the context ends.
//
// Each tick:
// 1. Read a frame (mirrored by the camera when configured)
// 2. Publish it as JPEG if a stream is watching
// 3. Detect the pose; failures count as no detection
// 4. Advance the session and publish its snapshot
// 5. Dispatch the raised events to hook plugins
func (a *App) runLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.Step(ctx, now)
		}
	}
}

// Step processes one frame at the given time and returns the resulting snapshot.
func (a *App) Step(ctx context.Context, now time.Time) session.Snapshot {
	start := time.Now()

	a.mu.Lock()
	p := a.detect()
	snap := a.session.Tick(now, p)
	events := a.session.Events()
	a.mu.Unlock()

	a.publish(snap)
	a.metrics.frames.Inc()
	a.metrics.tickDuration.Observe(time.Since(start).Seconds())

	for _, e := range events {
		a.metrics.observeEvent(e)
		a.logger.Debug().Str("event", string(e.Type)).Int("score", e.Score).Msg("game event")
		a.hooks.Dispatch(ctx, e)
	}

	return snap
}

// detect reads one frame and runs the detector on it. Must be called with a.mu held.
func (a *App) detect() *detector.Pose {
	if a.detector == nil {
		return nil
	}

	if a.camera == nil {
		p, err := a.detector.Detect(nil)
		return a.detected(p, err)
	}

	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.metrics.frameErrors.WithLabelValues("read").Inc()
		a.logger.Debug().Err(err).Msg("error reading frame")
		return nil
	}
	defer frame.Close()

	if a.viewers.Load() > 0 {
		if jpeg, err := capture.EncodeJPEG(frame); err == nil {
			a.publishFrame(jpeg)
		} else {
			a.metrics.frameErrors.WithLabelValues("encode").Inc()
		}
	}

	p, err := a.detector.Detect(frame)
	return a.detected(p, err)
}

func (a *App) detected(p *detector.Pose, err error) *detector.Pose {
	if err != nil {
		a.metrics.frameErrors.WithLabelValues("detect").Inc()
		a.logger.Debug().Err(err).Msg("error detecting pose")
		return nil
	}
	if p == nil {
		a.metrics.dropouts.Inc()
	}
	return p
}
