// Command beep-relay listens for short high-pitched beeps on a microphone and
// replays each valid one on a buzzer at a lower, more audible frequency.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sweeney/beep-relay/internal/adc"
	"github.com/sweeney/beep-relay/internal/clock"
	"github.com/sweeney/beep-relay/internal/config"
	"github.com/sweeney/beep-relay/internal/gpio"
	"github.com/sweeney/beep-relay/internal/logging"
	"github.com/sweeney/beep-relay/internal/logic"
	"github.com/sweeney/beep-relay/internal/mqtt"
	"github.com/sweeney/beep-relay/internal/pwm"
	"github.com/sweeney/beep-relay/internal/relay"
	"github.com/sweeney/beep-relay/internal/sound"
	"github.com/sweeney/beep-relay/internal/status"
	"github.com/sweeney/beep-relay/internal/web"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

type sampler interface {
	relay.Sampler
	io.Closer
}

type emitter interface {
	relay.Emitter
	io.Closer
}

func openSampler(cfg config.Config) (sampler, error) {
	switch cfg.Input {
	case config.InputADC:
		s, err := adc.NewIIOSampler(cfg.ADCDevice, cfg.ADCChannel)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.InputSound:
		s, err := sound.NewPulseSampler()
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown input backend %q", cfg.Input)
}

func openEmitter(cfg config.Config) (emitter, error) {
	freq := uint32(cfg.ReplayFreqHz)
	switch cfg.Output {
	case config.OutputPWM:
		e, err := pwm.NewSysfsEmitter(cfg.PWMChip, cfg.PWMChannel, freq)
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.OutputGPIO:
		e, err := gpio.NewSoftPWM(cfg.PinBuzzer, freq)
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.OutputSound:
		e, err := sound.NewPulseEmitter(freq)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("unknown output backend %q", cfg.Output)
}

// openIndicator falls back to a no-op indicator when the LED is disabled or
// its line cannot be claimed.
func openIndicator(cfg config.Config, log zerolog.Logger) (relay.Indicator, func()) {
	if cfg.PinLED < 0 {
		return gpio.NopIndicator{}, func() {}
	}
	led, err := gpio.NewLineIndicator(cfg.PinLED)
	if err != nil {
		log.Warn().Err(err).Int("pin", cfg.PinLED).Msg("status led unavailable, continuing without it")
		return gpio.NopIndicator{}, func() {}
	}
	return led, func() { led.Close() }
}

func run(cfg config.Config, log zerolog.Logger) error {
	src, err := openSampler(cfg)
	if err != nil {
		return fmt.Errorf("init %s input: %w", cfg.Input, err)
	}
	defer src.Close()

	// Print level mode
	if cfg.PrintLevel {
		level, err := src.Read()
		if err != nil {
			return fmt.Errorf("read %s input: %w", cfg.Input, err)
		}
		fmt.Printf("level: %d, threshold: %d, present: %v\n", level, cfg.Threshold, int(level) > cfg.Threshold)
		return nil
	}

	out, err := openEmitter(cfg)
	if err != nil {
		return fmt.Errorf("init %s output: %w", cfg.Output, err)
	}
	defer out.Close()

	indicator, closeIndicator := openIndicator(cfg, log)
	defer closeIndicator()

	bootID := uuid.NewString()

	publisher, err := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID, logging.Component(log, "mqtt"))
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), bootID, cfg.Status())
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Error().Err(err).Msg("failed to publish startup event")
	} else {
		log.Info().Msg("published startup event")
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http status server listening")
	}

	ctl := relay.New(cfg.Policy(), src, out, indicator, clock.NewReal(), logging.Component(log, "relay"))

	log.Info().
		Str("boot_id", bootID).
		Str("input", cfg.Input).
		Str("output", cfg.Output).
		Int("threshold", cfg.Threshold).
		Dur("min_beep", cfg.MinBeep).
		Dur("max_beep", cfg.MaxBeep).
		Int("replay_hz", cfg.ReplayFreqHz).
		Str("broker", cfg.Broker).
		Msg("started")

	ticker := time.NewTicker(cfg.SampleInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctl, publisher, publisher, tracker, cfg.Heartbeat, log, time.Now, ticker.C, sigCh)
}

// runLoop steps the controller once per tick until a signal arrives or the
// hardware fails. Publish failures are logged and never stop the loop.
func runLoop(ctl *relay.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, log zerolog.Logger, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	hb := logic.NewHeartbeat(now())
	replayHz := ctl.Policy().ReplayFreqHz

	publishStatus := func(t time.Time, event, reason string) {
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		tracker.Update(ctl.EventState(), ctl.GateState(), ctl.Counts())
		snap := tracker.Snapshot()
		se := mqtt.SystemEvent{
			Timestamp:  t,
			Event:      event,
			Reason:     reason,
			Retained:   event != "HEARTBEAT",
			RawPayload: status.FormatStatusEvent(snap, event, reason),
		}
		if err := publisher.PublishSystem(se); err != nil {
			log.Error().Err(err).Str("event", event).Msg("failed to publish system event")
		}
	}

	for {
		select {
		case s := <-sig:
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			log.Info().Str("signal", signalName).Msg("shutting down")
			publishStatus(now(), "SHUTDOWN", signalName)
			return nil

		case <-tick:
			t := now()
			out, err := ctl.Step()

			if out.Beep != nil {
				tracker.RecordBeep(t, *out.Beep)
				event := mqtt.Event{Timestamp: t, Beep: *out.Beep, ReplayFreqHz: replayHz}
				if perr := publisher.Publish(event); perr != nil {
					log.Error().Err(perr).Msg("publish error")
				}
			}

			if err != nil {
				publishStatus(t, "SHUTDOWN", "FAULT")
				return fmt.Errorf("relay step: %w", err)
			}

			if hbData := hb.Check(t, heartbeat, ctl.Counts()); hbData != nil {
				log.Info().
					Dur("uptime", hbData.Uptime).
					Int("detected", hbData.Counts.Detected).
					Int("replayed", hbData.Counts.Replayed).
					Msg("heartbeat")
				publishStatus(hbData.Timestamp, "HEARTBEAT", "")
			}

			// Update status tracker for HTTP consumers
			tracker.Update(ctl.EventState(), ctl.GateState(), ctl.Counts())
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
		}
	}
}
