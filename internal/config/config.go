// Package config parses and validates beep-relay command-line configuration.
package config

import (
	"errors"
	"flag"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sweeney/beep-relay/internal/adc"
	"github.com/sweeney/beep-relay/internal/gpio"
	"github.com/sweeney/beep-relay/internal/logic"
	"github.com/sweeney/beep-relay/internal/pwm"
	"github.com/sweeney/beep-relay/internal/status"
)

// Backend names accepted by --input and --output.
const (
	InputADC    = "adc"
	InputSound  = "sound"
	OutputPWM   = "pwm"
	OutputGPIO  = "gpio"
	OutputSound = "sound"
)

// Config is the full daemon configuration.
type Config struct {
	SampleInterval  time.Duration `flag:"sample-interval" validate:"gte=1ms,lte=1s"`
	Threshold       int           `flag:"threshold" validate:"gte=0,lte=65535"`
	MinBeep         time.Duration `flag:"min-beep" validate:"gte=1ms,ltefield=MaxBeep"`
	MaxBeep         time.Duration `flag:"max-beep" validate:"gte=1ms,lte=1h"`
	ReplayFreqHz    int           `flag:"replay-freq" validate:"gte=20,lte=20000"`
	MicDisableDelay time.Duration `flag:"mic-disable-delay" validate:"gte=0s,lte=10s"`

	Broker    string        `flag:"broker" validate:"required,url"`
	ClientID  string        `flag:"client-id" validate:"required,max=23"`
	Heartbeat time.Duration `flag:"heartbeat" validate:"gte=0s"`
	HTTPAddr  string        `flag:"http" validate:"omitempty,hostname_port"`

	Input      string `flag:"input" validate:"oneof=adc sound"`
	Output     string `flag:"output" validate:"oneof=pwm gpio sound"`
	ADCDevice  int    `flag:"adc-device" validate:"gte=0"`
	ADCChannel int    `flag:"adc-channel" validate:"gte=0"`
	PWMChip    int    `flag:"pwm-chip" validate:"gte=0"`
	PWMChannel int    `flag:"pwm-channel" validate:"gte=0"`
	PinBuzzer  int    `flag:"pin-buzzer" validate:"gte=0"`
	PinLED     int    `flag:"pin-led" validate:"gte=-1"`

	LogLevel   string `flag:"log-level" validate:"oneof=debug info warn error"`
	PrintLevel bool   `flag:"print-level"`
}

// Default returns the configuration used when no flags are given.
func Default() Config {
	p := logic.DefaultPolicy()
	return Config{
		SampleInterval:  time.Duration(p.SampleIntervalMs) * time.Millisecond,
		Threshold:       int(p.Threshold),
		MinBeep:         time.Duration(p.MinBeepMs) * time.Millisecond,
		MaxBeep:         time.Duration(p.MaxBeepMs) * time.Millisecond,
		ReplayFreqHz:    int(p.ReplayFreqHz),
		MicDisableDelay: time.Duration(p.MicDisableDelayMs) * time.Millisecond,
		Broker:          "tcp://192.168.1.200:1883",
		ClientID:        "beep-relay",
		Heartbeat:       15 * time.Minute,
		HTTPAddr:        ":80",
		Input:           InputADC,
		Output:          OutputPWM,
		ADCDevice:       adc.DefaultDevice,
		ADCChannel:      adc.DefaultChannel,
		PWMChip:         pwm.DefaultChip,
		PWMChannel:      pwm.DefaultChannel,
		PinBuzzer:       gpio.DefaultPinBuzzer,
		PinLED:          gpio.DefaultPinLED,
		LogLevel:        "info",
	}
}

// Parse reads flags from args (without the program name) and validates the result.
func Parse(args []string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("beep-relay", flag.ContinueOnError)
	fs.DurationVar(&cfg.SampleInterval, "sample-interval", cfg.SampleInterval, "Microphone sampling interval")
	fs.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "Amplitude above which a beep is present (0-65535)")
	fs.DurationVar(&cfg.MinBeep, "min-beep", cfg.MinBeep, "Shortest beep that is replayed")
	fs.DurationVar(&cfg.MaxBeep, "max-beep", cfg.MaxBeep, "Longest beep that is replayed")
	fs.IntVar(&cfg.ReplayFreqHz, "replay-freq", cfg.ReplayFreqHz, "Replay tone frequency in Hz")
	fs.DurationVar(&cfg.MicDisableDelay, "mic-disable-delay", cfg.MicDisableDelay, "Pause between a beep ending and its replay")
	fs.StringVar(&cfg.Broker, "broker", cfg.Broker, "MQTT broker address")
	fs.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "MQTT client ID")
	fs.DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "Heartbeat interval (0 to disable)")
	fs.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP status address (empty to disable)")
	fs.StringVar(&cfg.Input, "input", cfg.Input, "Microphone backend: adc or sound")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Buzzer backend: pwm, gpio or sound")
	fs.IntVar(&cfg.ADCDevice, "adc-device", cfg.ADCDevice, "IIO device number of the microphone ADC")
	fs.IntVar(&cfg.ADCChannel, "adc-channel", cfg.ADCChannel, "IIO voltage channel of the microphone ADC")
	fs.IntVar(&cfg.PWMChip, "pwm-chip", cfg.PWMChip, "sysfs PWM chip for the buzzer")
	fs.IntVar(&cfg.PWMChannel, "pwm-channel", cfg.PWMChannel, "sysfs PWM channel for the buzzer")
	fs.IntVar(&cfg.PinBuzzer, "pin-buzzer", cfg.PinBuzzer, "BCM pin number for the buzzer (gpio output)")
	fs.IntVar(&cfg.PinLED, "pin-led", cfg.PinLED, "BCM pin number for the status LED (-1 to disable)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.BoolVar(&cfg.PrintLevel, "print-level", cfg.PrintLevel, "Print one microphone reading and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report flag names instead of struct field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("flag"); name != "" {
			return name
		}
		return fld.Name
	})
}

// Validate checks every field against its constraints and joins the failures
// into a single error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	name := "--" + fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", name, fe.Param(), fe.Value())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed --max-beep", name)
	case "url", "hostname_port":
		return fmt.Sprintf("%s is not a valid address: %v", name, fe.Value())
	default:
		return fmt.Sprintf("%s must satisfy %s=%s, got %v", name, fe.Tag(), fe.Param(), fe.Value())
	}
}

// Policy converts the configuration into detection and replay parameters.
func (c Config) Policy() logic.Policy {
	return logic.Policy{
		SampleIntervalMs:  uint32(c.SampleInterval.Milliseconds()),
		Threshold:         uint16(c.Threshold),
		MinBeepMs:         uint32(c.MinBeep.Milliseconds()),
		MaxBeepMs:         uint32(c.MaxBeep.Milliseconds()),
		ReplayFreqHz:      uint32(c.ReplayFreqHz),
		MicDisableDelayMs: uint32(c.MicDisableDelay.Milliseconds()),
	}
}

// Status returns the configuration summary shown on the status page.
func (c Config) Status() status.Config {
	p := c.Policy()
	return status.Config{
		SampleIntervalMs:  p.SampleIntervalMs,
		Threshold:         p.Threshold,
		MinBeepMs:         p.MinBeepMs,
		MaxBeepMs:         p.MaxBeepMs,
		ReplayFreqHz:      p.ReplayFreqHz,
		MicDisableDelayMs: p.MicDisableDelayMs,
		HeartbeatMs:       c.Heartbeat.Milliseconds(),
		Broker:            c.Broker,
		HTTPAddr:          c.HTTPAddr,
		Input:             c.Input,
		Output:            c.Output,
	}
}
