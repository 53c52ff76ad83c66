package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joshp123/findmy/internal/config"
	"github.com/joshp123/findmy/internal/logging"
	"github.com/joshp123/findmy/internal/mqtt"
	"github.com/joshp123/findmy/plugins/findmy"
)

func deviceCmd(ctx context.Context, cfg *config.Config, command string, args []string, out outputMode) {
	manager := newManager(cfg)
	if err := manager.InitList(ctx); err != nil {
		fatal("list devices", err)
	}

	switch command {
	case "devices":
		devicesCmd(manager, out)
	case "status":
		statusCmd(ctx, manager, args, out)
	case "locate":
		locateCmd(ctx, manager, args, out)
	case "sound":
		soundCmd(ctx, manager, args)
	case "message":
		messageCmd(ctx, manager, args)
	case "lost":
		lostCmd(ctx, manager, args)
	case "publish":
		publishCmd(cfg, manager)
	}
}

func newManager(cfg *config.Config) *findmy.Manager {
	clientCfg, err := findmy.ConfigFromFile(cfg.FindMy)
	if err != nil {
		fatal("findmy config", err)
	}
	conn, err := findmy.NewConnection(clientCfg)
	if err != nil {
		fatal("findmy connection", err)
	}
	return findmy.NewManager(conn, clientCfg.WithFamily)
}

func devicesCmd(manager *findmy.Manager, out outputMode) {
	devices := manager.Devices()
	if out.json {
		states := make([]findmy.DeviceState, 0, len(devices))
		for _, device := range devices {
			states = append(states, device.State())
		}
		out.printJSON(states)
		return
	}

	rows := [][]string{{"NAME", "MODEL", "BATTERY", "STATUS", "ID"}}
	for _, device := range devices {
		battery := "-"
		if level, ok := device.BatteryLevel(); ok {
			battery = fmt.Sprintf("%.0f%%", level*100)
		}
		rows = append(rows, []string{
			formatValue(device.Name()),
			formatValue(device.DisplayName()),
			battery,
			formatValue(device.DeviceStatus()),
			device.ID(),
		})
	}
	out.table(rows)
}

func statusCmd(ctx context.Context, manager *findmy.Manager, args []string, out outputMode) {
	device := requireDevice(manager, "status", args)
	status, err := device.Status(ctx, manager, args[1:]...)
	if err != nil {
		fatal("status", err)
	}
	if out.json {
		out.printJSON(status)
		return
	}

	fields := append([]string{"name", "deviceDisplayName", "batteryLevel", "deviceStatus"}, args[1:]...)
	rows := [][]string{{"FIELD", "VALUE"}}
	for _, field := range fields {
		rows = append(rows, []string{field, formatValue(status[field])})
	}
	out.table(rows)
}

func locateCmd(ctx context.Context, manager *findmy.Manager, args []string, out outputMode) {
	device := requireDevice(manager, "locate", args)
	loc, err := device.Location(ctx, manager)
	if err != nil {
		fatal("locate", err)
	}
	if out.json {
		out.printJSON(loc)
		return
	}

	when := "-"
	if loc.Timestamp != nil {
		when = loc.Timestamp.Local().Format("2006-01-02 15:04:05")
	}
	out.table([][]string{
		{"DEVICE", "LATITUDE", "LONGITUDE", "ACCURACY", "TYPE", "UPDATED"},
		{
			formatValue(device.Name()),
			fmt.Sprintf("%.6f", loc.Latitude),
			fmt.Sprintf("%.6f", loc.Longitude),
			fmt.Sprintf("%.0fm", loc.HorizontalAccuracy),
			formatValue(loc.PositionType),
			when,
		},
	})
}

func soundCmd(ctx context.Context, manager *findmy.Manager, args []string) {
	device := requireDevice(manager, "sound", args)
	subject := ""
	if len(args) > 1 {
		subject = strings.Join(args[1:], " ")
	}
	if err := device.PlaySound(ctx, manager, subject); err != nil {
		fatal("sound", err)
	}
	fmt.Printf("sound requested on %s\n", device.Name())
}

func messageCmd(ctx context.Context, manager *findmy.Manager, args []string) {
	flags := flag.NewFlagSet("message", flag.ExitOnError)
	subject := flags.String("subject", "", "message subject")
	withSound := flags.Bool("sound", false, "play a sound with the message")
	device := requireDevice(manager, "message", args)
	_ = flags.Parse(args[1:])

	text := strings.Join(flags.Args(), " ")
	if err := device.DisplayMessage(ctx, manager, *subject, text, *withSound); err != nil {
		fatal("message", err)
	}
	fmt.Printf("message sent to %s\n", device.Name())
}

func lostCmd(ctx context.Context, manager *findmy.Manager, args []string) {
	flags := flag.NewFlagSet("lost", flag.ExitOnError)
	text := flags.String("text", "", "message shown on the lock screen")
	passcode := flags.String("passcode", "", "new device passcode")
	if len(args) < 2 {
		fatal("lost", fmt.Errorf("usage: findmy-cli lost <device> <phone> [--text t] [--passcode p]"))
	}
	device := requireDevice(manager, "lost", args)
	phone := args[1]
	_ = flags.Parse(args[2:])

	if err := device.LostMode(ctx, manager, phone, *text, *passcode); err != nil {
		fatal("lost", err)
	}
	fmt.Printf("lost mode enabled on %s\n", device.Name())
}

func publishCmd(cfg *config.Config, manager *findmy.Manager) {
	if cfg.MQTT == nil {
		fatal("publish", fmt.Errorf("mqtt config is required"))
	}
	logger := logging.New(cfg.Logging, "cli").With("component", "publish")

	publisher, err := mqtt.Connect(*cfg.MQTT)
	if err != nil {
		fatal("mqtt connect", err)
	}
	defer publisher.Close()

	failed := 0
	for _, device := range manager.Devices() {
		payload, err := device.StatePayload()
		if err == nil {
			err = publisher.PublishDeviceState(device.ID(), payload)
		}
		if err != nil {
			failed++
			logger.Error("publish device state failed", "device_id", device.ID(), "error", err)
			continue
		}
		logger.Info("published device state", "device_id", device.ID(), "topic", mqtt.DeviceStateTopic(cfg.MQTT.TopicPrefix, device.ID()))
	}
	if failed > 0 {
		publisher.Close()
		fmt.Fprintf(os.Stderr, "publish: %d device(s) failed\n", failed)
		os.Exit(1)
	}
}

func requireDevice(manager *findmy.Manager, command string, args []string) *findmy.Device {
	if len(args) < 1 {
		fatal(command, fmt.Errorf("missing device id or name"))
	}
	device, err := resolveDevice(manager.Devices(), args[0])
	if err != nil {
		fatal(command, err)
	}
	return device
}
