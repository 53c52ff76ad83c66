package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joshp123/findmy/internal/config"
)

const commandTimeout = 30 * time.Second

func main() {
	flags := flag.NewFlagSet("findmy-cli", flag.ExitOnError)
	jsonOutput := flags.Bool("json", false, "print JSON instead of tables")
	configPath := flags.String("config", "", "config file (default $FINDMY_CONFIG or "+config.DefaultPath+")")
	flags.Usage = usage
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out := newOutput(*jsonOutput)
	switch args[0] {
	case "devices", "status", "locate", "sound", "message", "lost", "publish":
		cfg := loadConfig(*configPath)
		deviceCmd(ctx, cfg, args[0], args[1:], out)
	case "services", "methods", "health":
		grpcCmd(ctx, args[0], args[1:], out)
	default:
		usage()
		os.Exit(2)
	}
}

func loadConfig(explicit string) *config.Config {
	paths := configSearchPaths(explicit)
	var lastErr error
	for _, path := range paths {
		cfg, err := config.Load(path)
		if err == nil {
			return cfg
		}
		lastErr = err
		if explicit != "" {
			break
		}
	}
	fatal("load config", lastErr)
	return nil
}

func configSearchPaths(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	if value := os.Getenv("FINDMY_CONFIG"); value != "" {
		return []string{value}
	}
	paths := []string{config.DefaultPath}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "findmy", "config.yaml"))
	}
	return paths
}

func usage() {
	fmt.Println("findmy-cli [--json] [--config path] <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  devices")
	fmt.Println("  status <device> [field...]")
	fmt.Println("  locate <device>")
	fmt.Println("  sound <device> [subject]")
	fmt.Println("  message <device> [--subject s] [--sound] <text>")
	fmt.Println("  lost <device> <phone> [--text t] [--passcode p]")
	fmt.Println("  publish                     publish every device state to MQTT")
	fmt.Println("  services                    list daemon gRPC services")
	fmt.Println("  methods <service>")
	fmt.Println("  health [service]")
}

func fatal(action string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
	os.Exit(1)
}
