package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/hostwatch/edr-agent/agent"
	"github.com/hostwatch/edr-agent/alert"
	"github.com/hostwatch/edr-agent/config"
	"github.com/hostwatch/edr-agent/domain"
	"github.com/hostwatch/edr-agent/kernel"
	"github.com/hostwatch/edr-agent/policy"
	"github.com/hostwatch/edr-agent/procfs"
	"github.com/hostwatch/edr-agent/sets"
)

const usage = `edr-agent

edr-agent watches every process exec and outbound TCP/UDP socket on the host
via a pair of eBPF hooks, killing deny-listed programs and blocking
deny-listed remote destinations.
`

// exitHandler mirrors the teacher's signal-handling goroutine: receive one
// signal, log it, stop the drain loop and the profiler, and let main's
// Shutdown call run (which is where systemd is notified).
func exitHandler(signalChan chan os.Signal, rt *agent.Runtime, prof interface{ Stop() }) {
	var printStack bool

	s := <-signalChan
	logrus.Warnf("edr-agent caught signal: %s", s)
	logrus.Info("Stopping (gracefully) ...")

	switch s {
	case syscall.SIGABRT, syscall.SIGINT, syscall.SIGQUIT:
		printStack = true
	}

	if printStack {
		stacktrace := make([]byte, 32768)
		n := runtime.Stack(stacktrace, true)
		logrus.Warnf("\n\n%s\n", string(stacktrace[:n]))
	}

	rt.Stop()

	if prof != nil {
		prof.Stop()
	}
}

func runProfiler(ctx *cli.Context) (interface{ Stop() }, error) {
	cpuOn := ctx.Bool("cpu-profiling")
	memOn := ctx.Bool("memory-profiling")

	if cpuOn && memOn {
		return nil, fmt.Errorf("unsupported parameter combination: cpu and memory profiling")
	}
	if !cpuOn && !memOn {
		return nil, nil
	}

	if cpuOn {
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
	}
	return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook), nil
}

func main() {
	app := cli.NewApp()
	app.Name = "edr-agent"
	app.Usage = usage

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config-dir",
			Value: "/etc/edr-agent",
			Usage: "directory containing config/blocked_cmds.json, config/blocked_ips.json, config/general_settings.json",
		},
		cli.StringFlag{
			Name:  "cgroup-root",
			Value: "/sys/fs/cgroup",
			Usage: "cgroup v2 mount point",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "log file path or empty string for stderr output (default: \"\")",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "log categories to include (debug, info, warning, error, fatal)",
		},
		cli.StringFlag{
			Name:  "log-format",
			Value: "text",
			Usage: "log format; must be json or text",
		},
		cli.BoolFlag{
			Name:   "cpu-profiling",
			Usage:  "enable cpu-profiling data collection",
			Hidden: true,
		},
		cli.BoolFlag{
			Name:   "memory-profiling",
			Usage:  "enable memory-profiling data collection",
			Hidden: true,
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "diag",
			Usage: "print a process's cmdline and socket tables without loading the eBPF probes",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "pid", Usage: "pid to inspect"},
			},
			Action: func(ctx *cli.Context) error {
				pid := ctx.Int("pid")
				if pid <= 0 {
					return fmt.Errorf("--pid is required")
				}
				insp := procfs.NewInspector(afero.NewOsFs())
				fmt.Printf("cmdline: %v\n", insp.ReadCmdline(uint32(pid)))
				fmt.Printf("tcp sockets: %v\n", insp.ReadAllSockets(uint32(pid), domain.ProtoTCP))
				fmt.Printf("udp sockets: %v\n", insp.ReadAllSockets(uint32(pid), domain.ProtoUDP))
				return nil
			},
		},
	}

	app.Before = func(ctx *cli.Context) error {
		if path := ctx.GlobalString("log"); path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC, 0666)
			if err != nil {
				logrus.Fatalf("Error opening log file %v: %v. Exiting ...", path, err)
				return err
			}
			logrus.SetOutput(f)
			log.SetOutput(f)
		} else {
			logrus.SetOutput(os.Stderr)
			log.SetOutput(os.Stderr)
		}

		if ctx.GlobalString("log-format") == "json" {
			logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
		} else {
			logrus.SetFormatter(&logrus.TextFormatter{TimestampFormat: "2006-01-02 15:04:05", FullTimestamp: true})
		}

		switch logLevel := ctx.GlobalString("log-level"); logLevel {
		case "debug":
			logrus.SetLevel(logrus.DebugLevel)
		case "info", "":
			logrus.SetLevel(logrus.InfoLevel)
		case "warning":
			logrus.SetLevel(logrus.WarnLevel)
		case "error":
			logrus.SetLevel(logrus.ErrorLevel)
		case "fatal":
			logrus.SetLevel(logrus.FatalLevel)
		default:
			logrus.Fatalf("log-level option '%v' not recognized. Exiting ...", logLevel)
		}

		return nil
	}

	app.Action = func(ctx *cli.Context) error {
		logrus.Info("Initiating edr-agent ...")

		configDir := ctx.GlobalString("config-dir")
		cgroupRoot := ctx.GlobalString("cgroup-root")

		cmds, err := config.LoadBlockedCmds(filepath.Join(configDir, "config", "blocked_cmds.json"))
		if err != nil {
			return fmt.Errorf("loading blocked commands: %w", err)
		}
		ips, err := config.LoadBlockedIPs(filepath.Join(configDir, "config", "blocked_ips.json"))
		if err != nil {
			return fmt.Errorf("loading blocked IPs: %w", err)
		}
		settings, err := config.LoadGeneralSettings(filepath.Join(configDir, "config", "general_settings.json"))
		if err != nil {
			return fmt.Errorf("loading general settings: %w", err)
		}

		ipStrings := make([]string, 0, len(ips))
		for _, ip := range ips {
			ipStrings = append(ipStrings, ip.String())
		}

		cmdSet := sets.New(cmds)
		ipSet := sets.New(ipStrings)
		logrus.Infof("loaded %d blocked commands, %d blocked IPs", cmdSet.Len(), ipSet.Len())

		if err := kernel.VerifyCgroupV2(cgroupRoot); err != nil {
			return err
		}
		cgroupDir, err := kernel.CurrentCgroupDir(cgroupRoot)
		if err != nil {
			return fmt.Errorf("resolving current cgroup: %w", err)
		}

		kernelSvc := kernel.New()
		rt := agent.New(kernelSvc)

		blocklist, err := rt.Start(cgroupDir, ips)
		if err != nil {
			return fmt.Errorf("starting kernel service: %w", err)
		}

		inspector := procfs.NewInspector(afero.NewOsFs())
		alertClient := alert.NewClient(settings)
		killer := policy.PidfdKiller{}

		engine := policy.New(inspector, cmdSet, ipSet, blocklist, alertClient, killer)

		if err := rt.AttachEngine(engine); err != nil {
			return fmt.Errorf("attaching policy engine: %w", err)
		}

		prof, err := runProfiler(ctx)
		if err != nil {
			logrus.Fatal(err)
		}

		exitChan := make(chan os.Signal, 1)
		signal.Notify(exitChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		go exitHandler(exitChan, rt, prof)

		logrus.Info("Ready ...")

		rt.Run()

		if err := rt.Shutdown(); err != nil {
			logrus.Warnf("shutdown: %v", err)
		}

		logrus.Info("Done.")
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
