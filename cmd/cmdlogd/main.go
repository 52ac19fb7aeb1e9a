/*
Copyright (C) 2023, 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// cmdlogd is the command-line log daemon: a TCP front end over a
// fixed-capacity, oldest-evicting in-memory log (internal/cmdlog), wired
// together with the ambient and domain stacks in internal/config,
// internal/logging, internal/server, internal/archive and internal/admin.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dc0d/onexit"

	"github.com/launix-de/cmdlogd/internal/admin"
	"github.com/launix-de/cmdlogd/internal/archive"
	"github.com/launix-de/cmdlogd/internal/cmdlog"
	"github.com/launix-de/cmdlogd/internal/config"
	"github.com/launix-de/cmdlogd/internal/logging"
	"github.com/launix-de/cmdlogd/internal/server"
)

func main() {
	fmt.Print(`cmdlogd Copyright (C) 2023, 2026   Carl-Philip Hänsch
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;
`)

	var (
		configPath = flag.String("c", "cmdlogd.yaml", "path to the YAML config file")
		daemonize  = flag.Bool("d", false, "daemonize after binding (background logging only; process supervision is left to the caller)")
		keep       = flag.Bool("k", false, "run the audit archiver even if the config file leaves it disabled")
	)
	flag.Parse()

	log := logging.Default()
	if *daemonize {
		log.Infof("daemonize requested: cmdlogd does not double-fork itself, run it under your process supervisor of choice")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Errorf("config: %v", err)
		os.Exit(1)
	}
	defer cfg.Close()

	guard := cmdlog.NewGuard(cfg.Current().RingCapacity)

	// -k is the retained CLI surface of the original "keep persistence
	// artifact across restart" flag; here it toggles whether the audit
	// archiver runs at all, on top of whatever the config file says.
	var archiver *archive.Archiver
	if cfg.Current().Archive.Enabled || *keep {
		archiver, err = startArchiver(cfg.Current(), log)
		if err != nil {
			log.Errorf("archive: %v", err)
			os.Exit(1)
		}
		guard.SetEvictFunc(archiver.EvictFunc)
		onexit.Register(func() { archiver.Close() })
	}

	sup, err := server.New(cfg.Current().ListenAddr, guard, log)
	if err != nil {
		log.Errorf("server: %v", err)
		os.Exit(1)
	}

	cfg.OnChange(func(c config.Config) {
		sup.SetPollInterval(time.Duration(c.PollIntervalMS) * time.Millisecond)
		sup.SetTimestampInterval(time.Duration(c.TimestampMS) * time.Millisecond)
	})
	sup.SetPollInterval(time.Duration(cfg.Current().PollIntervalMS) * time.Millisecond)
	sup.SetTimestampInterval(time.Duration(cfg.Current().TimestampMS) * time.Millisecond)

	if addr := cfg.Current().AdminListenAddr; addr != "" {
		go serveAdmin(addr, guard, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Current().ListenAddr)
		serverErr <- sup.Run(ctx)
	}()

	// With a controlling terminal and no -d, the operator console takes
	// over the foreground; "quit" there stops the supervisor too. Under
	// -d (or without a tty) we just wait for the server loop or a signal.
	interactive := false
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		interactive = true
	}
	if !*daemonize && interactive {
		console := admin.NewConsole(guard, sup)
		go func() {
			if err := console.Run(); err != nil {
				log.Warnf("admin console: %v", err)
			}
			stop()
		}()
	}

	if err := <-serverErr; err != nil {
		log.Errorf("server: %v", err)
		onexit.Exit(1)
		return
	}
	onexit.Exit(0)
}

func startArchiver(c config.Config, log *logging.Logger) (*archive.Archiver, error) {
	sink, err := archive.Build(c.Archive.Scheme, c.Archive.Options)
	if err != nil {
		return nil, err
	}

	var codec archive.Codec
	switch c.Archive.Codec {
	case "xz":
		codec = archive.XZCodec{}
	case "lz4":
		codec = archive.LZ4Codec{}
	}

	onError := func(err error) { log.Warnf("archive: %v", err) }
	return archive.NewArchiver(sink, codec, archive.NewIndex(), onError), nil
}

func serveAdmin(addr string, guard *cmdlog.Guard, log *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/tail", admin.NewLiveTailHandler(guard, log))
	log.Infof("admin live-tail on %s/tail", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("admin http: %v", err)
	}
}
