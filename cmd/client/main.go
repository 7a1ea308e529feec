package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chzyer/readline"

	"github.com/tuannm99/memsql/internal"
	"github.com/tuannm99/memsql/internal/repl"
	"github.com/tuannm99/memsql/sqlclient"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "config file (yaml)")
		addr       = flag.String("addr", "", "server address (overrides server.addr)")
		timeout    = flag.Duration("timeout", 3*time.Second, "dial timeout")
		rwTimeout  = flag.Duration("rw-timeout", 30*time.Second, "per-statement read/write timeout")
		histPath   = flag.String("history", repl.DefaultHistoryPath(), "history file path")
		maxWidth   = flag.Int("max-width", 60, "truncate table cells longer than this (0 = off)")
		jsonMode   = flag.Bool("json", false, "print query results as JSON instead of tables")
		oneShotSQL = flag.String("c", "", "execute one SQL and exit")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr == "" {
		*addr = cfg.Server.Addr
	}

	cli, err := sqlclient.Dial(*addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = cli.Close() }()
	cli.SetRWTimeout(*rwTimeout)

	mode := repl.ModeTable
	if *jsonMode {
		mode = repl.ModeJSON
	}
	render := repl.RenderOptions{MaxWidth: *maxWidth}

	// one-shot mode
	if *oneShotSQL != "" {
		res, err := cli.Exec(*oneShotSQL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		_ = repl.Render(os.Stdout, res, mode, render)
		return
	}

	h := repl.NewHistory(*histPath, cfg.REPL.HistoryMax)
	_ = h.Load()

	prompt := cfg.AppName + "> "
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 prompt,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	fmt.Printf("connected to %s\n", *addr)
	fmt.Println("type \\help for help")

	sh := repl.NewShell(repl.Config{
		Prompt:    prompt,
		Multiline: true,
		Mode:      mode,
		Render:    render,
		History:   h,
	}, rl, os.Stdout, os.Stdout, cli.Exec)
	if err := sh.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
