package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/tuannm99/memsql/internal"
	"github.com/tuannm99/memsql/internal/engine"
	"github.com/tuannm99/memsql/internal/repl"
	"github.com/tuannm99/memsql/internal/sql/executor"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "config file (yaml)")
		oneShotSQL = flag.String("c", "", "execute one SQL statement and exit")
		multiline  = flag.Bool("multiline", false, "buffer input until ';' instead of one statement per line")
		tableMode  = flag.Bool("table", false, "print query results as tables instead of JSON")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := internal.NewLogger(cfg, os.Stderr)

	ex := executor.NewExecutor(engine.NewStore(), logger,
		executor.WithStatementCache(cfg.Executor.StmtCacheSize))

	mode := repl.ModeJSON
	if *tableMode {
		mode = repl.ModeTable
	}

	if *oneShotSQL != "" {
		res, err := ex.ExecSQL(*oneShotSQL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := repl.Render(os.Stdout, res, mode, repl.RenderOptions{}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	shellCfg := repl.Config{
		Prompt:    cfg.REPL.Prompt,
		Multiline: *multiline,
		Mode:      mode,
		Tables:    ex.Tables,
	}

	var in repl.LineReader
	if term.IsTerminal(int(os.Stdin.Fd())) {
		h := repl.NewHistory(cfg.REPL.History, cfg.REPL.HistoryMax)
		if err := h.Load(); err != nil {
			logger.Warn("load history", "path", cfg.REPL.History, "err", err)
		}
		shellCfg.History = h

		rl, err := readline.NewEx(&readline.Config{
			Prompt:                 cfg.REPL.Prompt,
			InterruptPrompt:        "^C",
			EOFPrompt:              "exit",
			DisableAutoSaveHistory: true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "readline: %v\n", err)
			os.Exit(1)
		}
		in = rl
	} else {
		// piped input: no prompt, no history
		in = repl.NewScanReader(os.Stdin)
	}
	defer func() { _ = in.Close() }()

	if err := repl.NewShell(shellCfg, in, os.Stdout, os.Stderr, ex.ExecSQL).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
