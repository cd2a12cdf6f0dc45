// Copyright 2025 The MentionServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the mentionserve typeahead server, CLI [DBG] and TUI.

Note: This is a BETA release. APIs and functionality may rapidly change.

MentionServe watches a text buffer for trigger tokens such as "@al" or "#go",
keeps a dropdown of matching candidates while the caret stays in the token, and
turns a confirmed candidate into a replace-and-annotate instruction for the
host. It can run as a MessagePack IPC server for editors, as a line based CLI
for debugging, or as a small terminal editor.

# Usage

Start the server with default settings:

	mentionserve

Use a custom config and candidate directory with debug logs:

	mentionserve -config ./mentions.toml -data ./people -d

Run the line CLI or the terminal editor:

	mentionserve -c
	mentionserve -t

# Configuration

Triggers and behaviour switches live in a TOML file, created with demo
triggers on first start:

	[typeahead]
	stop_at_mention = true
	max_visible = 8

	[server]
	refresh_on_query = true

	[[trigger]]
	prefix = "@"
	kind = "person"
	mutability = "segmented"
	file = "people.txt"
	values = ["alice", "albert"]

A trigger's file is looked up in the data directory; .txt, .toml and .msgpack
lists are supported.

# IPC Protocol

The server talks MessagePack over stdin/stdout; see package server for the
message shapes. Logs always go to stderr.

# Command Line Flags

	-version  Show current version
	-d        Enable debug mode with detailed logging
	-c        Run the line CLI instead of the server
	-t        Run the terminal editor instead of the server
	-config string
	    Path to a custom config file
	-data string
	    Directory containing candidate files (default "data/")
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/mentionserve/internal/cli"
	"github.com/bastiangx/mentionserve/internal/tui"
	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/candidates"
	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	gh      = "https://github.com/bastiangx/mentionserve"
)

// sigHandler cancels the returned context on SIGINT/SIGTERM. A second signal exits at once.
func sigHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		<-c
		os.Exit(0)
	}()
	return ctx
}

// main only manages the flow: flags, paths, config, then one of the three modes.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	dataDir := flag.String("data", "data/", "Directory containing candidate files")
	configFile := flag.String("config", "", "Path to custom config file")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	tuiMode := flag.Bool("t", false, "Run the interactive terminal editor")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	log.SetOutput(os.Stderr)

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))

	resolvedDataDir := pathResolver.GetDataDir(*dataDir)
	if resolvedDataDir == "" {
		log.Debug("No candidate dir found, triggers use inline values only")
	} else {
		log.Debugf("Using data dir at: %s", resolvedDataDir)
	}
	loader := candidates.NewLoader(resolvedDataDir)

	registry, err := config.BuildRegistry(appConfig, loader)
	if err != nil {
		log.Fatalf("Invalid trigger table: %v", err)
	}
	log.Debug("Registry ready", "triggers", registry.Prefixes())

	switch {
	case *tuiMode:
		if err := tui.Run(registry, appConfig); err != nil {
			log.Fatalf("TUI error: %v", err)
		}
		return
	case *cliMode:
		log.SetReportTimestamp(false)
		inputHandler := cli.NewInputHandler(registry, appConfig, os.Stdin, os.Stdout)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	ctx := sigHandler()
	log.Debug("spawning IPC")
	srv := server.NewServer(appConfig, registry, loader, os.Stdin, os.Stdout)
	srv.SetVersion(Version)

	showStartupInfo(resolvedDataDir, configPath, registry.Len())

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ MentionServe ] Typeahead mentions for any text buffer")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(dataDir, configPath string, triggers int) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "==============")
	fmt.Fprintln(os.Stderr, " MentionServe ")
	fmt.Fprintln(os.Stderr, "==============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("config: ( %s )", config.GetActiveConfigPath(configPath))
	if dataDir != "" {
		log.Infof("data dir: ( %s )", dataDir)
	}
	log.Infof("triggers: %d", triggers)
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "==============")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
