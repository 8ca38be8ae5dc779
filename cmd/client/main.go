package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hextactics/internal/client"
	"hextactics/internal/config"
	"hextactics/internal/hex"
	"hextactics/internal/level"
)

func main() {
	cfgPath := flag.String("config", "", "config file path")
	name := flag.String("name", "", "display name, overrides config")
	flag.Parse()

	cfg, err := config.LoadClient(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *name != "" {
		cfg.Name = *name
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	id := client.NewClientID()
	nc, err := client.Dial(cfg.ServerURL, id, cfg.Name, log)
	if err != nil {
		log.Fatal("connect failed", zap.Error(err))
	}
	defer nc.Close()
	log.Info("connected", zap.String("server", cfg.ServerURL), zap.Uint64("id", uint64(id)))

	sess := client.NewSession(id, nc, log)

	commands := make(chan string, 8)
	go func() {
		defer close(commands)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			commands <- strings.TrimSpace(sc.Text())
		}
	}()

	fmt.Println("commands: ready | name <name> | spawn [q r [elev]] | end | status | quit")

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-nc.Done():
			fmt.Println("connection closed")
			return

		case line, ok := <-commands:
			if !ok {
				return
			}
			if line == "quit" {
				return
			}
			runCommand(sess, line)

		case <-ticker.C:
			for _, msg := range nc.Drain() {
				sess.Apply(msg)
			}
			if sess.Phase() == client.PhaseLoadingLevel {
				loadLevel(sess, cfg.LevelDir, log)
			}
		}
	}
}

// loadLevel stands in for asset streaming: the level file itself is the only
// asset this client has.
func loadLevel(sess *client.Session, dir string, log *zap.Logger) {
	path := filepath.Join(dir, sess.LevelID()+".yaml")
	lvl, err := level.Load(path)
	if err != nil {
		log.Error("level load failed", zap.String("path", path), zap.Error(err))
		return
	}
	sess.LevelReady(lvl)
	fmt.Printf("level %q loaded\n", lvl.Name)
}

func runCommand(sess *client.Session, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "ready":
		sess.ToggleReady()
		fmt.Printf("ready: %v\n", sess.Ready())

	case "name":
		if len(fields) < 2 {
			fmt.Println("usage: name <name>")
			return
		}
		sess.Rename(strings.Join(fields[1:], " "))

	case "spawn":
		sp, ok := sess.Spawn()
		if !ok {
			fmt.Println("no spawnpoint assigned yet")
			return
		}
		pos, elev := sp.Pos, sp.Elevation
		if len(fields) >= 3 {
			q, err1 := strconv.Atoi(fields[1])
			r, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				fmt.Println("usage: spawn [q r [elev]]")
				return
			}
			pos = hex.Axial{Q: q, R: r}
			if len(fields) >= 4 {
				if e, err := strconv.Atoi(fields[3]); err == nil {
					elev = e
				}
			}
		}
		if sess.RequestSpawn(pos, elev) {
			fmt.Printf("spawn requested at %d,%d\n", pos.Q, pos.R)
		} else {
			fmt.Println("spawn request refused, pick a tile near your spawnpoint")
		}

	case "end":
		if sess.Phase() != client.PhaseActing {
			fmt.Println("not your turn")
			return
		}
		sess.EndTurn()

	case "status":
		printStatus(sess)

	default:
		fmt.Printf("unknown command %q\n", fields[0])
	}
}

func printStatus(sess *client.Session) {
	fmt.Printf("phase: %s\n", sess.Phase())

	players := make([]client.PlayerInfo, 0)
	for _, p := range sess.Players() {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	for _, p := range players {
		marker := " "
		if p.ID == sess.Self() {
			marker = "*"
		}
		fmt.Printf("  %s %d %s\n", marker, uint64(p.ID), p.Name)
	}

	if cur, ok := sess.CurrentTurn(); ok {
		fmt.Printf("turn: %d\n", uint64(cur))
	}
}

func newLogger(levelStr string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
