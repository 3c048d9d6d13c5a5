/*
 * MIT License
 *
 * Copyright (c) 2018-2020 Frank Kopp
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package main

import (
	"context"
	"flag"
	"time"

	"github.com/labstack/echo/v4"
	gologging "github.com/op/go-logging"
	"github.com/pkg/profile"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/frankkopp/chessserver/config"
	"github.com/frankkopp/chessserver/logging"
	"github.com/frankkopp/chessserver/matchmaker"
	"github.com/frankkopp/chessserver/session"
	"github.com/frankkopp/chessserver/store"
	"github.com/frankkopp/chessserver/transport"
)

func main() {
	configFile := flag.String("config", "./config/config.toml", "path to configuration settings file")
	logLvl := flag.String("loglvl", "", "log level\n(off|critical|error|warning|notice|info|debug)")
	authTokens := flag.String("tokenfile", "", "path to a \"token=userId\" per line file for StaticAuthenticator\n(local/dev only; production wires a real Authenticator)")
	cpuProfile := flag.Bool("cpuprofile", false, "write a cpu profile to the working directory until shutdown")
	flag.Parse()

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	// This needs to be set before config.Setup() is called, otherwise the
	// default path is used.
	config.ConfFile = *configFile
	config.Setup()
	if lvl, found := config.LogLevels[*logLvl]; found {
		config.LogLevel = lvl
	}

	log := logging.GetLog("main")

	repo, closeRepo := newRepository(log)
	defer closeRepo()

	sessions := session.NewManager(repo, session.Config{
		CommandBuffer:   config.Settings.Session.CommandBuffer,
		BroadcastBuffer: config.Settings.Session.BroadcastBuffer,
	}, nil, nil)

	checker := newTokenFileChecker(*authTokens, log)
	mmHub := transport.NewMatchmakingNotifier(sessions)
	mm := matchmaker.New(checker, sessions, mmHub, mmHub, nil)

	auth := transport.NewStaticAuthenticator(checker.tokens)
	srv := transport.NewServer(auth, mm, sessions, mmHub)

	e := echo.New()
	e.HideBanner = true
	srv.Register(e)

	go logStats(log, sessions, mm)

	log.Noticef("listening on %s", config.Settings.Server.ListenAddr)
	if err := e.Start(config.Settings.Server.ListenAddr); err != nil {
		log.Errorf("server stopped: %v", err)
	}
}

// logStats writes a periodic one-line process summary.
func logStats(log *gologging.Logger, sessions *session.Manager, mm *matchmaker.Matchmaker) {
	p := message.NewPrinter(language.English)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		log.Info(p.Sprintf("live games: %d  queued for matchmaking: %d", sessions.LiveCount(), mm.Size()))
	}
}

func newRepository(log *gologging.Logger) (store.GameRepository, func()) {
	if config.Settings.Store.DSN == "" {
		log.Notice("no store DSN configured, using in-memory repository")
		return store.NewMemoryRepository(), func() {}
	}
	repo, err := store.NewPostgresRepository(context.Background(), config.Settings.Store.DSN)
	if err != nil {
		log.Errorf("connecting to postgres, falling back to in-memory repository: %v", err)
		return store.NewMemoryRepository(), func() {}
	}
	return repo, repo.Close
}

