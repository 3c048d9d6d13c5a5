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

// Package config loads the server's TOML configuration file and exposes
// it as a set of globally readable settings structs, one per subsystem.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ConfFile is the path to the configuration file. Must be set before
// Setup() is called - otherwise the default path is used.
var ConfFile = "./config/config.toml"

// globally available config values
var (
	// LogLevel defines the general log level set by default or given by the command line arguments
	LogLevel = 4

	// Settings is the global configuration read in from file
	Settings conf

	initialized = false
)

type conf struct {
	Log     logConfiguration
	Server  serverConfiguration
	Session sessionConfiguration
	Store   storeConfiguration
}

type serverConfiguration struct {
	ListenAddr string
}

type sessionConfiguration struct {
	BroadcastBuffer int
	CommandBuffer   int
}

type storeConfiguration struct {
	DSN string // empty means: use the in-memory store
}

// Setup reads the configuration file (if present) and fills in defaults
// for anything the file does not set. Safe to call more than once - only
// the first call has an effect.
func Setup() {
	if initialized {
		return
	}

	if _, err := toml.DecodeFile(ConfFile, &Settings); err != nil {
		fmt.Println("config: no config file loaded, using defaults:", err)
	}

	setupLogLvl()
	setupDefaults()

	initialized = true
}

func setupDefaults() {
	if Settings.Server.ListenAddr == "" {
		Settings.Server.ListenAddr = ":8080"
	}
	if Settings.Session.BroadcastBuffer == 0 {
		Settings.Session.BroadcastBuffer = 16
	}
	if Settings.Session.CommandBuffer == 0 {
		Settings.Session.CommandBuffer = 32
	}
}
