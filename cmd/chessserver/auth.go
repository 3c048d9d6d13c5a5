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
	"bufio"
	"context"
	"os"
	"strings"

	gologging "github.com/op/go-logging"

	"github.com/frankkopp/chessserver/ids"
)

// tokenFileChecker resolves bearer tokens to UserIds from a flat
// "token=userId" file. Token issuance and the user directory both live
// in an external auth service; a token that decodes to a line in this
// file is, for local/dev purposes, the only notion of "the user exists"
// the process has. It backs both transport.StaticAuthenticator and
// matchmaker.UserExistenceChecker so the two agree on who is real.
type tokenFileChecker struct {
	tokens map[string]ids.UserId
	known  map[ids.UserId]struct{}
}

// newTokenFileChecker loads path, or - if path is empty - mints two demo
// users with fixed tokens so the server is immediately exercisable
// without any setup.
func newTokenFileChecker(path string, log *gologging.Logger) *tokenFileChecker {
	c := &tokenFileChecker{tokens: make(map[string]ids.UserId), known: make(map[ids.UserId]struct{})}
	if path == "" {
		log.Notice("no -tokenfile given, minting demo users \"alice\" and \"bob\" for local testing")
		for _, token := range []string{"alice", "bob"} {
			userID := ids.NewUserId()
			c.tokens[token] = userID
			c.known[userID] = struct{}{}
			log.Noticef("demo token %q -> userId %s", token, userID)
		}
		return c
	}

	f, err := os.Open(path)
	if err != nil {
		log.Errorf("opening token file %s: %v", path, err)
		return c
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		token, rawID, ok := strings.Cut(line, "=")
		if !ok {
			log.Warningf("token file %s: ignoring malformed line %q", path, line)
			continue
		}
		userID, err := ids.ParseUserId(strings.TrimSpace(rawID))
		if err != nil {
			log.Warningf("token file %s: ignoring line with bad user id %q: %v", path, line, err)
			continue
		}
		token = strings.TrimSpace(token)
		c.tokens[token] = userID
		c.known[userID] = struct{}{}
	}
	return c
}

// Exists implements matchmaker.UserExistenceChecker.
func (c *tokenFileChecker) Exists(_ context.Context, userID ids.UserId) (bool, error) {
	_, ok := c.known[userID]
	return ok, nil
}
