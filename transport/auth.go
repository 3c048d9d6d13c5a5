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

package transport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/frankkopp/chessserver/ids"
)

// ErrAuthFailed is returned by an Authenticator when a bearer token does
// not resolve to a user. No state is mutated when this occurs.
var ErrAuthFailed = errors.New("transport: authentication failed")

// Authenticator validates the bearer token carried by a websocket
// upgrade request and resolves it to a UserId. Token issuance (JWT
// signing, password verification, refresh) lives entirely outside this
// repository; this interface is the seam to that external service.
type Authenticator interface {
	Authenticate(token string) (ids.UserId, error)
}

// bearerToken extracts the token from an "Authorization: Bearer ..."
// header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	return strings.TrimPrefix(h, prefix), true
}

// StaticAuthenticator resolves tokens via a fixed token->UserId map. It
// exists for local runs and tests where standing up a real JWT issuer
// is out of scope; production deployments wire a real Authenticator
// (validating against the auth service's signing key) at the
// composition root instead.
type StaticAuthenticator struct {
	tokens map[string]ids.UserId
}

// NewStaticAuthenticator builds a StaticAuthenticator from a fixed
// token->UserId table.
func NewStaticAuthenticator(tokens map[string]ids.UserId) *StaticAuthenticator {
	return &StaticAuthenticator{tokens: tokens}
}

func (a *StaticAuthenticator) Authenticate(token string) (ids.UserId, error) {
	userID, ok := a.tokens[token]
	if !ok {
		return ids.UserId{}, ErrAuthFailed
	}
	return userID, nil
}
