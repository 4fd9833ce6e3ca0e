/*
 * Copyright 2025 The Redline Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package rpc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lithammer/shortuuid/v4"

	"github.com/redline-team/redline/api/types"
	"github.com/redline-team/redline/pkg/errors"
)

type contextKey string

const userIDKey contextKey = "userID"

// ErrUnauthenticated is returned when the request carries no valid token.
var ErrUnauthenticated = errors.Unauthenticated(
	"invalid or missing token",
).WithCode("ErrUnauthenticated")

// UserIDFromCtx returns the authenticated user of the request.
func UserIDFromCtx(ctx context.Context) types.ID {
	if id, ok := ctx.Value(userIDKey).(types.ID); ok {
		return id
	}
	return ""
}

// IssueToken signs a token for the given user. Identity verification itself
// happens outside this core; this helper exists for trusted callers at that
// boundary and for tests.
func IssueToken(secret string, userID types.ID, duration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        shortuuid.New(),
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// auth resolves the caller's user id from a bearer token and stores it in
// the request context. Websocket callers may pass the token in the query
// string since the browser API does not allow custom headers.
func auth(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			tokenString = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if tokenString == "" {
			writeError(w, r, ErrUnauthenticated)
			return
		}

		token, err := jwt.ParseWithClaims(
			tokenString,
			&jwt.RegisteredClaims{},
			func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			},
		)
		if err != nil || !token.Valid {
			writeError(w, r, ErrUnauthenticated)
			return
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok || claims.Subject == "" {
			writeError(w, r, ErrUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, types.ID(claims.Subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
