// internal/httpserver/seats.go
//
// Seat tokens.
// Each human seat of a new game gets an HS256 JWT carrying {game, seat}.
// When seat auth is required, roll and move must present the token of the
// seat whose turn it is as "Authorization: Bearer <token>". AI turns need no
// token. With seat auth off, tokens are still issued but never checked.

package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errSeatUnauthorized = errors.New("missing or invalid seat token")
	errWrongSeat        = errors.New("not your seat's turn")
)

type seatAuth struct {
	secret   []byte
	required bool
}

// seatClaims are the claims of a seat token.
type seatClaims struct {
	Game string `json:"game"`
	Seat int    `json:"seat"`
	jwt.RegisteredClaims
}

// issue signs a token for seat of gameID.
func (a *seatAuth) issue(gameID string, seat int) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, seatClaims{
		Game: gameID,
		Seat: seat,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  gameID + "/" + strconv.Itoa(seat),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	})
	return t.SignedString(a.secret)
}

// issueAll signs tokens for every human seat, keyed by seat id.
func (a *seatAuth) issueAll(gameID string, humanSeats []int) (map[string]string, error) {
	out := make(map[string]string, len(humanSeats))
	for _, seat := range humanSeats {
		tok, err := a.issue(gameID, seat)
		if err != nil {
			return nil, fmt.Errorf("sign seat %d: %w", seat, err)
		}
		out[strconv.Itoa(seat)] = tok
	}
	return out, nil
}

// parse validates tok and returns its claims.
func (a *seatAuth) parse(tok string) (*seatClaims, error) {
	claims := &seatClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, errSeatUnauthorized
	}
	return claims, nil
}

// authorize checks that r may act for seat in gameID.
func (a *seatAuth) authorize(r *http.Request, gameID string, seat int) error {
	if !a.required {
		return nil
	}
	tok := bearer(r)
	if tok == "" {
		return errSeatUnauthorized
	}
	claims, err := a.parse(tok)
	if err != nil {
		return err
	}
	if claims.Game != gameID {
		return errSeatUnauthorized
	}
	if claims.Seat != seat {
		return errWrongSeat
	}
	return nil
}

// bearer extracts a bearer token from the Authorization header.
func bearer(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}
