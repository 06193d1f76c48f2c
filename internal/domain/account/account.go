// Package account identifies the parties that hold money or receive reviews.
// Users and studios have independent id spaces, so every reference carries its kind.
package account

import (
	"errors"
	"fmt"
	"strconv"
)

type Kind string

const (
	KindUser   Kind = "user"
	KindStudio Kind = "studio"
)

var ErrInvalidRef = errors.New("invalid account reference")

type Ref struct {
	Kind Kind  `json:"kind"`
	ID   int64 `json:"id"`
}

func User(id int64) Ref   { return Ref{Kind: KindUser, ID: id} }
func Studio(id int64) Ref { return Ref{Kind: KindStudio, ID: id} }

func (r Ref) Valid() bool {
	return (r.Kind == KindUser || r.Kind == KindStudio) && r.ID > 0
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Parse builds a Ref from path parameters such as ("studio", "12").
func Parse(kind, id string) (Ref, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Ref{}, ErrInvalidRef
	}
	ref := Ref{Kind: Kind(kind), ID: n}
	if !ref.Valid() {
		return Ref{}, ErrInvalidRef
	}
	return ref, nil
}
