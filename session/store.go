// Package session maps a Farcaster account (fid) to the Neynar signer that
// posts on its behalf.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("signer not found")

type Store interface {
	Save(ctx context.Context, fid, signerUUID string) error
	Lookup(ctx context.Context, fid string) (string, error)
	Close() error
}

func key(fid string) string {
	return "signer:" + fid
}

func validate(fid, signerUUID string) (string, string, error) {
	fid = strings.TrimSpace(fid)
	signerUUID = strings.TrimSpace(signerUUID)
	if fid == "" {
		return "", "", fmt.Errorf("fid is required")
	}
	if signerUUID == "" {
		return "", "", fmt.Errorf("signer uuid is required")
	}
	return fid, signerUUID, nil
}
