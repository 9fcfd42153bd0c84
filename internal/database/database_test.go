package database

import (
	"context"
	"testing"
)

func TestOpen_RejectsMalformedDSN(t *testing.T) {
	if _, err := Open(context.Background(), "not a dsn"); err == nil {
		t.Fatal("malformed DSN accepted")
	}
}
